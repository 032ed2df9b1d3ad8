package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

const timelineWindowMinutes = 120

// window is a closed range of minutes since midnight.
type window struct {
	start, end int
}

// touches reports whether [start, end] starts inside w, ends inside w, or
// spans all of w.
func (w window) touches(start, end int) bool {
	return (start >= w.start && start <= w.end) ||
		(end >= w.start && end <= w.end) ||
		(start <= w.start && end >= w.end)
}

func (s *Service) timeline(ctx context.Context, scope Scope, m Moment) (Timeline, error) {
	var (
		stylists []model.Stylist
		appts    []model.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stylists, err = s.store.ListBranchStylists(gctx, scope, m.Day)
		return err
	})
	g.Go(func() error {
		var err error
		appts, err = s.store.ListAppointments(gctx, AppointmentQuery{
			Scope:           scope,
			Day:             m.Day,
			ExcludeStatuses: []model.AppointmentStatus{model.AppointmentCancelled, model.AppointmentNoShow},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Timeline{}, fmt.Errorf("timeline: %w", err)
	}

	w := window{start: m.Minute, end: min(m.Minute+timelineWindowMinutes, minutesPerDay)}
	byStylist := make(map[string][]TimelineAppointment)
	for _, a := range appts {
		if a.StylistID == "" || !w.touches(mustClock(a.ScheduledTime), mustClock(a.EndTime)) {
			continue
		}
		byStylist[a.StylistID] = append(byStylist[a.StylistID], TimelineAppointment{
			ID:           a.ID,
			CustomerName: a.CustomerName,
			ServiceName:  a.ServiceName,
			StartTime:    a.ScheduledTime,
			EndTime:      a.EndTime,
			Status:       a.Status,
		})
	}

	tl := Timeline{
		WindowStart: FormatClock(w.start),
		WindowEnd:   FormatClock(w.end),
		Stylists:    make([]StylistSchedule, 0, len(stylists)),
	}
	for _, seat := range assignSeats(stylists) {
		booked := byStylist[seat.stylist.ID]
		if booked == nil {
			booked = []TimelineAppointment{}
		}
		tl.Stylists = append(tl.Stylists, StylistSchedule{
			StylistID:    seat.stylist.ID,
			StylistName:  seat.stylist.Name,
			Appointments: booked,
		})
	}
	return tl, nil
}
