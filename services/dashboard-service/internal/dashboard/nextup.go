package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

const (
	nextUpLimit    = 5
	anyStylistName = "Any"
)

func (s *Service) nextUp(ctx context.Context, scope Scope, m Moment) (NextUp, error) {
	var (
		appts    []model.Appointment
		walkIns  []model.WalkIn
		stylists []model.Stylist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appts, err = s.store.ListAppointments(gctx, AppointmentQuery{
			Scope:    scope,
			Day:      m.Day,
			Statuses: []model.AppointmentStatus{model.AppointmentBooked, model.AppointmentConfirmed, model.AppointmentCheckedIn},
			From:     FormatClock(m.Minute),
			Limit:    nextUpLimit,
		})
		return err
	})
	g.Go(func() error {
		var err error
		walkIns, err = s.store.ListWalkIns(gctx, WalkInQuery{
			Scope:    scope,
			Day:      m.Day,
			Statuses: []model.WalkInStatus{model.WalkInWaiting, model.WalkInCalled, model.WalkInServing},
			OrderBy:  WalkInsByToken,
		})
		return err
	})
	g.Go(func() error {
		var err error
		stylists, err = s.store.ListBranchStylists(gctx, scope, m.Day)
		return err
	})
	if err := g.Wait(); err != nil {
		return NextUp{}, fmt.Errorf("next up: %w", err)
	}

	names := make(map[string]string, len(stylists))
	for _, st := range stylists {
		names[st.ID] = st.Name
	}

	out := NextUp{
		Appointments: make([]UpcomingAppointment, 0, len(appts)),
		WalkIns:      make([]QueuedWalkIn, 0, len(walkIns)),
	}
	for _, a := range appts {
		name, ok := names[a.StylistID]
		if a.StylistID == "" || !ok {
			name = anyStylistName
		}
		out.Appointments = append(out.Appointments, UpcomingAppointment{
			ID:            a.ID,
			CustomerName:  a.CustomerName,
			CustomerPhone: a.CustomerPhone,
			ServiceName:   a.ServiceName,
			StylistID:     a.StylistID,
			StylistName:   name,
			ScheduledTime: a.ScheduledTime,
			EndTime:       a.EndTime,
			Status:        a.Status,
			IsLate:        a.Status == model.AppointmentBooked && scheduledAt(m.Day, a.ScheduledTime).Before(m.Now),
		})
	}
	for _, w := range walkIns {
		out.WalkIns = append(out.WalkIns, QueuedWalkIn{
			ID:                   w.ID,
			TokenNumber:          w.TokenNumber,
			CustomerName:         w.CustomerName,
			ServiceName:          w.ServiceName,
			Status:               w.Status,
			WaitTime:             waitMinutes(w.CreatedAt, m.Now),
			EstimatedWaitMinutes: w.EstimatedWaitMinutes,
			CreatedAt:            w.CreatedAt,
		})
	}
	return out, nil
}

func scheduledAt(day time.Time, clock string) time.Time {
	return day.Add(time.Duration(mustClock(clock)) * time.Minute)
}

// waitMinutes is now-createdAt in whole minutes, never negative.
func waitMinutes(createdAt, now time.Time) int {
	return max(0, int(now.Sub(createdAt)/time.Minute))
}
