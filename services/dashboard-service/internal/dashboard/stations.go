package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

type seat struct {
	number  int
	stylist model.Stylist
}

// assignSeats numbers stylists by their persisted station number. Stylists
// without one, or whose number is already taken, get the lowest free numbers in
// (name, id) order. The result is ordered by station number.
func assignSeats(stylists []model.Stylist) []seat {
	ordered := append([]model.Stylist(nil), stylists...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})

	taken := make(map[int]bool, len(ordered))
	seats := make([]seat, 0, len(ordered))
	var floating []model.Stylist
	for _, st := range ordered {
		if n := st.StationNumber; n > 0 && !taken[n] {
			taken[n] = true
			seats = append(seats, seat{number: n, stylist: st})
			continue
		}
		floating = append(floating, st)
	}
	next := 1
	for _, st := range floating {
		for taken[next] {
			next++
		}
		taken[next] = true
		seats = append(seats, seat{number: next, stylist: st})
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].number < seats[j].number })
	return seats
}

func (s *Service) stations(ctx context.Context, scope Scope, m Moment) ([]Station, error) {
	var (
		stylists []model.Stylist
		breaks   []model.Break
		current  []model.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stylists, err = s.store.ListBranchStylists(gctx, scope, m.Day)
		return err
	})
	g.Go(func() error {
		var err error
		breaks, err = s.store.ListBreaks(gctx, scope, m.Day)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.store.ListAppointments(gctx, AppointmentQuery{
			Scope:    scope,
			Day:      m.Day,
			Statuses: []model.AppointmentStatus{model.AppointmentInProgress, model.AppointmentCheckedIn},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}

	breaksBy := make(map[string][]model.Break)
	for _, b := range breaks {
		breaksBy[b.StylistID] = append(breaksBy[b.StylistID], b)
	}
	apptsBy := make(map[string][]model.Appointment)
	for _, a := range current {
		if a.StylistID != "" {
			apptsBy[a.StylistID] = append(apptsBy[a.StylistID], a)
		}
	}

	out := make([]Station, 0, len(stylists))
	for _, seat := range assignSeats(stylists) {
		st := seat.stylist
		n := strconv.Itoa(seat.number)
		station := Station{
			ID:            "station-" + n,
			Name:          "Chair " + n,
			StationNumber: seat.number,
			StylistID:     st.ID,
			StylistName:   st.Name,
			Status:        StationAvailable,
		}
		// An appointment in the chair outranks the roster.
		a, busy := currentAppointment(apptsBy[st.ID], m.Minute)
		switch {
		case onBreak(breaksBy[st.ID], m.Minute):
			station.Status = StationBreak
		case busy:
			station.Status = StationOccupied
			station.CurrentAppointment = progressOf(a, m.Minute)
		case offShift(st, m.Minute):
			station.Status = StationOffline
		}
		out = append(out, station)
	}
	return out, nil
}

func offShift(st model.Stylist, minute int) bool {
	if st.OnLeave || st.ShiftStart == "" || st.ShiftEnd == "" {
		return true
	}
	return minute < mustClock(st.ShiftStart) || minute >= mustClock(st.ShiftEnd)
}

func onBreak(breaks []model.Break, minute int) bool {
	for _, b := range breaks {
		if minute >= mustClock(b.Start) && minute < mustClock(b.End) {
			return true
		}
	}
	return false
}

// currentAppointment returns the earliest appointment whose closed interval
// [scheduled, end] contains minute. Input is ordered by scheduled time.
func currentAppointment(appts []model.Appointment, minute int) (model.Appointment, bool) {
	for _, a := range appts {
		if minute >= mustClock(a.ScheduledTime) && minute <= mustClock(a.EndTime) {
			return a, true
		}
	}
	return model.Appointment{}, false
}

func progressOf(a model.Appointment, minute int) *CurrentAppointment {
	start, end := mustClock(a.ScheduledTime), mustClock(a.EndTime)
	total := end - start
	elapsed := minute - start
	progress := 100
	if total > 0 {
		progress = int(math.Round(float64(elapsed) / float64(total) * 100))
	}
	return &CurrentAppointment{
		ID:            a.ID,
		CustomerName:  a.CustomerName,
		ServiceName:   a.ServiceName,
		StartTime:     a.ScheduledTime,
		EndTime:       a.EndTime,
		Progress:      max(0, min(100, progress)),
		TimeRemaining: max(0, total-elapsed),
	}
}
