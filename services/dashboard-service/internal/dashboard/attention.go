package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

const (
	attentionLimit = 10

	lateGraceMinutes    = 10
	lateHighMinutes     = 30
	longWaitMinutes     = 20
	longWaitHighMinutes = 40
)

func (s *Service) attentionItems(ctx context.Context, scope Scope, m Moment) ([]AttentionItem, error) {
	var late, checkout []model.Appointment
	var waiting []model.WalkIn
	limit := s.cfg.AttentionCandidateLimit

	g, gctx := errgroup.WithContext(ctx)
	if m.Minute >= lateGraceMinutes {
		g.Go(func() error {
			var err error
			late, err = s.store.ListAppointments(gctx, AppointmentQuery{
				Scope:    scope,
				Day:      m.Day,
				Statuses: []model.AppointmentStatus{model.AppointmentBooked, model.AppointmentConfirmed},
				Until:    FormatClock(m.Minute - lateGraceMinutes),
				Limit:    limit,
			})
			return err
		})
	}
	g.Go(func() error {
		var err error
		checkout, err = s.store.ListAppointments(gctx, AppointmentQuery{
			Scope:    scope,
			Day:      m.Day,
			Statuses: []model.AppointmentStatus{model.AppointmentCompleted},
			Limit:    limit,
		})
		return err
	})
	g.Go(func() error {
		var err error
		waiting, err = s.store.ListWalkIns(gctx, WalkInQuery{
			Scope:         scope,
			Day:           m.Day,
			Statuses:      []model.WalkInStatus{model.WalkInWaiting},
			CreatedBefore: m.Now.Add(-longWaitMinutes * time.Minute),
			OrderBy:       WalkInsByCreated,
			Limit:         limit,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("attention items: %w", err)
	}

	items := make([]AttentionItem, 0, len(late)+len(checkout)+len(waiting))
	for _, a := range late {
		minutes := m.Minute - lateGraceMinutes - mustClock(a.ScheduledTime)
		if minutes < 0 {
			continue
		}
		p := PriorityMedium
		if minutes >= lateHighMinutes {
			p = PriorityHigh
		}
		items = append(items, AttentionItem{
			ID:         string(AttentionLateArrival) + "-" + a.ID,
			Type:       AttentionLateArrival,
			Priority:   p,
			Title:      "Late arrival",
			Message:    fmt.Sprintf("%s is %d min late for %s at %s", a.CustomerName, minutes, a.ServiceName, a.ScheduledTime),
			EntityType: "appointment",
			EntityID:   a.ID,
			Minutes:    minutes,
		})
	}
	for _, a := range checkout {
		items = append(items, AttentionItem{
			ID:         string(AttentionPendingCheckout) + "-" + a.ID,
			Type:       AttentionPendingCheckout,
			Priority:   PriorityHigh,
			Title:      "Pending checkout",
			Message:    fmt.Sprintf("%s finished %s and has not been billed", a.CustomerName, a.ServiceName),
			EntityType: "appointment",
			EntityID:   a.ID,
		})
	}
	for _, w := range waiting {
		wait := waitMinutes(w.CreatedAt, m.Now)
		if wait < longWaitMinutes {
			continue
		}
		p := PriorityMedium
		if wait >= longWaitHighMinutes {
			p = PriorityHigh
		}
		items = append(items, AttentionItem{
			ID:         string(AttentionWalkInWaiting) + "-" + w.ID,
			Type:       AttentionWalkInWaiting,
			Priority:   p,
			Title:      "Long wait",
			Message:    fmt.Sprintf("Token %d (%s) has been waiting %d min", w.TokenNumber, w.CustomerName, wait),
			EntityType: "walk_in",
			EntityID:   w.ID,
			Minutes:    wait,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority.rank() < items[j].Priority.rank()
	})
	if len(items) > attentionLimit {
		items = items[:attentionLimit]
	}
	return items, nil
}
