package dashboard

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

// totalSlots is eight working hours of fifteen-minute slots. It does not follow
// branch operating hours, so a busy day can report more than 100 percent.
const totalSlots = 32

var hundred = decimal.NewFromInt(100)

func (s *Service) quickStats(ctx context.Context, scope Scope, m Moment) (QuickStats, error) {
	var (
		today, yesterday decimal.Decimal
		appts            []model.Appointment
		walkIns          []model.WalkIn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = s.store.SumFinalizedRevenue(gctx, scope, m.Day, m.Day.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() error {
		var err error
		yesterday, err = s.store.SumFinalizedRevenue(gctx, scope, m.Day.AddDate(0, 0, -1), m.Day)
		return err
	})
	g.Go(func() error {
		var err error
		appts, err = s.store.ListAppointments(gctx, AppointmentQuery{
			Scope:           scope,
			Day:             m.Day,
			ExcludeStatuses: []model.AppointmentStatus{model.AppointmentCancelled},
		})
		return err
	})
	g.Go(func() error {
		var err error
		walkIns, err = s.store.ListWalkIns(gctx, WalkInQuery{Scope: scope, Day: m.Day})
		return err
	})
	if err := g.Wait(); err != nil {
		return QuickStats{}, fmt.Errorf("quick stats: %w", err)
	}

	qs := QuickStats{
		TodayRevenue:     today,
		YesterdayRevenue: yesterday,
		RevenueChange:    percentChange(today, yesterday),
	}
	for _, a := range appts {
		switch a.Status {
		case model.AppointmentCompleted:
			qs.AppointmentsCompleted++
		case model.AppointmentNoShow:
			qs.NoShows++
		case model.AppointmentBooked, model.AppointmentConfirmed, model.AppointmentCheckedIn, model.AppointmentInProgress:
			qs.AppointmentsRemaining++
		}
	}

	totalWait := 0
	for _, w := range walkIns {
		if w.Status == model.WalkInCompleted {
			qs.WalkInsServed++
		}
		totalWait += w.EstimatedWaitMinutes
	}
	if len(walkIns) > 0 {
		qs.AverageWaitMinutes = int(math.Round(float64(totalWait) / float64(len(walkIns))))
	}

	qs.BookedSlots = qs.AppointmentsCompleted + qs.AppointmentsRemaining
	qs.OccupancyPercent = round1(float64(qs.BookedSlots) / totalSlots * 100)
	return qs, nil
}

// percentChange is (current-baseline)/baseline*100 rounded to one decimal, and
// 0 when the baseline is zero.
func percentChange(current, baseline decimal.Decimal) float64 {
	if baseline.IsZero() {
		return 0
	}
	return current.Sub(baseline).Div(baseline).Mul(hundred).Round(1).InexactFloat64()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
