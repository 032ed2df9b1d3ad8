package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

const expiryHorizonDays = 30

func (s *Service) ownerSummary(ctx context.Context, scope Scope, m Moment) (*OwnerDashboard, error) {
	var (
		today, yesterday, lastWeek, monthToDate decimal.Decimal
		statusCounts                            map[model.AppointmentStatus]int
		inventory                               InventoryCounts
		expiring, active, onLeave               int
	)
	day := m.Day
	tomorrow := day.AddDate(0, 0, 1)
	firstOfMonth := day.AddDate(0, 0, 1-day.Day())

	g, gctx := errgroup.WithContext(ctx)
	revenue := func(dst *decimal.Decimal, from, to time.Time) func() error {
		return func() error {
			v, err := s.store.SumFinalizedRevenue(gctx, scope, from, to)
			*dst = v
			return err
		}
	}
	g.Go(revenue(&today, day, tomorrow))
	g.Go(revenue(&yesterday, day.AddDate(0, 0, -1), day))
	g.Go(revenue(&lastWeek, day.AddDate(0, 0, -7), day.AddDate(0, 0, -6)))
	g.Go(revenue(&monthToDate, firstOfMonth, tomorrow))
	g.Go(func() error {
		var err error
		statusCounts, err = s.store.CountAppointmentsByStatus(gctx, scope, day)
		return err
	})
	g.Go(func() error {
		var err error
		inventory, err = s.store.InventorySummary(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		expiring, err = s.store.CountExpiringBatches(gctx, scope, day, day.AddDate(0, 0, expiryHorizonDays))
		return err
	})
	g.Go(func() error {
		var err error
		active, err = s.store.CountActiveStaff(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		onLeave, err = s.store.CountStaffOnLeave(gctx, scope, day)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("owner dashboard: %w", err)
	}

	appts := AppointmentsSummary{
		Completed: statusCounts[model.AppointmentCompleted],
		Upcoming: statusCounts[model.AppointmentBooked] + statusCounts[model.AppointmentConfirmed] +
			statusCounts[model.AppointmentCheckedIn] + statusCounts[model.AppointmentInProgress],
		Cancelled: statusCounts[model.AppointmentCancelled],
		NoShow:    statusCounts[model.AppointmentNoShow],
	}
	for _, n := range statusCounts {
		appts.Total += n
	}

	return &OwnerDashboard{
		TenantID:    scope.TenantID,
		BranchID:    scope.BranchID,
		Date:        day.Format(time.DateOnly),
		GeneratedAt: m.Now,
		Revenue: RevenueSummary{
			Today:                    today,
			Yesterday:                yesterday,
			LastWeek:                 lastWeek,
			MonthToDate:              monthToDate,
			PercentChangeVsYesterday: percentChange(today, yesterday),
			PercentChangeVsLastWeek:  percentChange(today, lastWeek),
		},
		Appointments: appts,
		Inventory: InventorySummary{
			LowStock:        inventory.LowStock,
			OutOfStock:      inventory.OutOfStock,
			ExpiringBatches: expiring,
		},
		Staff: StaffSummary{
			Active:    active,
			OnLeave:   onLeave,
			Available: max(0, active-onLeave),
		},
	}, nil
}
