package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

// Scope selects the rows an aggregation reads. An empty BranchID means every
// branch of the tenant.
type Scope struct {
	TenantID string
	BranchID string
}

func (s Scope) TenantWide() bool { return s.BranchID == "" }

// AppointmentQuery filters one day's appointments. From and Until bound
// scheduled_time inclusively and are ignored when empty. Results are ordered by
// scheduled_time then id.
type AppointmentQuery struct {
	Scope
	Day             time.Time
	Statuses        []model.AppointmentStatus
	ExcludeStatuses []model.AppointmentStatus
	From            string
	Until           string
	Limit           int
}

type WalkInOrder int

const (
	WalkInsByToken WalkInOrder = iota
	WalkInsByCreated
)

// WalkInQuery filters one day's walk-ins. CreatedBefore is inclusive and ignored
// when zero.
type WalkInQuery struct {
	Scope
	Day           time.Time
	Statuses      []model.WalkInStatus
	CreatedBefore time.Time
	OrderBy       WalkInOrder
	Limit         int
}

type InventoryCounts struct {
	LowStock   int
	OutOfStock int
}

// Store is the read side the collectors depend on. Day ranges are half-open
// [from, to) over calendar days.
type Store interface {
	ListAppointments(ctx context.Context, q AppointmentQuery) ([]model.Appointment, error)
	CountAppointmentsByStatus(ctx context.Context, scope Scope, day time.Time) (map[model.AppointmentStatus]int, error)
	ListWalkIns(ctx context.Context, q WalkInQuery) ([]model.WalkIn, error)
	ListBranchStylists(ctx context.Context, scope Scope, day time.Time) ([]model.Stylist, error)
	ListBreaks(ctx context.Context, scope Scope, day time.Time) ([]model.Break, error)
	SumFinalizedRevenue(ctx context.Context, scope Scope, from, to time.Time) (decimal.Decimal, error)
	InventorySummary(ctx context.Context, scope Scope) (InventoryCounts, error)
	CountExpiringBatches(ctx context.Context, scope Scope, from, to time.Time) (int, error)
	CountActiveStaff(ctx context.Context, scope Scope) (int, error)
	CountStaffOnLeave(ctx context.Context, scope Scope, day time.Time) (int, error)
}
