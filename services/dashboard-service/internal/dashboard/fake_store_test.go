package dashboard

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

type invoice struct {
	branchID string
	day      time.Time
	total    decimal.Decimal
}

type leave struct {
	branchID string
	day      time.Time
}

// fakeStore honours the same filter, order and limit contract as the Postgres
// repository.
type fakeStore struct {
	mu sync.Mutex

	appointments []model.Appointment
	walkIns      []model.WalkIn
	stylists     []model.Stylist
	breaks       []model.Break
	invoices     []invoice
	inventory    InventoryCounts
	batchExpiry  []time.Time
	activeStaff  int
	leaves       []leave

	err   error
	calls int
}

func (f *fakeStore) hit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func inScope(scope Scope, branchID string) bool {
	return scope.BranchID == "" || scope.BranchID == branchID
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}

func (f *fakeStore) ListAppointments(_ context.Context, q AppointmentQuery) ([]model.Appointment, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	var out []model.Appointment
	for _, a := range f.appointments {
		if !inScope(q.Scope, a.BranchID) || !sameDay(a.Date, q.Day) {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, a.Status) {
			continue
		}
		if slices.Contains(q.ExcludeStatuses, a.Status) {
			continue
		}
		if q.From != "" && mustClock(a.ScheduledTime) < mustClock(q.From) {
			continue
		}
		if q.Until != "" && mustClock(a.ScheduledTime) > mustClock(q.Until) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ScheduledTime != out[j].ScheduledTime {
			return out[i].ScheduledTime < out[j].ScheduledTime
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) CountAppointmentsByStatus(_ context.Context, scope Scope, day time.Time) (map[model.AppointmentStatus]int, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	out := map[model.AppointmentStatus]int{}
	for _, a := range f.appointments {
		if inScope(scope, a.BranchID) && sameDay(a.Date, day) {
			out[a.Status]++
		}
	}
	return out, nil
}

func (f *fakeStore) ListWalkIns(_ context.Context, q WalkInQuery) ([]model.WalkIn, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	var out []model.WalkIn
	for _, w := range f.walkIns {
		if !inScope(q.Scope, w.BranchID) || !sameDay(w.Date, q.Day) {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, w.Status) {
			continue
		}
		if !q.CreatedBefore.IsZero() && w.CreatedAt.After(q.CreatedBefore) {
			continue
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy == WalkInsByCreated {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].TokenNumber < out[j].TokenNumber
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) ListBranchStylists(_ context.Context, _ Scope, _ time.Time) ([]model.Stylist, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return append([]model.Stylist(nil), f.stylists...), nil
}

func (f *fakeStore) ListBreaks(_ context.Context, _ Scope, _ time.Time) ([]model.Break, error) {
	if err := f.hit(); err != nil {
		return nil, err
	}
	return append([]model.Break(nil), f.breaks...), nil
}

func (f *fakeStore) SumFinalizedRevenue(_ context.Context, scope Scope, from, to time.Time) (decimal.Decimal, error) {
	if err := f.hit(); err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, inv := range f.invoices {
		if inScope(scope, inv.branchID) && !inv.day.Before(from) && inv.day.Before(to) {
			sum = sum.Add(inv.total)
		}
	}
	return sum, nil
}

func (f *fakeStore) InventorySummary(_ context.Context, _ Scope) (InventoryCounts, error) {
	if err := f.hit(); err != nil {
		return InventoryCounts{}, err
	}
	return f.inventory, nil
}

func (f *fakeStore) CountExpiringBatches(_ context.Context, _ Scope, from, to time.Time) (int, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	n := 0
	for _, exp := range f.batchExpiry {
		if !exp.Before(from) && !exp.After(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountActiveStaff(_ context.Context, _ Scope) (int, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	return f.activeStaff, nil
}

func (f *fakeStore) CountStaffOnLeave(_ context.Context, scope Scope, day time.Time) (int, error) {
	if err := f.hit(); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range f.leaves {
		if inScope(scope, l.branchID) && sameDay(l.day, day) {
			n++
		}
	}
	return n, nil
}
