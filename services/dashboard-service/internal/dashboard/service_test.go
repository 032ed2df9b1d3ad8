package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

func ownerFixture() *fakeStore {
	d := decimal.NewFromInt
	return &fakeStore{
		invoices: []invoice{
			{branchID: testBranch, day: testDay, total: d(300)},
			{branchID: testBranch, day: testDay.AddDate(0, 0, -1), total: d(200)},
			{branchID: testBranch, day: testDay.AddDate(0, 0, -7), total: d(150)},
			{branchID: testBranch, day: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), total: d(100)},
			{branchID: testBranch, day: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), total: d(999)},
			{branchID: "branch-2", day: testDay, total: d(100)},
		},
		appointments: []model.Appointment{
			appt("a1", "s1", "09:00", "09:30", model.AppointmentCompleted),
			appt("a2", "s1", "09:30", "10:00", model.AppointmentCompleted),
			appt("a3", "s1", "11:00", "11:30", model.AppointmentBooked),
			appt("a4", "s2", "10:00", "10:30", model.AppointmentInProgress),
			appt("a5", "s2", "12:00", "12:30", model.AppointmentCancelled),
			appt("a6", "s2", "08:00", "08:30", model.AppointmentNoShow),
		},
		inventory: InventoryCounts{LowStock: 3, OutOfStock: 1},
		batchExpiry: []time.Time{
			time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.April, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.April, 20, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		activeStaff: 5,
		leaves: []leave{
			{branchID: testBranch, day: testDay},
			{branchID: "branch-2", day: testDay},
			{branchID: testBranch, day: testDay.AddDate(0, 0, 1)},
		},
	}
}

func TestOwnerDashboardBranch(t *testing.T) {
	s := newTestService(ownerFixture(), at(15, 0), Config{})

	got, err := s.OwnerDashboard(context.Background(), testScope)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-10", got.Date)
	assert.Equal(t, testBranch, got.BranchID)
	assert.True(t, got.Revenue.Today.Equal(decimal.NewFromInt(300)))
	assert.True(t, got.Revenue.Yesterday.Equal(decimal.NewFromInt(200)))
	assert.True(t, got.Revenue.LastWeek.Equal(decimal.NewFromInt(150)))
	assert.True(t, got.Revenue.MonthToDate.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, 50.0, got.Revenue.PercentChangeVsYesterday)
	assert.Equal(t, 100.0, got.Revenue.PercentChangeVsLastWeek)

	assert.Equal(t, AppointmentsSummary{Total: 6, Completed: 2, Upcoming: 2, Cancelled: 1, NoShow: 1}, got.Appointments)
	assert.Equal(t, InventorySummary{LowStock: 3, OutOfStock: 1, ExpiringBatches: 2}, got.Inventory)
	assert.Equal(t, StaffSummary{Active: 5, OnLeave: 1, Available: 4}, got.Staff)
}

func TestOwnerDashboardTenantWide(t *testing.T) {
	s := newTestService(ownerFixture(), at(15, 0), Config{})

	got, err := s.OwnerDashboard(context.Background(), Scope{TenantID: testTenant})
	require.NoError(t, err)

	assert.Empty(t, got.BranchID)
	assert.True(t, got.Revenue.Today.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, 2, got.Staff.OnLeave)
}

func TestOwnerDashboardZeroBaselines(t *testing.T) {
	s := newTestService(&fakeStore{}, at(15, 0), Config{})

	got, err := s.OwnerDashboard(context.Background(), testScope)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Revenue.PercentChangeVsYesterday)
	assert.Equal(t, 0.0, got.Revenue.PercentChangeVsLastWeek)
	assert.Equal(t, 0, got.Staff.Available)
}

func TestCommandCenter(t *testing.T) {
	now := at(10, 15)
	store := &fakeStore{
		stylists:     []model.Stylist{rostered("s1", "Asha", 1)},
		appointments: []model.Appointment{appt("a1", "s1", "10:00", "10:30", model.AppointmentInProgress)},
		invoices:     []invoice{{branchID: testBranch, day: testDay, total: decimal.NewFromInt(80)}},
	}
	s := newTestService(store, now, Config{})

	cc, err := s.CommandCenter(context.Background(), testScope, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, testBranch, cc.BranchID)
	assert.Equal(t, "2026-03-10", cc.Date)
	assert.True(t, cc.GeneratedAt.Equal(now))
	assert.True(t, cc.QuickStats.TodayRevenue.Equal(decimal.NewFromInt(80)))
	require.Len(t, cc.Stations, 1)
	assert.Equal(t, StationOccupied, cc.Stations[0].Status)
	assert.Equal(t, "10:15", cc.Timeline.WindowStart)
	assert.NotNil(t, cc.NextUp.Appointments)
	assert.NotNil(t, cc.Attention)
}

func TestCommandCenterForOtherDay(t *testing.T) {
	s := newTestService(&fakeStore{}, at(10, 15), Config{})

	cc, err := s.CommandCenter(context.Background(), testScope, testDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", cc.Date)
}

func TestCommandCenterRequiresScope(t *testing.T) {
	s := newTestService(&fakeStore{}, at(10, 0), Config{})

	_, err := s.CommandCenter(context.Background(), Scope{TenantID: testTenant}, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = s.OwnerDashboard(context.Background(), Scope{BranchID: testBranch})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestAggregationFailsFast(t *testing.T) {
	boom := errors.New("connection reset")
	s := newTestService(&fakeStore{err: boom}, at(10, 0), Config{})

	cc, err := s.CommandCenter(context.Background(), testScope, time.Time{})
	assert.Nil(t, cc)
	assert.ErrorIs(t, err, boom)

	od, err := s.OwnerDashboard(context.Background(), testScope)
	assert.Nil(t, od)
	assert.ErrorIs(t, err, boom)
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (c *memCache) Load(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if raw, ok := c.items[key]; ok {
		return raw, nil
	}
	raw, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.items[key] = raw
	return raw, nil
}

func TestCommandCenterServedFromCache(t *testing.T) {
	store := &fakeStore{
		stylists:     []model.Stylist{rostered("s1", "Asha", 1)},
		appointments: []model.Appointment{appt("a1", "s1", "10:00", "10:30", model.AppointmentInProgress)},
		invoices:     []invoice{{branchID: testBranch, day: testDay, total: decimal.RequireFromString("80.50")}},
	}
	cache := &memCache{items: map[string][]byte{}}
	s := newTestService(store, at(10, 15), Config{}, WithCache(cache))

	first, err := s.CommandCenter(context.Background(), testScope, time.Time{})
	require.NoError(t, err)
	calls := store.callCount()

	second, err := s.CommandCenter(context.Background(), testScope, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, calls, store.callCount())

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	_, ok := cache.items["dashboard:command-center:tenant-1:branch-1:2026-03-10"]
	assert.True(t, ok)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "dashboard:command-center:tenant-1:branch-1:2026-03-10", CommandCenterKey(testScope, testDay))
	assert.Equal(t, "dashboard:owner:tenant-1:all:2026-03-10", OwnerKey(Scope{TenantID: testTenant}, testDay))
}
