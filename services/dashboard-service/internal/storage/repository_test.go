package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

var testDay = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestAppointmentQuery(t *testing.T) {
	sql, args := appointmentQuery(dashboard.AppointmentQuery{
		Scope:    dashboard.Scope{TenantID: "t1", BranchID: "b1"},
		Day:      testDay,
		Statuses: []model.AppointmentStatus{model.AppointmentBooked, model.AppointmentConfirmed},
		Until:    "09:25",
		Limit:    50,
	})

	assert.Contains(t, sql, "tenant_id = $1")
	assert.Contains(t, sql, "($2 = '' OR branch_id = NULLIF($2, '')::uuid)")
	assert.Contains(t, sql, "appointment_date = $3::date")
	assert.Contains(t, sql, "status = ANY($4)")
	assert.Contains(t, sql, "scheduled_time <= $5::time")
	assert.True(t, strings.HasSuffix(sql, "LIMIT $6"))
	assert.NotContains(t, sql, "scheduled_time >=")
	assert.Equal(t, []any{"t1", "b1", "2026-03-10", []string{"booked", "confirmed"}, "09:25", 50}, args)
}

func TestAppointmentQueryExcludesWithoutLimit(t *testing.T) {
	sql, args := appointmentQuery(dashboard.AppointmentQuery{
		Scope:           dashboard.Scope{TenantID: "t1"},
		Day:             testDay,
		ExcludeStatuses: []model.AppointmentStatus{model.AppointmentCancelled},
	})

	assert.Contains(t, sql, "NOT (status = ANY($4))")
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, "", args[1])
}

func TestWalkInQuery(t *testing.T) {
	before := testDay.Add(9 * time.Hour)
	sql, args := walkInQuery(dashboard.WalkInQuery{
		Scope:         dashboard.Scope{TenantID: "t1", BranchID: "b1"},
		Day:           testDay,
		Statuses:      []model.WalkInStatus{model.WalkInWaiting},
		CreatedBefore: before,
		OrderBy:       dashboard.WalkInsByCreated,
	})

	assert.Contains(t, sql, "queue_date = $3::date")
	assert.Contains(t, sql, "status = ANY($4)")
	assert.Contains(t, sql, "created_at <= $5")
	assert.Contains(t, sql, "ORDER BY created_at ASC, token_number ASC")
	assert.Len(t, args, 5)
	assert.Equal(t, before, args[4])
}

func TestWhereAddNumbersEveryPlaceholder(t *testing.T) {
	var w where
	w.add("a = ?", 1)
	w.add("b BETWEEN ? AND ?", 2, 3)
	w.add("c IS NOT NULL")

	assert.Equal(t, "a = $1 AND b BETWEEN $2 AND $3 AND c IS NOT NULL", w.String())
	assert.Equal(t, []any{1, 2, 3}, w.args)
}
