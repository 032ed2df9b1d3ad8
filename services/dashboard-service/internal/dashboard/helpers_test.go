package dashboard

import (
	"io"
	"log/slog"
	"time"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

const (
	testTenant = "tenant-1"
	testBranch = "branch-1"
)

var (
	testDay   = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	testScope = Scope{TenantID: testTenant, BranchID: testBranch}
)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func momentAt(now time.Time) Moment {
	return newMoment(now, time.Time{}, time.UTC)
}

func newTestService(store Store, now time.Time, cfg Config, opts ...Option) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	opts = append([]Option{WithClock(FixedClock(now))}, opts...)
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, opts...)
}

func appt(id, stylistID, start, end string, status model.AppointmentStatus) model.Appointment {
	return model.Appointment{
		ID:            id,
		TenantID:      testTenant,
		BranchID:      testBranch,
		CustomerName:  "Customer " + id,
		ServiceName:   "Haircut",
		StylistID:     stylistID,
		Date:          testDay,
		ScheduledTime: start,
		EndTime:       end,
		Status:        status,
	}
}

func walkIn(id string, token int, status model.WalkInStatus, createdAt time.Time, estimate int) model.WalkIn {
	return model.WalkIn{
		ID:                   id,
		TenantID:             testTenant,
		BranchID:             testBranch,
		TokenNumber:          token,
		CustomerName:         "Walk-in " + id,
		Status:               status,
		EstimatedWaitMinutes: estimate,
		Date:                 testDay,
		CreatedAt:            createdAt,
	}
}

func rostered(id, name string, station int) model.Stylist {
	return model.Stylist{ID: id, Name: name, StationNumber: station, ShiftStart: "09:00", ShiftEnd: "18:00"}
}
