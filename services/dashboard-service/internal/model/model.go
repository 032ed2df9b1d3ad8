// Package model holds the read projections the dashboard works on. Rows are
// owned and written by the booking, queue, billing and staff services.
package model

import "time"

type AppointmentStatus string

const (
	AppointmentBooked     AppointmentStatus = "booked"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentCheckedIn  AppointmentStatus = "checked_in"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
	AppointmentNoShow     AppointmentStatus = "no_show"
)

// Appointment times are "HH:MM" in the branch's local day.
type Appointment struct {
	ID            string
	TenantID      string
	BranchID      string
	CustomerName  string
	CustomerPhone string
	ServiceName   string
	StylistID     string
	Date          time.Time
	ScheduledTime string
	EndTime       string
	Status        AppointmentStatus
}

type WalkInStatus string

const (
	WalkInWaiting   WalkInStatus = "waiting"
	WalkInCalled    WalkInStatus = "called"
	WalkInServing   WalkInStatus = "serving"
	WalkInCompleted WalkInStatus = "completed"
	WalkInLeft      WalkInStatus = "left"
	WalkInCancelled WalkInStatus = "cancelled"
)

type WalkIn struct {
	ID                   string
	TenantID             string
	BranchID             string
	TokenNumber          int
	CustomerName         string
	CustomerPhone        string
	ServiceName          string
	PreferredStylistID   string
	Status               WalkInStatus
	EstimatedWaitMinutes int
	Date                 time.Time
	CreatedAt            time.Time
}

// Stylist is an active stylist assigned to a branch, with the roster for one day.
// StationNumber is 0 when no chair has been persisted for the stylist; ShiftStart
// and ShiftEnd are empty when the stylist is not rostered that day.
type Stylist struct {
	ID            string
	Name          string
	StationNumber int
	ShiftStart    string
	ShiftEnd      string
	OnLeave       bool
}

type Break struct {
	StylistID string
	Start     string
	End       string
}
