package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/salondesk/salondesk/services/dashboard-service/internal/model"
)

// CommandCenter is the front-desk snapshot of one branch at one instant.
type CommandCenter struct {
	BranchID    string          `json:"branchId"`
	Date        string          `json:"date"`
	GeneratedAt time.Time       `json:"generatedAt"`
	QuickStats  QuickStats      `json:"quickStats"`
	Stations    []Station       `json:"stations"`
	NextUp      NextUp          `json:"nextUp"`
	Attention   []AttentionItem `json:"attentionItems"`
	Timeline    Timeline        `json:"timeline"`
}

type QuickStats struct {
	TodayRevenue          decimal.Decimal `json:"todayRevenue"`
	YesterdayRevenue      decimal.Decimal `json:"yesterdayRevenue"`
	RevenueChange         float64         `json:"revenueChange"`
	AppointmentsCompleted int             `json:"appointmentsCompleted"`
	AppointmentsRemaining int             `json:"appointmentsRemaining"`
	NoShows               int             `json:"noShows"`
	WalkInsServed         int             `json:"walkInsServed"`
	AverageWaitMinutes    int             `json:"averageWaitMinutes"`
	BookedSlots           int             `json:"bookedSlots"`
	OccupancyPercent      float64         `json:"occupancyPercent"`
}

type StationStatus string

const (
	StationAvailable StationStatus = "available"
	StationOccupied  StationStatus = "occupied"
	StationBreak     StationStatus = "break"
	StationOffline   StationStatus = "offline"
)

type Station struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	StationNumber      int                 `json:"stationNumber"`
	StylistID          string              `json:"stylistId"`
	StylistName        string              `json:"stylistName"`
	Status             StationStatus       `json:"status"`
	CurrentAppointment *CurrentAppointment `json:"currentAppointment,omitempty"`
}

type CurrentAppointment struct {
	ID            string `json:"id"`
	CustomerName  string `json:"customerName"`
	ServiceName   string `json:"serviceName"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Progress      int    `json:"progress"`
	TimeRemaining int    `json:"timeRemaining"`
}

type NextUp struct {
	Appointments []UpcomingAppointment `json:"appointments"`
	WalkIns      []QueuedWalkIn        `json:"walkIns"`
}

type UpcomingAppointment struct {
	ID            string                  `json:"id"`
	CustomerName  string                  `json:"customerName"`
	CustomerPhone string                  `json:"customerPhone,omitempty"`
	ServiceName   string                  `json:"serviceName"`
	StylistID     string                  `json:"stylistId,omitempty"`
	StylistName   string                  `json:"stylistName"`
	ScheduledTime string                  `json:"scheduledTime"`
	EndTime       string                  `json:"endTime"`
	Status        model.AppointmentStatus `json:"status"`
	IsLate        bool                    `json:"isLate"`
}

type QueuedWalkIn struct {
	ID                   string             `json:"id"`
	TokenNumber          int                `json:"tokenNumber"`
	CustomerName         string             `json:"customerName"`
	ServiceName          string             `json:"serviceName,omitempty"`
	Status               model.WalkInStatus `json:"status"`
	WaitTime             int                `json:"waitTime"`
	EstimatedWaitMinutes int                `json:"estimatedWaitMinutes"`
	CreatedAt            time.Time          `json:"createdAt"`
}

type AttentionType string

const (
	AttentionLateArrival     AttentionType = "late_arrival"
	AttentionPendingCheckout AttentionType = "pending_checkout"
	AttentionWalkInWaiting   AttentionType = "walk_in_waiting"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type AttentionItem struct {
	ID         string        `json:"id"`
	Type       AttentionType `json:"type"`
	Priority   Priority      `json:"priority"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	EntityType string        `json:"entityType"`
	EntityID   string        `json:"entityId"`
	Minutes    int           `json:"minutes,omitempty"`
}

type Timeline struct {
	WindowStart string            `json:"windowStart"`
	WindowEnd   string            `json:"windowEnd"`
	Stylists    []StylistSchedule `json:"stylists"`
}

type StylistSchedule struct {
	StylistID    string                `json:"stylistId"`
	StylistName  string                `json:"stylistName"`
	Appointments []TimelineAppointment `json:"appointments"`
}

type TimelineAppointment struct {
	ID           string                  `json:"id"`
	CustomerName string                  `json:"customerName"`
	ServiceName  string                  `json:"serviceName"`
	StartTime    string                  `json:"startTime"`
	EndTime      string                  `json:"endTime"`
	Status       model.AppointmentStatus `json:"status"`
}

// OwnerDashboard is the business summary for a branch or a whole tenant.
type OwnerDashboard struct {
	TenantID     string              `json:"tenantId"`
	BranchID     string              `json:"branchId,omitempty"`
	Date         string              `json:"date"`
	GeneratedAt  time.Time           `json:"generatedAt"`
	Revenue      RevenueSummary      `json:"revenue"`
	Appointments AppointmentsSummary `json:"appointments"`
	Inventory    InventorySummary    `json:"inventory"`
	Staff        StaffSummary        `json:"staff"`
}

type RevenueSummary struct {
	Today                    decimal.Decimal `json:"today"`
	Yesterday                decimal.Decimal `json:"yesterday"`
	LastWeek                 decimal.Decimal `json:"lastWeek"`
	MonthToDate              decimal.Decimal `json:"monthToDate"`
	PercentChangeVsYesterday float64         `json:"percentChangeVsYesterday"`
	PercentChangeVsLastWeek  float64         `json:"percentChangeVsLastWeek"`
}

type AppointmentsSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Upcoming  int `json:"upcoming"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"noShow"`
}

type InventorySummary struct {
	LowStock        int `json:"lowStock"`
	OutOfStock      int `json:"outOfStock"`
	ExpiringBatches int `json:"expiringBatches"`
}

type StaffSummary struct {
	Active    int `json:"active"`
	OnLeave   int `json:"onLeave"`
	Available int `json:"available"`
}
