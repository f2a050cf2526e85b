package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TimesheetPending   = "pending"
	TimesheetCompleted = "completed"
)

// TimesheetEntry is one clock-in/clock-out pair. It is created pending on clock-in
// and completed on the matching clock-out.
type TimesheetEntry struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EmployeeID   string             `bson:"employeeId,omitempty" json:"employeeId,omitempty"`
	EmployeeName string             `bson:"employeeName,omitempty" json:"employeeName,omitempty"`
	Date         Date               `bson:"date" json:"date"`
	TimeIn       time.Time          `bson:"timeIn" json:"timeIn"`
	TimeOut      *time.Time         `bson:"timeOut,omitempty" json:"timeOut,omitempty"`
	Status       string             `bson:"status" json:"status"`
	Duration     int                `bson:"duration" json:"duration"` // minutes
	ClientKey    string             `bson:"clientKey,omitempty" json:"clientKey,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Close completes the entry at out.
func (t *TimesheetEntry) Close(out time.Time) {
	t.TimeOut = &out
	t.Status = TimesheetCompleted
	t.Duration = DurationMinutes(t.TimeIn, out)
}

func DurationMinutes(in, out time.Time) int {
	if in.IsZero() || out.IsZero() || out.Before(in) {
		return 0
	}
	return int(out.Sub(in) / time.Minute)
}

// SyncTimesheet is the shape the POS client queues while offline. Older clients send
// clockIn/clockOut, newer ones timeIn/timeOut.
type SyncTimesheet struct {
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	Date         Date       `json:"date"`
	TimeIn       *time.Time `json:"timeIn"`
	TimeOut      *time.Time `json:"timeOut"`
	ClockIn      *time.Time `json:"clockIn"`
	ClockOut     *time.Time `json:"clockOut"`
	Duration     int        `json:"duration"`
	ClientKey    string     `json:"clientKey,omitempty"`
}

// Entry reshapes the queued record into a storable TimesheetEntry.
func (s SyncTimesheet) Entry(now time.Time) TimesheetEntry {
	in := s.TimeIn
	if in == nil {
		in = s.ClockIn
	}
	out := s.TimeOut
	if out == nil {
		out = s.ClockOut
	}

	e := TimesheetEntry{
		EmployeeID:   s.EmployeeID,
		EmployeeName: s.EmployeeName,
		Status:       TimesheetPending,
		Duration:     s.Duration,
		ClientKey:    s.ClientKey,
		CreatedAt:    now,
	}
	if in != nil {
		e.TimeIn = *in
	}
	switch {
	case !s.Date.IsZero():
		e.Date = CalendarDay(s.Date.Time, nil)
	case in != nil:
		e.Date = CalendarDay(*in, nil)
	}
	if out != nil {
		e.TimeOut = out
		e.Status = TimesheetCompleted
		if e.Duration == 0 {
			e.Duration = DurationMinutes(e.TimeIn, *out)
		}
	}
	return e
}

type ClockRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
}

type BulkClockEntry struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
	Type string `json:"type" binding:"required,oneof=in out"`
}

type BulkTimesheetRequest struct {
	EmployeeName string           `json:"employeeName" binding:"required"`
	Entries      []BulkClockEntry `json:"entries" binding:"required,dive"`
}

const (
	ClockCreated   = "created"
	ClockMatched   = "matched"
	ClockUnmatched = "unmatched"
	ClockInvalid   = "invalid"
)

// ClockEntryResult reports what happened to one imported clock event.
type ClockEntryResult struct {
	Index       int    `json:"index"`
	Type        string `json:"type"`
	Outcome     string `json:"outcome"`
	TimesheetID string `json:"timesheetId,omitempty"`
	Error       string `json:"error,omitempty"`
}

type BulkTimesheetResult struct {
	Message   string             `json:"message"`
	Created   int                `json:"created"`
	Matched   int                `json:"matched"`
	Unmatched int                `json:"unmatched"`
	Invalid   int                `json:"invalid"`
	Results   []ClockEntryResult `json:"results"`
}

// DailyHours is one worked day in a pay report.
type DailyHours struct {
	Date          string  `json:"date"`
	Hours         float64 `json:"hours"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
}

type PayReport struct {
	EmployeeID    string           `json:"employeeId"`
	StartDate     string           `json:"startDate"`
	EndDate       string           `json:"endDate"`
	Days          []DailyHours     `json:"days"`
	TotalHours    float64          `json:"totalHours"`
	RegularHours  float64          `json:"regularHours"`
	OvertimeHours float64          `json:"overtimeHours"`
	RegularRate   float64          `json:"regularRate"`
	OvertimeRate  float64          `json:"overtimeRate"`
	RegularPay    float64          `json:"regularPay"`
	OvertimePay   float64          `json:"overtimePay"`
	TotalPay      float64          `json:"totalPay"`
	Timesheets    []TimesheetEntry `json:"timesheets"`
}
