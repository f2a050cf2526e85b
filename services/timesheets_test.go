package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"laundromat/apperror"
	"laundromat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTimesheetService(emps ...models.Employee) (*TimesheetService, *memTimesheets) {
	ts := &memTimesheets{}
	svc := NewTimesheetService(ts, &memEmployees{emps: emps}, PayRates{Regular: 15, Overtime: 22.5}, time.UTC)
	return svc, ts
}

func TestTimesheetService_ClockInAndOut(t *testing.T) {
	emp := models.Employee{ID: primitive.NewObjectID(), Name: "Ana Cruz"}
	svc, ts := newTimesheetService(emp)
	in := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = fixedClock(in)
	ctx := context.Background()

	entry, err := svc.ClockIn(ctx, emp.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetPending, entry.Status)
	assert.Equal(t, "Ana Cruz", entry.EmployeeName)

	_, err = svc.ClockIn(ctx, emp.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.ToHTTP(err).HTTPStatus)
	assert.Equal(t, apperror.CodeAlreadyClockedIn, apperror.ToHTTP(err).Code)

	svc.now = fixedClock(in.Add(7*time.Hour + 45*time.Minute))
	closed, err := svc.ClockOut(ctx, emp.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.TimesheetCompleted, closed.Status)
	assert.Equal(t, 465, closed.Duration)
	assert.Equal(t, models.TimesheetCompleted, ts.entries[0].Status)

	_, err = svc.ClockOut(ctx, emp.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, "No active clock-in found", apperror.ToHTTP(err).Message)
	assert.Equal(t, apperror.CodeNoOpenShift, apperror.ToHTTP(err).Code)
}

func TestTimesheetService_BulkImport(t *testing.T) {
	emp := models.Employee{ID: primitive.NewObjectID(), Name: "Ana Cruz"}
	svc, ts := newTimesheetService(emp)

	res, err := svc.BulkImport(context.Background(), models.BulkTimesheetRequest{
		EmployeeName: "ana cruz",
		Entries: []models.BulkClockEntry{
			{Date: "2024-03-01", Time: "5:00 PM", Type: "out"},
			{Date: "2024-03-01", Time: "9:00 AM", Type: "in"},
			{Date: "2024-03-02", Time: "12:30 PM", Type: "out"},
			{Date: "2024-03-02", Time: "quarter past", Type: "in"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, 1, res.Invalid)
	require.Len(t, res.Results, 4)
	assert.Equal(t, models.ClockMatched, res.Results[0].Outcome, "out applied after the earlier in")
	assert.Equal(t, models.ClockCreated, res.Results[1].Outcome)
	assert.Equal(t, res.Results[1].TimesheetID, res.Results[0].TimesheetID)
	assert.Equal(t, models.ClockUnmatched, res.Results[2].Outcome)
	assert.Equal(t, models.ClockInvalid, res.Results[3].Outcome)
	assert.Equal(t, "Processed 4 entries: 1 created, 1 matched, 1 unmatched, 1 invalid", res.Message)

	require.Len(t, ts.entries, 1)
	assert.Equal(t, 480, ts.entries[0].Duration)
	assert.Equal(t, emp.ID.Hex(), ts.entries[0].EmployeeID)
}

func TestTimesheetService_BulkImportLookback(t *testing.T) {
	emp := models.Employee{ID: primitive.NewObjectID(), Name: "Ben"}
	svc, _ := newTimesheetService(emp)

	res, err := svc.BulkImport(context.Background(), models.BulkTimesheetRequest{
		EmployeeName: "Ben",
		Entries: []models.BulkClockEntry{
			{Date: "2024-03-01", Time: "8:00 AM", Type: "in"},
			{Date: "2024-03-02", Time: "9:00 AM", Type: "out"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClockUnmatched, res.Results[1].Outcome, "clock-in older than 24h is not matched")
}

func TestTimesheetService_BulkImportUnknownEmployee(t *testing.T) {
	svc, _ := newTimesheetService()

	_, err := svc.BulkImport(context.Background(), models.BulkTimesheetRequest{EmployeeName: "Nobody"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperror.ToHTTP(err).HTTPStatus)
}

func TestTimesheetService_PayReport(t *testing.T) {
	svc, ts := newTimesheetService()
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }
	shift := func(in time.Time, minutes int) models.TimesheetEntry {
		out := in.Add(time.Duration(minutes) * time.Minute)
		return models.TimesheetEntry{
			EmployeeID: "e1",
			Date:       models.CalendarDay(in, time.UTC),
			TimeIn:     in,
			TimeOut:    &out,
			Status:     models.TimesheetCompleted,
			Duration:   minutes,
		}
	}
	ts.entries = []models.TimesheetEntry{
		shift(day(1, 8), 6*60),
		shift(day(1, 15), 4*60+30), // day 1: 10.5h
		shift(day(2, 8), 7*60),
		shift(day(5, 8), 9*60), // outside range
		{EmployeeID: "e1", Date: models.NewDate(day(2, 0)), TimeIn: day(2, 18), Status: models.TimesheetPending},
	}

	report, err := svc.PayReport(context.Background(), "e1", "2024-03-01", "2024-03-03")
	require.NoError(t, err)

	require.Len(t, report.Days, 2)
	assert.Equal(t, models.DailyHours{Date: "2024-03-01", Hours: 10.5, RegularHours: 8, OvertimeHours: 2.5}, report.Days[0])
	assert.Equal(t, 17.5, report.TotalHours)
	assert.Equal(t, 15.0, report.RegularHours)
	assert.Equal(t, 2.5, report.OvertimeHours)
	assert.Equal(t, 225.0, report.RegularPay)
	assert.Equal(t, 56.25, report.OvertimePay)
	assert.Equal(t, 281.25, report.TotalPay)
	assert.Len(t, report.Timesheets, 3)
}

func TestTimesheetService_PayReportNeedsDates(t *testing.T) {
	svc, _ := newTimesheetService()

	_, err := svc.PayReport(context.Background(), "e1", "2024-03-01", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.ToHTTP(err).HTTPStatus)

	_, err = svc.PayReport(context.Background(), "e1", "yesterday", "2024-03-01")
	assert.Equal(t, "startDate is invalid", apperror.ToHTTP(err).Message)
}

func TestTimesheetService_DaysEastOfUTC(t *testing.T) {
	dushanbe := time.FixedZone("UTC+5", 5*60*60)
	emp := models.Employee{ID: primitive.NewObjectID(), Name: "Ana Cruz"}
	ts := &memTimesheets{}
	svc := NewTimesheetService(ts, &memEmployees{emps: []models.Employee{emp}}, PayRates{Regular: 15, Overtime: 22.5}, dushanbe)
	ctx := context.Background()

	_, err := svc.BulkImport(ctx, models.BulkTimesheetRequest{
		EmployeeName: "Ana Cruz",
		Entries: []models.BulkClockEntry{
			{Date: "2024-05-01", Time: "8:00 AM", Type: "in"},
			{Date: "2024-05-01", Time: "5:00 PM", Type: "out"},
		},
	})
	require.NoError(t, err)
	require.Len(t, ts.entries, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ts.entries[0].Date.Time)

	rows, err := svc.List(ctx, TimesheetQuery{StartDate: "2024-05-01", EndDate: "2024-05-01"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	report, err := svc.PayReport(ctx, emp.ID.Hex(), "2024-05-01", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, report.Days, 1)
	assert.Equal(t, "2024-05-01", report.Days[0].Date)
	assert.Equal(t, 9.0, report.TotalHours)

	// 02:00 local is still the previous day in UTC
	svc.now = fixedClock(time.Date(2024, 5, 2, 2, 0, 0, 0, dushanbe))
	entry, err := svc.ClockIn(ctx, emp.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), entry.Date.Time)
}
