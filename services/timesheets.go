package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"laundromat/apperror"
	"laundromat/models"
	"laundromat/store"
	"laundromat/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	regularHoursPerDay = 8
	clockOutLookback   = 24 * time.Hour
)

type PayRates struct {
	Regular  float64
	Overtime float64
}

type TimesheetService struct {
	timesheets store.TimesheetStore
	employees  store.EmployeeStore
	rates      PayRates
	loc        *time.Location
	now        func() time.Time
}

func NewTimesheetService(timesheets store.TimesheetStore, employees store.EmployeeStore, rates PayRates, loc *time.Location) *TimesheetService {
	if loc == nil {
		loc = time.Local
	}
	return &TimesheetService{
		timesheets: timesheets,
		employees:  employees,
		rates:      rates,
		loc:        loc,
		now:        time.Now,
	}
}

type TimesheetQuery struct {
	EmployeeID string
	Status     string
	StartDate  string
	EndDate    string
}

func (s *TimesheetService) List(ctx context.Context, q TimesheetQuery) ([]models.TimesheetEntry, error) {
	from, to, err := optionalRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	entries, err := s.timesheets.Find(ctx, store.TimesheetFilter{
		EmployeeID: q.EmployeeID,
		Status:     q.Status,
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching timesheets")
	}
	return entries, nil
}

func (s *TimesheetService) ClockIn(ctx context.Context, employeeID string) (*models.TimesheetEntry, error) {
	_, err := s.timesheets.FindOpen(ctx, employeeID, time.Time{}, time.Time{})
	if err == nil {
		return nil, apperror.ErrAlreadyClockedIn
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal(err, "Error checking timesheet")
	}

	now := s.now()
	entry := models.TimesheetEntry{
		EmployeeID:   employeeID,
		EmployeeName: s.employeeName(ctx, employeeID),
		Date:         models.CalendarDay(now, s.loc),
		TimeIn:       now,
		Status:       models.TimesheetPending,
		CreatedAt:    now,
	}
	if err := s.timesheets.Insert(ctx, &entry); err != nil {
		return nil, apperror.Internal(err, "Error clocking in")
	}
	return &entry, nil
}

func (s *TimesheetService) ClockOut(ctx context.Context, employeeID string) (*models.TimesheetEntry, error) {
	open, err := s.timesheets.FindOpen(ctx, employeeID, time.Time{}, time.Time{})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.ErrNoOpenShift
	}
	if err != nil {
		return nil, apperror.Internal(err, "Error checking timesheet")
	}

	open.Close(s.now())
	if err := s.timesheets.Close(ctx, open.ID, *open.TimeOut, open.Duration); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.ErrNoOpenShift
		}
		return nil, apperror.Internal(err, "Error clocking out")
	}
	return open, nil
}

// employeeName is best effort; clock events are accepted for ids the back office
// does not know yet.
func (s *TimesheetService) employeeName(ctx context.Context, employeeID string) string {
	oid, err := primitive.ObjectIDFromHex(employeeID)
	if err != nil {
		return ""
	}
	emp, err := s.employees.FindByID(ctx, oid)
	if err != nil {
		return ""
	}
	return emp.Name
}

type parsedClockEntry struct {
	index int
	entry models.BulkClockEntry
	at    time.Time
}

// BulkImport replays paper clock events for one employee. Events are applied in
// chronological order and every event gets its own outcome.
func (s *TimesheetService) BulkImport(ctx context.Context, req models.BulkTimesheetRequest) (models.BulkTimesheetResult, error) {
	emp, err := s.employees.FindByName(ctx, strings.TrimSpace(req.EmployeeName))
	if errors.Is(err, store.ErrNotFound) {
		return models.BulkTimesheetResult{}, apperror.NotFound("Employee not found")
	}
	if err != nil {
		return models.BulkTimesheetResult{}, apperror.Internal(err, "Error finding employee")
	}
	employeeID := emp.ID.Hex()

	result := models.BulkTimesheetResult{Results: make([]models.ClockEntryResult, len(req.Entries))}
	var events []parsedClockEntry
	for i, e := range req.Entries {
		result.Results[i] = models.ClockEntryResult{Index: i, Type: e.Type}
		at, err := utils.CombineDateClock(e.Date, e.Time, s.loc)
		if err == nil && e.Type != "in" && e.Type != "out" {
			err = fmt.Errorf("invalid type %q", e.Type)
		}
		if err != nil {
			result.Results[i].Outcome = models.ClockInvalid
			result.Results[i].Error = err.Error()
			result.Invalid++
			continue
		}
		events = append(events, parsedClockEntry{index: i, entry: e, at: at})
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].at.Before(events[b].at) })

	for _, ev := range events {
		res := &result.Results[ev.index]
		switch ev.entry.Type {
		case "in":
			entry := models.TimesheetEntry{
				EmployeeID:   employeeID,
				EmployeeName: emp.Name,
				Date:         models.CalendarDay(ev.at, s.loc),
				TimeIn:       ev.at,
				Status:       models.TimesheetPending,
				CreatedAt:    s.now(),
			}
			if err := s.timesheets.Insert(ctx, &entry); err != nil {
				return result, apperror.Internal(err, "Error saving timesheet")
			}
			res.Outcome = models.ClockCreated
			res.TimesheetID = entry.ID.Hex()
			result.Created++

		case "out":
			open, err := s.timesheets.FindOpen(ctx, employeeID, ev.at.Add(-clockOutLookback), ev.at)
			if errors.Is(err, store.ErrNotFound) {
				res.Outcome = models.ClockUnmatched
				res.Error = "no clock-in within 24 hours before this clock-out"
				result.Unmatched++
				zap.L().Warn("unmatched clock-out in bulk import",
					zap.String("employee", emp.Name), zap.Time("at", ev.at))
				continue
			}
			if err != nil {
				return result, apperror.Internal(err, "Error finding open timesheet")
			}
			open.Close(ev.at)
			if err := s.timesheets.Close(ctx, open.ID, ev.at, open.Duration); err != nil {
				return result, apperror.Internal(err, "Error closing timesheet")
			}
			res.Outcome = models.ClockMatched
			res.TimesheetID = open.ID.Hex()
			result.Matched++
		}
	}

	result.Message = fmt.Sprintf("Processed %d entries: %d created, %d matched, %d unmatched, %d invalid",
		len(req.Entries), result.Created, result.Matched, result.Unmatched, result.Invalid)
	return result, nil
}

// PayReport totals completed shifts per day in the range. Up to eight hours a day
// are paid at the regular rate, the rest at the overtime rate.
func (s *TimesheetService) PayReport(ctx context.Context, employeeID, startDate, endDate string) (models.PayReport, error) {
	from, to, err := requiredRange(startDate, endDate)
	if err != nil {
		return models.PayReport{}, err
	}

	entries, err := s.timesheets.Find(ctx, store.TimesheetFilter{
		EmployeeID: employeeID,
		Status:     models.TimesheetCompleted,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return models.PayReport{}, apperror.Internal(err, "Error fetching timesheets")
	}

	minutes := map[string]int{}
	for _, e := range entries {
		day := e.TimeIn.In(s.loc).Format(models.DateLayout)
		minutes[day] += e.Duration
	}
	days := make([]string, 0, len(minutes))
	for d := range minutes {
		days = append(days, d)
	}
	sort.Strings(days)

	report := models.PayReport{
		EmployeeID:   employeeID,
		StartDate:    startDate,
		EndDate:      endDate,
		Days:         []models.DailyHours{},
		RegularRate:  s.rates.Regular,
		OvertimeRate: s.rates.Overtime,
		Timesheets:   entries,
	}
	for _, d := range days {
		hours := utils.Round2(float64(minutes[d]) / 60)
		regular := hours
		if regular > regularHoursPerDay {
			regular = regularHoursPerDay
		}
		overtime := utils.Round2(hours - regular)
		report.Days = append(report.Days, models.DailyHours{
			Date:          d,
			Hours:         hours,
			RegularHours:  regular,
			OvertimeHours: overtime,
		})
		report.TotalHours += hours
		report.RegularHours += regular
		report.OvertimeHours += overtime
	}
	report.TotalHours = utils.Round2(report.TotalHours)
	report.RegularHours = utils.Round2(report.RegularHours)
	report.OvertimeHours = utils.Round2(report.OvertimeHours)
	report.RegularPay = utils.Pay(report.RegularHours, s.rates.Regular)
	report.OvertimePay = utils.Pay(report.OvertimeHours, s.rates.Overtime)
	report.TotalPay = utils.Round2(report.RegularPay + report.OvertimePay)
	return report, nil
}

// optionalRange parses the startDate/endDate query pair; either may be blank.
func optionalRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start != "" {
		t, err := models.ParseDate(start)
		if err != nil {
			return nil, nil, apperror.InvalidField("startDate")
		}
		from = &t
	}
	if end != "" {
		t, err := models.ParseDate(end)
		if err != nil {
			return nil, nil, apperror.InvalidField("endDate")
		}
		to = &t
	}
	return from, to, nil
}
