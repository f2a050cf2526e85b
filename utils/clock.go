package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"laundromat/models"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)

// ParseClock parses a wall clock reading such as "9:05 AM", "09:05:30 pm", "1:05pm"
// or "13:05". 12 AM is midnight and 12 PM is noon.
func ParseClock(s string) (hour, minute, second int, err error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid time %q", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}
	if minute > 59 || second > 59 {
		return 0, 0, 0, fmt.Errorf("invalid time %q", s)
	}

	switch strings.ToUpper(m[4]) {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, fmt.Errorf("invalid time %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, 0, 0, fmt.Errorf("invalid time %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, 0, fmt.Errorf("invalid time %q", s)
		}
	}
	return hour, minute, second, nil
}

// CombineDateClock joins a calendar date and a clock reading in loc.
func CombineDateClock(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, s, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, s, 0, loc), nil
}
