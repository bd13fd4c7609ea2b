package model

import (
	"regexp"
	"strconv"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// IsClock reports whether value is a valid HH:MM time of day.
func IsClock(value string) bool {
	_, ok := ClockMinutes(value)
	return ok
}

// ClockMinutes converts HH:MM into hour*60+minute.
func ClockMinutes(value string) (int, bool) {
	if !clockPattern.MatchString(value) {
		return 0, false
	}
	hour, _ := strconv.Atoi(value[:2])
	minute, _ := strconv.Atoi(value[3:])
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// ParseDate parses a YYYY-MM-DD calendar date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, loc)
}

// IsDate reports whether value is a valid YYYY-MM-DD calendar date.
func IsDate(value string) bool {
	_, err := ParseDate(value, time.UTC)
	return err == nil
}

// FormatDate returns the calendar date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ShiftDate moves a YYYY-MM-DD date by days.
func ShiftDate(value string, days int) (string, error) {
	d, err := ParseDate(value, time.UTC)
	if err != nil {
		return "", err
	}
	return FormatDate(d.AddDate(0, 0, days)), nil
}
