// Package timeutil provides calendar boundary utilities for TypeFlow.
// Leaderboard buckets (day / ISO week / month) are computed from the server's
// configured location, so every caller must go through this package instead of
// doing its own boundary math - otherwise sessions near midnight can land in
// the wrong bucket.
// No external dependencies - uses only standard library.
package timeutil

import (
	"sync/atomic"
	"time"
)

// location holds the *time.Location used for all boundary calculations.
// Defaults to the server's local time; overridable once at startup via
// SetLocation (from APP_TIMEZONE).
var location atomic.Pointer[time.Location]

func init() {
	location.Store(time.Local)
}

// SetLocation sets the location used for all calendar calculations.
// Call once during startup, before any background jobs run.
func SetLocation(loc *time.Location) {
	if loc != nil {
		location.Store(loc)
	}
}

// Location returns the currently configured location.
func Location() *time.Location {
	return location.Load()
}

// Now returns the current time in the configured location.
func Now() time.Time {
	return time.Now().In(Location())
}

// In converts a time to the configured location.
func In(t time.Time) time.Time {
	return t.In(Location())
}

// Date creates a midnight time in the configured location.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, Location())
}

// StartOfDay returns the start of the day (00:00:00) in the configured location.
func StartOfDay(t time.Time) time.Time {
	local := In(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}

// EndOfDay returns the end of the day (23:59:59.999999999).
func EndOfDay(t time.Time) time.Time {
	local := In(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, Location())
}

// StartOfWeek returns Monday 00:00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	local := In(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(local.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns Sunday 23:59:59 of the week containing t.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// StartOfMonth returns the 1st of the month at 00:00:00.
func StartOfMonth(t time.Time) time.Time {
	local := In(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, Location())
}

// EndOfMonth returns the last day of the month at 23:59:59.
func EndOfMonth(t time.Time) time.Time {
	return EndOfDay(StartOfMonth(t).AddDate(0, 1, -1))
}

// IsSameDay checks if two times fall on the same calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := In(t1), In(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsToday checks if the given time is today.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday checks if the given time is yesterday.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// DaysBetween returns the absolute number of calendar days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04:05"
)

// FormatDateStr formats a time as a date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return In(t).Format(FormatDate)
}

// ParseDate parses a date string (YYYY-MM-DD) in the configured location.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, Location())
}
