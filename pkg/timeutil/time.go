package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first instant of t's calendar month in UTC.
// This is the accrual boundary used to hold back the still-open month.
func StartOfMonth(t time.Time) time.Time {
	year, month, _ := t.UTC().Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
