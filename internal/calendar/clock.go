// Package calendar resolves calendar days and weeks in the service time zone.
package calendar

import (
	"math"
	"time"
)

// Clock reports the current time and the location that defines day boundaries.
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a Clock. A nil now uses time.Now and a nil loc uses UTC.
func NewClock(now func() time.Time, loc *time.Location) Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return Clock{now: now, loc: loc}
}

// Fixed returns a Clock frozen at t, in t's location.
func Fixed(t time.Time) Clock {
	return NewClock(func() time.Time { return t }, t.Location())
}

// Now returns the current instant in the clock's location.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().In(c.Location())
	}
	return c.now().In(c.Location())
}

// Location returns the zone used for day boundaries.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// StartOfDay returns local midnight of the day containing t.
func (c Clock) StartOfDay(t time.Time) time.Time {
	t = t.In(c.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.Location())
}

// Today returns local midnight of the current day.
func (c Clock) Today() time.Time {
	return c.StartOfDay(c.Now())
}

// DayKey formats the local calendar day of t as YYYY-MM-DD.
func (c Clock) DayKey(t time.Time) string {
	return t.In(c.Location()).Format(time.DateOnly)
}

// ParseDay parses a YYYY-MM-DD string as local midnight.
func (c Clock) ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, value, c.Location())
}

// NextDay returns midnight of the day after day.
func NextDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

// WeekStart returns the Monday on or before day. Weeks start on Monday, so a
// Sunday maps to the Monday six days earlier.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DaysBetween counts calendar days from start to end, both midnights.
// Rounding absorbs 23h and 25h days around DST transitions.
func DaysBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}
