package hydration

import (
	"context"
	"time"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/models"
)

// InQuietHours reports whether t falls inside the quiet window. Windows whose
// start is after their end span midnight. Unparseable bounds disable the window.
func InQuietHours(settings models.UserSettings, t time.Time) bool {
	if !settings.QuietHoursEnabled {
		return false
	}
	start, err := parseClock(settings.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := parseClock(settings.QuietHoursEnd)
	if err != nil {
		return false
	}

	current := t.Hour()*60 + t.Minute()
	if start > end {
		return current >= start || current < end
	}
	return current >= start && current < end
}

// NextReminder returns when the next reminder is due after last. A zero last
// means no reminder was sent yet and one interval is counted from now. Due
// times inside quiet hours move to the end of the window. ok is false when
// reminders are off.
func NextReminder(settings models.UserSettings, last, now time.Time) (time.Time, bool) {
	if !settings.NotificationsEnabled || settings.ReminderIntervalMinutes <= 0 {
		return time.Time{}, false
	}

	interval := time.Duration(settings.ReminderIntervalMinutes) * time.Minute
	base := last
	if base.IsZero() {
		base = now
	}
	due := base.Add(interval)
	if due.Before(now) {
		due = now
	}

	if InQuietHours(settings, due) {
		due = quietHoursEnd(settings, due)
	}
	return due, true
}

// quietHoursEnd returns the first instant at or after t that is outside the
// quiet window containing t.
func quietHoursEnd(settings models.UserSettings, t time.Time) time.Time {
	end, err := parseClock(settings.QuietHoursEnd)
	if err != nil {
		return t
	}
	candidate := time.Date(t.Year(), t.Month(), t.Day(), end/60, end%60, 0, 0, t.Location())
	if !candidate.After(t) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// Reminder describes the caller's reminder schedule.
type Reminder struct {
	Enabled      bool      `json:"enabled"`
	InQuietHours bool      `json:"inQuietHours"`
	NextAt       time.Time `json:"nextAt,omitzero"`
}

// ReminderStatus reports whether the caller should be reminded now and when
// the next reminder is due given the last one sent.
func (s *Service) ReminderStatus(ctx context.Context, id auth.Identity, last time.Time) (Reminder, error) {
	settings, _, err := s.GetSettings(ctx, id)
	if err != nil {
		return Reminder{}, err
	}

	now := s.clock.Now()
	out := Reminder{InQuietHours: InQuietHours(settings, now)}
	if !last.IsZero() {
		last = last.In(s.clock.Location())
	}
	if next, ok := NextReminder(settings, last, now); ok {
		out.Enabled = true
		out.NextAt = next
	}
	return out, nil
}
