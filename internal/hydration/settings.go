package hydration

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

const (
	MinDailyGoal        = 500
	MaxDailyGoal        = 10000
	MinReminderInterval = 15
	MaxReminderInterval = 240
)

// GetSettings returns the caller's saved settings, or the defaults when none
// were saved. saved reports which one was returned.
func (s *Service) GetSettings(ctx context.Context, id auth.Identity) (settings models.UserSettings, saved bool, err error) {
	const op = "get settings"
	if err := id.Validate(op); err != nil {
		return models.UserSettings{}, false, err
	}

	stored, err := s.settings.FindByUserID(ctx, id.UserID)
	switch {
	case err == nil:
		return stored, true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return models.DefaultSettings(id.UserID), false, nil
	default:
		return models.UserSettings{}, false, apperr.Internal(op, err)
	}
}

// SaveSettings validates and stores the caller's settings.
func (s *Service) SaveSettings(ctx context.Context, id auth.Identity, in models.UserSettings) (models.UserSettings, error) {
	const op = "save settings"
	if err := id.Validate(op); err != nil {
		return models.UserSettings{}, err
	}

	if in.DailyGoal < MinDailyGoal || in.DailyGoal > MaxDailyGoal {
		return models.UserSettings{}, apperr.Newf(apperr.KindInvalidOperation, op,
			"daily goal must be between %d and %d", MinDailyGoal, MaxDailyGoal)
	}
	if in.ReminderIntervalMinutes < MinReminderInterval || in.ReminderIntervalMinutes > MaxReminderInterval {
		return models.UserSettings{}, apperr.Newf(apperr.KindInvalidOperation, op,
			"reminder interval must be between %d and %d minutes", MinReminderInterval, MaxReminderInterval)
	}
	if _, err := parseClock(in.QuietHoursStart); err != nil {
		return models.UserSettings{}, apperr.New(apperr.KindInvalidOperation, op, "quiet hours start must use the HH:mm format")
	}
	if _, err := parseClock(in.QuietHoursEnd); err != nil {
		return models.UserSettings{}, apperr.New(apperr.KindInvalidOperation, op, "quiet hours end must use the HH:mm format")
	}
	unit, err := normalizeUnit(op, in.GoalUnit)
	if err != nil {
		return models.UserSettings{}, err
	}

	in.UserID = id.UserID
	in.GoalUnit = unit
	in.UpdatedAt = s.clock.Now().UTC()
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	saved, err := s.settings.Upsert(ctx, in)
	if err != nil {
		return models.UserSettings{}, apperr.Internal(op, err)
	}
	return saved, nil
}

// RegisterForNotifications turns reminders on, creating default settings when
// the caller has none.
func (s *Service) RegisterForNotifications(ctx context.Context, id auth.Identity) (models.UserSettings, error) {
	const op = "register for notifications"
	current, saved, err := s.GetSettings(ctx, id)
	if err != nil {
		return models.UserSettings{}, err
	}
	if saved && current.NotificationsEnabled {
		return current, nil
	}

	current.NotificationsEnabled = true
	current.UpdatedAt = s.clock.Now().UTC()
	if current.ID == "" {
		current.ID = uuid.NewString()
	}
	out, err := s.settings.Upsert(ctx, current)
	if err != nil {
		return models.UserSettings{}, apperr.Internal(op, err)
	}
	logging.FromContext(ctx).Info("notifications enabled", slog.String("user_id", id.UserID))
	return out, nil
}

// parseClock parses an HH:mm wall-clock time into minutes after midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
