package hydration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/models"
)

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)

	settings, saved, err := f.svc.GetSettings(f.ctx, alice)
	require.NoError(t, err)
	require.False(t, saved)
	require.Equal(t, models.DefaultSettings("alice"), settings)
}

func TestSaveSettingsValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		mutate func(*models.UserSettings)
	}{
		{name: "goal too low", mutate: func(s *models.UserSettings) { s.DailyGoal = 499 }},
		{name: "goal too high", mutate: func(s *models.UserSettings) { s.DailyGoal = 10001 }},
		{name: "interval too short", mutate: func(s *models.UserSettings) { s.ReminderIntervalMinutes = 14 }},
		{name: "interval too long", mutate: func(s *models.UserSettings) { s.ReminderIntervalMinutes = 241 }},
		{name: "bad start", mutate: func(s *models.UserSettings) { s.QuietHoursStart = "25:00" }},
		{name: "bad end", mutate: func(s *models.UserSettings) { s.QuietHoursEnd = "7am" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := models.DefaultSettings("alice")
			tc.mutate(&s)
			_, err := f.svc.SaveSettings(f.ctx, alice, s)
			require.ErrorIs(t, err, apperr.ErrInvalidOperation)
		})
	}
}

func TestSaveSettingsUpserts(t *testing.T) {
	f := newFixture(t)

	in := models.DefaultSettings("someone-else")
	in.DailyGoal = 3000
	first, err := f.svc.SaveSettings(f.ctx, alice, in)
	require.NoError(t, err)
	require.Equal(t, "alice", first.UserID)
	require.NotEmpty(t, first.ID)

	in.DailyGoal = 2500
	second, err := f.svc.SaveSettings(f.ctx, alice, in)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	got, saved, err := f.svc.GetSettings(f.ctx, alice)
	require.NoError(t, err)
	require.True(t, saved)
	require.Equal(t, 2500, got.DailyGoal)
}

func TestRegisterForNotifications(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.RegisterForNotifications(f.ctx, alice)
	require.NoError(t, err)
	require.True(t, created.NotificationsEnabled)
	require.Equal(t, models.DefaultDailyGoal, created.DailyGoal)

	off := created
	off.NotificationsEnabled = false
	off.DailyGoal = 4000
	_, err = f.svc.SaveSettings(f.ctx, alice, off)
	require.NoError(t, err)

	enabled, err := f.svc.RegisterForNotifications(f.ctx, alice)
	require.NoError(t, err)
	require.True(t, enabled.NotificationsEnabled)
	require.Equal(t, 4000, enabled.DailyGoal)
}
