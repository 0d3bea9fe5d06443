package handlers

import (
	"context"
	"time"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/hydration"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/social"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, id auth.Identity) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// TokenVerifier resolves bearer tokens for protected routes.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// SocialService covers profiles, the friend graph and friend aggregates.
type SocialService interface {
	GetOrCreateProfile(ctx context.Context, id auth.Identity) (social.Profile, error)
	UpdateProfile(ctx context.Context, id auth.Identity, in social.UpdateProfileInput) (social.Profile, error)
	AddFriend(ctx context.Context, id auth.Identity, code string) (string, error)
	RespondToRequest(ctx context.Context, id auth.Identity, friendshipID string, accept bool) (string, error)
	RemoveFriend(ctx context.Context, id auth.Identity, friendshipID string) error
	ListFriendRequests(ctx context.Context, id auth.Identity) ([]social.FriendRequest, error)
	ListFriends(ctx context.Context, id auth.Identity) ([]social.Friend, error)
	Leaderboard(ctx context.Context, id auth.Identity) (social.Leaderboard, error)
	FriendActivity(ctx context.Context, id auth.Identity) ([]social.Activity, error)
}

// HydrationService covers the caller's own intake log and settings.
type HydrationService interface {
	LogIntake(ctx context.Context, id auth.Identity, in hydration.LogIntakeInput) (models.WaterIntake, error)
	TodayIntake(ctx context.Context, id auth.Identity) (hydration.DayIntakes, error)
	IntakeByDate(ctx context.Context, id auth.Identity, date string) (hydration.DayIntakes, error)
	History(ctx context.Context, id auth.Identity, start, end string) (hydration.History, error)
	UpdateIntake(ctx context.Context, id auth.Identity, in hydration.UpdateIntakeInput) (models.WaterIntake, error)
	DeleteIntake(ctx context.Context, id auth.Identity, intakeID string) error
	GetSettings(ctx context.Context, id auth.Identity) (models.UserSettings, bool, error)
	SaveSettings(ctx context.Context, id auth.Identity, in models.UserSettings) (models.UserSettings, error)
	RegisterForNotifications(ctx context.Context, id auth.Identity) (models.UserSettings, error)
	DailySummary(ctx context.Context, id auth.Identity) (hydration.Summary, error)
	ReminderStatus(ctx context.Context, id auth.Identity, last time.Time) (hydration.Reminder, error)
}
