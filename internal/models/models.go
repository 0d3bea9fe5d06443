package models

import (
	"math"
	"time"
)

// User represents an account within the SipStreak platform.
type User struct {
	ID        string
	Email     string
	Name      string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile is the public face of a user: display name, avatar and friend code.
type UserProfile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email"`
	AvatarFileID string    `json:"avatarFileId,omitempty"`
	FriendCode   string    `json:"friendCode"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FriendshipStatus is the lifecycle state of a directed friendship edge.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed edge from UserID (the owner) to FriendUserID.
// An accepted relationship is stored as two rows, one per direction.
type Friendship struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	FriendUserID string           `json:"friendUserId"`
	Status       FriendshipStatus `json:"status"`
	FriendName   string           `json:"friendName,omitempty"`
	FriendEmail  string           `json:"friendEmail,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// WaterIntake records a single logged drink.
type WaterIntake struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Amount      int       `json:"amount"`
	Unit        string    `json:"unit"`
	LoggedAt    time.Time `json:"loggedAt"`
	PhotoFileID string    `json:"photoFileId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IntakeQuery filters water intake listings. Zero values disable a filter.
type IntakeQuery struct {
	UserID string
	// From is inclusive, To is exclusive.
	From   time.Time
	To     time.Time
	Newest bool
	Limit  int
}

// UserSettings holds per-user goal and reminder preferences.
type UserSettings struct {
	ID                      string    `json:"id,omitempty"`
	UserID                  string    `json:"userId"`
	DailyGoal               int       `json:"dailyGoal"`
	GoalUnit                string    `json:"goalUnit"`
	NotificationsEnabled    bool      `json:"notificationsEnabled"`
	ReminderIntervalMinutes int       `json:"reminderIntervalMinutes"`
	QuietHoursEnabled       bool      `json:"quietHoursEnabled"`
	QuietHoursStart         string    `json:"quietHoursStart"`
	QuietHoursEnd           string    `json:"quietHoursEnd"`
	UpdatedAt               time.Time `json:"updatedAt,omitempty"`
}

const (
	DefaultDailyGoal      = 2000
	DefaultUnit           = "ml"
	DefaultReminderMins   = 60
	DefaultQuietHourStart = "22:00"
	DefaultQuietHourEnd   = "07:00"
)

// DefaultSettings returns the settings that apply when a user has never saved any.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:                  userID,
		DailyGoal:               DefaultDailyGoal,
		GoalUnit:                DefaultUnit,
		NotificationsEnabled:    true,
		ReminderIntervalMinutes: DefaultReminderMins,
		QuietHoursEnabled:       true,
		QuietHoursStart:         DefaultQuietHourStart,
		QuietHoursEnd:           DefaultQuietHourEnd,
	}
}

// GoalPercentage returns total as a rounded percentage of goal, clamped to
// [0, 100]. A non-positive goal falls back to DefaultDailyGoal.
func GoalPercentage(total, goal int) int {
	if goal <= 0 {
		goal = DefaultDailyGoal
	}
	pct := int(math.Round(float64(total) / float64(goal) * 100))
	return max(0, min(100, pct))
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
