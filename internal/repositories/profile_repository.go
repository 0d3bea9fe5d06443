package repositories

import (
	"context"

	"github.com/sipstreak/backend/internal/models"
)

// ProfileRepository defines data access for user profiles. Create returns
// ErrConflict when either the owning user or the friend code is already taken.
type ProfileRepository interface {
	Create(ctx context.Context, profile models.UserProfile) error
	FindByUserID(ctx context.Context, userID string) (models.UserProfile, error)
	FindByFriendCode(ctx context.Context, code string) (models.UserProfile, error)
	Update(ctx context.Context, profile models.UserProfile) error
}
