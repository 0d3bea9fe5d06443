package repositories

import (
	"context"

	"github.com/sipstreak/backend/internal/models"
)

// FriendshipRepository defines data access for directed friendship edges.
// Create returns ErrConflict when an edge with the same owner and target exists.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship models.Friendship) error
	Get(ctx context.Context, id string) (models.Friendship, error)
	FindEdge(ctx context.Context, userID, friendUserID string) (models.Friendship, error)
	UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error)
	ListByTarget(ctx context.Context, friendUserID string, status models.FriendshipStatus) ([]models.Friendship, error)
}
