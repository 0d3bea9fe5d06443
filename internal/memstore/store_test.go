package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

func TestFriendshipsOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewFriendships()

	for _, owner := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, models.Friendship{ID: "edge-" + owner, UserID: owner, FriendUserID: "z", Status: models.FriendshipPending}))
	}
	require.ErrorIs(t, store.Create(ctx, models.Friendship{ID: "dup", UserID: "a", FriendUserID: "z"}), repositories.ErrConflict)

	incoming, err := store.ListByTarget(ctx, "z", models.FriendshipPending)
	require.NoError(t, err)
	require.Len(t, incoming, 3)
	require.Equal(t, "c", incoming[0].UserID)
	require.Equal(t, "a", incoming[2].UserID)

	require.NoError(t, store.UpdateStatus(ctx, "edge-b", models.FriendshipAccepted))
	owned, err := store.ListByOwner(ctx, "b", models.FriendshipAccepted)
	require.NoError(t, err)
	require.Len(t, owned, 1)

	require.ErrorIs(t, store.Delete(ctx, "missing"), repositories.ErrNotFound)
}

func TestIntakesRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewIntakes()
	base := time.Date(2024, time.May, 14, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"one", "two", "three"} {
		require.NoError(t, store.Create(ctx, models.WaterIntake{ID: id, UserID: "u", Amount: 100 * (i + 1), LoggedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	newest, err := store.List(ctx, models.IntakeQuery{UserID: "u", Newest: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	require.Equal(t, "three", newest[0].ID)

	ranged, err := store.List(ctx, models.IntakeQuery{UserID: "u", From: base.Add(time.Hour), To: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, "two", ranged[0].ID)

	ok, err := store.Exists(ctx, "u", base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProfilesUniqueFriendCode(t *testing.T) {
	ctx := context.Background()
	store := NewProfiles()

	require.NoError(t, store.Create(ctx, models.UserProfile{ID: "p1", UserID: "a", FriendCode: "AAAAAA"}))
	require.ErrorIs(t, store.Create(ctx, models.UserProfile{ID: "p2", UserID: "b", FriendCode: "AAAAAA"}), repositories.ErrConflict)
	require.ErrorIs(t, store.Create(ctx, models.UserProfile{ID: "p3", UserID: "a", FriendCode: "BBBBBB"}), repositories.ErrConflict)

	require.NoError(t, store.Update(ctx, models.UserProfile{ID: "p1", UserID: "a", DisplayName: "Ada", FriendCode: "CHANGED"}))
	got, err := store.FindByFriendCode(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Equal(t, "Ada", got.DisplayName)
}

func TestSettingsUpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	store := NewSettings()

	first, err := store.Upsert(ctx, models.UserSettings{ID: "s1", UserID: "u", DailyGoal: 2000})
	require.NoError(t, err)
	second, err := store.Upsert(ctx, models.UserSettings{ID: "s2", UserID: "u", DailyGoal: 2500})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 2500, second.DailyGoal)
}
