package social

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/calendar"
	"github.com/sipstreak/backend/internal/memstore"
	"github.com/sipstreak/backend/internal/models"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	svc      *Service
	now      time.Time
	profiles *memstore.Profiles
	friends  *memstore.Friendships
	intakes  *memstore.Intakes
	settings *memstore.Settings
	seq      int
}

// Wednesday afternoon.
var fixtureNow = time.Date(2024, time.May, 15, 18, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, fixtureNow)
}

func newFixtureAt(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		now:      now,
		profiles: memstore.NewProfiles(),
		friends:  memstore.NewFriendships(),
		intakes:  memstore.NewIntakes(),
		settings: memstore.NewSettings(),
	}
	f.svc = NewService(Repositories{
		Profiles:    f.profiles,
		Friendships: f.friends,
		Intakes:     f.intakes,
		Settings:    f.settings,
	}, Options{Clock: calendar.Fixed(now), FanoutLimit: 4})
	f.svc.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return f
}

func ident(userID string) auth.Identity {
	return auth.Identity{UserID: userID, Email: userID + "@example.com", Name: userID}
}

// profile creates a profile for userID and returns its friend code.
func (f *fixture) profile(userID string) string {
	f.t.Helper()
	p, err := f.svc.GetOrCreateProfile(f.ctx, ident(userID))
	require.NoError(f.t, err)
	return p.FriendCode
}

// befriend makes a and b accepted friends.
func (f *fixture) befriend(a, b string) {
	f.t.Helper()
	codeB := f.profile(b)
	codeA := f.profile(a)
	status, err := f.svc.AddFriend(f.ctx, ident(a), codeB)
	require.NoError(f.t, err)
	require.Equal(f.t, StatusPending, status)
	status, err = f.svc.AddFriend(f.ctx, ident(b), codeA)
	require.NoError(f.t, err)
	require.Equal(f.t, StatusAccepted, status)
}

func (f *fixture) log(userID string, amount int, at time.Time) {
	f.t.Helper()
	f.seq++
	require.NoError(f.t, f.intakes.Create(f.ctx, models.WaterIntake{
		ID:        fmt.Sprintf("intake-%03d", f.seq),
		UserID:    userID,
		Amount:    amount,
		Unit:      "ml",
		LoggedAt:  at,
		CreatedAt: at,
	}))
}

// day returns midnight n days before the fixture's today.
func (f *fixture) day(n int) time.Time {
	y, m, d := f.now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, f.now.Location()).AddDate(0, 0, -n)
}

func (f *fixture) edge(owner, target string) (models.Friendship, bool) {
	e, err := f.friends.FindEdge(f.ctx, owner, target)
	return e, err == nil
}

// requireGraphConsistent checks that accepted pairs have both rows and pending
// requests have exactly one.
func (f *fixture) requireGraphConsistent(a, b string) {
	f.t.Helper()
	ab, hasAB := f.edge(a, b)
	ba, hasBA := f.edge(b, a)

	switch {
	case hasAB && ab.Status == models.FriendshipAccepted:
		require.True(f.t, hasBA, "accepted %s->%s has no mirror", a, b)
		require.Equal(f.t, models.FriendshipAccepted, ba.Status)
	case hasBA && ba.Status == models.FriendshipAccepted:
		require.True(f.t, hasAB, "accepted %s->%s has no mirror", b, a)
		require.Equal(f.t, models.FriendshipAccepted, ab.Status)
	case hasAB:
		require.False(f.t, hasBA, "pending %s->%s coexists with a reverse row", a, b)
	case hasBA:
		require.False(f.t, hasAB, "pending %s->%s coexists with a reverse row", b, a)
	}
}
