package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDirectoryCachesHitsNotMisses(t *testing.T) {
	calls := map[string]int{}
	known := map[string]*Profile{"alice": {}}
	d := newDirectory(func(_ context.Context, userID string) (*Profile, error) {
		calls[userID]++
		return known[userID], nil
	}, time.Minute)
	ctx := context.Background()

	for range 3 {
		p, err := d.Lookup(ctx, "alice")
		require.NoError(t, err)
		require.Same(t, known["alice"], p)
	}
	require.Equal(t, 1, calls["alice"])

	for range 2 {
		p, err := d.Lookup(ctx, "bob")
		require.NoError(t, err)
		require.Nil(t, p)
	}
	require.Equal(t, 2, calls["bob"])

	d.Invalidate("alice")
	_, err := d.Lookup(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, calls["alice"])
}

func TestDirectoryPropagatesLoadErrors(t *testing.T) {
	boom := errors.New("boom")
	d := newDirectory(func(context.Context, string) (*Profile, error) { return nil, boom }, 0)

	p, err := d.Lookup(context.Background(), "alice")
	require.ErrorIs(t, err, boom)
	require.Nil(t, p)
}
