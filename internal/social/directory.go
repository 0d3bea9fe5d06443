package social

import (
	"context"
	"time"

	ttlcache "github.com/patrickmn/go-cache"
)

// directory is a TTL cache of enriched profiles keyed by user id. Misses are
// not cached so a profile created after a lookup shows up immediately.
type directory struct {
	load  func(ctx context.Context, userID string) (*Profile, error)
	cache *ttlcache.Cache
}

func newDirectory(load func(ctx context.Context, userID string) (*Profile, error), ttl time.Duration) *directory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &directory{
		load:  load,
		cache: ttlcache.New(ttl, 2*ttl),
	}
}

// Lookup returns the cached profile when fresh, otherwise loads and stores it.
// A nil profile with a nil error means the user has no profile.
func (d *directory) Lookup(ctx context.Context, userID string) (*Profile, error) {
	if cached, ok := d.cache.Get(userID); ok {
		return cached.(*Profile), nil
	}

	profile, err := d.load(ctx, userID)
	if err != nil || profile == nil {
		return nil, err
	}
	d.cache.Set(userID, profile, ttlcache.DefaultExpiration)
	return profile, nil
}

// Invalidate drops the cached entry for userID.
func (d *directory) Invalidate(userID string) {
	d.cache.Delete(userID)
}
