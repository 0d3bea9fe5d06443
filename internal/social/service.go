// Package social implements the friend graph and the aggregations built on it:
// streaks, leaderboards and the friend activity feed.
package social

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/sipstreak/backend/internal/apperr"
	"github.com/sipstreak/backend/internal/calendar"
	"github.com/sipstreak/backend/internal/models"
	"github.com/sipstreak/backend/internal/repositories"
)

const (
	defaultHistoryCap  = 1000
	defaultFanoutLimit = 8
	defaultCacheTTL    = time.Minute
)

// AvatarStore holds uploaded avatar images.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Repositories groups the persistence dependencies of the service.
type Repositories struct {
	Profiles    repositories.ProfileRepository
	Friendships repositories.FriendshipRepository
	Intakes     repositories.IntakeRepository
	Settings    repositories.SettingsRepository
}

// Options tunes the service. Zero values select defaults.
type Options struct {
	Clock           calendar.Clock
	Avatars         AvatarStore
	HistoryCap      int
	FanoutLimit     int
	ProfileCacheTTL time.Duration
}

// Service exposes the friend graph operations to the HTTP layer.
type Service struct {
	profiles    repositories.ProfileRepository
	friendships repositories.FriendshipRepository
	intakes     repositories.IntakeRepository
	settings    repositories.SettingsRepository
	avatars     AvatarStore

	clock       calendar.Clock
	historyCap  int
	fanoutLimit int

	directory *directory
	sanitizer *bluemonday.Policy

	newCode    func() (string, error)
	newBackOff func() backoff.BackOff
}

// NewService constructs a Service.
func NewService(repos Repositories, opts Options) *Service {
	if opts.HistoryCap <= 0 {
		opts.HistoryCap = defaultHistoryCap
	}
	if opts.FanoutLimit <= 0 {
		opts.FanoutLimit = defaultFanoutLimit
	}
	if opts.ProfileCacheTTL <= 0 {
		opts.ProfileCacheTTL = defaultCacheTTL
	}

	s := &Service{
		profiles:    repos.Profiles,
		friendships: repos.Friendships,
		intakes:     repos.Intakes,
		settings:    repos.Settings,
		avatars:     opts.Avatars,
		clock:       opts.Clock,
		historyCap:  opts.HistoryCap,
		fanoutLimit: opts.FanoutLimit,
		sanitizer:   bluemonday.StrictPolicy(),
		newCode:     GenerateFriendCode,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 2 * time.Second
			return backoff.WithMaxRetries(b, 4)
		},
	}
	s.directory = newDirectory(s.loadProfile, opts.ProfileCacheTTL)
	return s
}

// dailyGoal returns the user's saved goal or the default.
func (s *Service) dailyGoal(ctx context.Context, userID string) (int, string, error) {
	settings, err := s.settings.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.DefaultDailyGoal, models.DefaultUnit, nil
		}
		return 0, "", apperr.Internal("load settings", err)
	}
	goal, unit := settings.DailyGoal, settings.GoalUnit
	if goal <= 0 {
		goal = models.DefaultDailyGoal
	}
	if unit == "" {
		unit = models.DefaultUnit
	}
	return goal, unit, nil
}

// acceptedFriendIDs lists the distinct targets of the user's accepted outgoing edges.
func (s *Service) acceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	edges, err := s.friendships.ListByOwner(ctx, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, apperr.Internal("list friends", err)
	}

	seen := make(map[string]struct{}, len(edges))
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if edge.FriendUserID == userID {
			continue
		}
		if _, dup := seen[edge.FriendUserID]; dup {
			continue
		}
		seen[edge.FriendUserID] = struct{}{}
		ids = append(ids, edge.FriendUserID)
	}
	return ids, nil
}
