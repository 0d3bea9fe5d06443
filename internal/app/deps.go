package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/calendar"
	"github.com/sipstreak/backend/internal/config"
	"github.com/sipstreak/backend/internal/db"
	"github.com/sipstreak/backend/internal/handlers"
	"github.com/sipstreak/backend/internal/hydration"
	"github.com/sipstreak/backend/internal/memstore"
	"github.com/sipstreak/backend/internal/middleware"
	"github.com/sipstreak/backend/internal/repositories"
	"github.com/sipstreak/backend/internal/social"
	"github.com/sipstreak/backend/internal/storage"
)

// memoryFilesPath is where the in-process object store is served when no
// bucket is configured.
const memoryFilesPath = "/files"

type objectStore interface {
	social.AvatarStore
	hydration.PhotoStore
}

type repositorySet struct {
	users       handlers.UserStore
	sessions    auth.SessionStore
	profiles    repositories.ProfileRepository
	friendships repositories.FriendshipRepository
	intakes     repositories.IntakeRepository
	settings    repositories.SettingsRepository
	health      func(context.Context) error
}

type built struct {
	deps handlers.Dependencies
	// sessions purges expired refresh tokens in the background.
	sessions *auth.Manager
	// files serves the in-process object store; nil when a bucket is used.
	files http.Handler
}

// buildDependencies wires the PostgreSQL-backed implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, reg prometheus.Registerer, logger *slog.Logger) (*built, func(context.Context) error, error) {
	return assemble(ctx, repositorySet{
		users:       repositories.NewPostgresUserRepository(pool),
		sessions:    repositories.NewPostgresSessionStore(pool),
		profiles:    repositories.NewPostgresProfileRepository(pool),
		friendships: repositories.NewPostgresFriendRepository(pool),
		intakes:     repositories.NewPostgresIntakeRepository(pool),
		settings:    repositories.NewPostgresSettingsRepository(pool),
		health:      func(ctx context.Context) error { return db.Ping(ctx, pool) },
	}, cfg, reg, logger)
}

// buildMemoryDependencies wires process-local stores for demos and local development.
func buildMemoryDependencies(ctx context.Context, cfg config.Config, reg prometheus.Registerer, logger *slog.Logger) (*built, func(context.Context) error, error) {
	return assemble(ctx, repositorySet{
		users:       memstore.NewUsers(),
		sessions:    auth.NewInMemorySessionStore(),
		profiles:    memstore.NewProfiles(),
		friendships: memstore.NewFriendships(),
		intakes:     memstore.NewIntakes(),
		settings:    memstore.NewSettings(),
	}, cfg, reg, logger)
}

func assemble(ctx context.Context, repos repositorySet, cfg config.Config, reg prometheus.Registerer, logger *slog.Logger) (*built, func(context.Context) error, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve timezone: %w", err)
	}
	clock := calendar.NewClock(nil, loc)

	out := &built{}
	var objects objectStore
	if cfg.ObjectStore.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, nil, err
		}
		objects = s3Store
	} else {
		memory := storage.NewMemoryStore(memoryFilesPath)
		objects = memory
		out.files = memory
	}

	janitor := storage.NewJanitor(objects, storage.JanitorConfig{
		QueueSize: cfg.PhotoCleanupQueue,
		Workers:   cfg.PhotoCleanupWorkers,
	}, logger)

	manager := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL, repos.sessions)

	out.sessions = manager
	out.deps = handlers.Dependencies{
		Users:    repos.users,
		Sessions: manager,
		Tokens:   manager,
		Social: social.NewService(social.Repositories{
			Profiles:    repos.profiles,
			Friendships: repos.friendships,
			Intakes:     repos.intakes,
			Settings:    repos.settings,
		}, social.Options{
			Clock:           clock,
			Avatars:         objects,
			HistoryCap:      cfg.LeaderboardHistoryCap,
			FanoutLimit:     cfg.FanoutLimit,
			ProfileCacheTTL: cfg.ProfileCacheTTL,
		}),
		Hydration: hydration.NewService(repos.intakes, repos.settings, objects, janitor, clock),
		Limiter:   middleware.NewRateLimiter(cfg.RateLimit, 0),
		Metrics:   middleware.NewMetrics(reg),
		Health:    handlers.HealthHandler{Check: repos.health},
	}

	return out, janitor.Shutdown, nil
}
