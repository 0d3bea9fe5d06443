package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:             "test-secret",
		AccessTTL:             time.Minute,
		RefreshTTL:            time.Hour,
		Timezone:              "UTC",
		LeaderboardHistoryCap: 100,
		FanoutLimit:           2,
		PhotoCleanupWorkers:   1,
		PhotoCleanupQueue:     4,
		RateLimit:             config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shutdown(t *testing.T, cleanup func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cleanup(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	wired, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, prometheus.NewRegistry(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer shutdown(t, cleanup)

	deps := wired.deps
	if deps.Users == nil || deps.Sessions == nil || deps.Tokens == nil {
		t.Fatal("expected auth collaborators to be configured")
	}
	if deps.Social == nil || deps.Hydration == nil {
		t.Fatal("expected services to be configured")
	}
	if deps.Limiter == nil || deps.Metrics == nil {
		t.Fatal("expected limiter and metrics to be configured")
	}
	if deps.Health.Check == nil {
		t.Fatal("expected database health check")
	}
	if err := deps.Health.Check(context.Background()); err == nil {
		t.Fatal("expected health check to surface pool errors")
	}
	if wired.files != nil {
		t.Fatal("expected no local file server when a bucket is configured")
	}
}

func TestBuildDependenciesRejectsBadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus"

	if _, _, err := buildMemoryDependencies(context.Background(), cfg, prometheus.NewRegistry(), discardLogger()); err == nil {
		t.Fatal("expected invalid timezone to fail")
	}
}

func TestInMemoryServerSmoke(t *testing.T) {
	wired, cleanup, err := buildMemoryDependencies(context.Background(), testConfig(), prometheus.NewRegistry(), discardLogger())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer shutdown(t, cleanup)

	if wired.files == nil {
		t.Fatal("expected in-memory file server")
	}

	rec := httptest.NewRecorder()
	wired.deps.Health.Handle(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthy in-memory server, got %d", rec.Code)
	}
}

func TestSessionSweepStopsWithoutParentCancel(t *testing.T) {
	manager := auth.NewManager([]byte("secret"), time.Minute, time.Hour, auth.NewInMemorySessionStore())
	stop := startSessionSweep(context.Background(), manager, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("session sweep kept running after stop")
	}
}

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0] != "0001_a.sql" || got[1] != "0002_b.sql" {
		t.Fatalf("unexpected migrations %v", got)
	}
}

func TestSeedFileName(t *testing.T) {
	if got := seedFileName("dev"); got != "dev_seed.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
	if got := seedFileName("custom.sql"); got != "custom.sql" {
		t.Fatalf("unexpected seed file %q", got)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: errors.New("syntax error"), want: false},
		{err: context.DeadlineExceeded, want: true},
	}
	for _, tc := range cases {
		if got := shouldRetryMigration(tc.err); got != tc.want {
			t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRootCommandRejectsUnknownMigrateArgs(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"migrate", "down"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected unsupported migrate argument to fail")
	}
}
