package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sipstreak/backend/internal/auth"
	"github.com/sipstreak/backend/internal/config"
	"github.com/sipstreak/backend/internal/db"
	"github.com/sipstreak/backend/internal/handlers"
	"github.com/sipstreak/backend/internal/httpserver"
	"github.com/sipstreak/backend/internal/logging"
	"github.com/sipstreak/backend/internal/middleware"
)

func newServeCommand() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep all data in process memory instead of PostgreSQL")
	return cmd
}

func serve(ctx context.Context, inMemory bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		wired   *built
		cleanup func(context.Context) error
	)
	if inMemory {
		logger.Warn("serving from in-memory storage; data is lost on exit")
		wired, cleanup, err = buildMemoryDependencies(ctx, cfg, registry, logger)
	} else {
		pool, connErr := db.Connect(ctx, cfg.DatabaseURL)
		if connErr != nil {
			return connErr
		}
		defer pool.Close()
		wired, cleanup, err = buildDependencies(ctx, pool, cfg, registry, logger)
	}
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, wired.deps)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	if wired.files != nil {
		mux.Handle(memoryFilesPath+"/", wired.files)
	}

	stopSweep := startSessionSweep(ctx, wired.sessions, cfg.SessionSweepInterval)
	defer stopSweep()

	srv := httpserver.New(cfg.AppPort, middleware.RequestLogger(logger)(mux))
	logger.Info("starting http server", "port", cfg.AppPort, "in_memory", inMemory, "timezone", cfg.Timezone)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down", "cause", context.Cause(ctx))
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpserver.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := cleanup(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// startSessionSweep purges expired sessions in the background. The returned
// func stops the sweep and waits for it to exit; it must run on every return
// path of serve, including a failed listener.
func startSessionSweep(ctx context.Context, sessions *auth.Manager, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sessions.SweepExpired(ctx, interval)
	}()
	return func() {
		cancel()
		<-done
	}
}
