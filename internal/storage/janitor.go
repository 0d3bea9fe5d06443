package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Deleter removes objects by key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single deletion.
	Timeout time.Duration
}

// Janitor deletes objects in the background with a bounded worker pool.
type Janitor struct {
	store   Deleter
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
	once   sync.Once

	// done is called after every job; tests use it to observe progress.
	done func(key string, err error)
}

// NewJanitor starts the worker pool.
func NewJanitor(store Deleter, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		store:   store,
		logger:  logger,
		timeout: cfg.Timeout,
		jobs:    make(chan string, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}
	return j
}

// Enqueue schedules deletion of key without blocking. It reports false when
// the queue is full or the janitor has shut down.
func (j *Janitor) Enqueue(key string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return false
	}

	select {
	case j.jobs <- key:
		return true
	default:
		j.logger.Warn("photo cleanup queue full", slog.String("key", key))
		return false
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.jobs)
		j.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()
	for key := range j.jobs {
		j.handle(key)
	}
}

func (j *Janitor) handle(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	err := j.store.Delete(ctx, key)
	if err != nil {
		j.logger.Error("photo cleanup failed", slog.String("key", key), slog.Any("error", err))
	} else {
		j.logger.Debug("photo removed", slog.String("key", key))
	}
	if j.done != nil {
		j.done(key, err)
	}
}
