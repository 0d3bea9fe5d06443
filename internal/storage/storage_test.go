package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sipstreak/backend/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://localhost:8080/files/")

	if err := store.Put(ctx, "/photos/u1/a.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("put: %v", err)
	}
	obj, ok := store.Get("photos/u1/a.jpg")
	if !ok || string(obj.Body) != "jpeg" || obj.ContentType != "image/jpeg" {
		t.Fatalf("unexpected object %+v (found=%v)", obj, ok)
	}

	url, err := store.URL(ctx, "photos/u1/a.jpg")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if url != "http://localhost:8080/files/photos/u1/a.jpg" {
		t.Fatalf("unexpected url %q", url)
	}

	if err := store.Delete(ctx, "photos/u1/a.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.URL(ctx, "photos/u1/a.jpg"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if err := store.Put(ctx, "", "image/jpeg", nil); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

type recordingDeleter struct {
	mu      sync.Mutex
	keys    []string
	err     error
	release chan struct{}
}

func (d *recordingDeleter) Delete(ctx context.Context, key string) error {
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, key)
	return d.err
}

func (d *recordingDeleter) deleted() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.keys...)
}

func TestJanitorDrainsQueueOnShutdown(t *testing.T) {
	deleter := &recordingDeleter{}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 8, Workers: 2}, discardLogger())

	for _, key := range []string{"a", "b", "c"} {
		if !janitor.Enqueue(key) {
			t.Fatalf("enqueue %s rejected", key)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if got := deleter.deleted(); len(got) != 3 {
		t.Fatalf("expected 3 deletions, got %v", got)
	}
	if janitor.Enqueue("late") {
		t.Fatal("expected enqueue after shutdown to be rejected")
	}
}

func TestJanitorRejectsWhenQueueFull(t *testing.T) {
	deleter := &recordingDeleter{release: make(chan struct{})}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 1, Workers: 1}, discardLogger())

	accepted := 0
	for i := 0; i < 4; i++ {
		if janitor.Enqueue("key") {
			accepted++
		}
	}
	// One job may be held by the worker and one by the queue.
	if accepted < 1 || accepted > 2 {
		t.Fatalf("expected 1 or 2 accepted jobs, got %d", accepted)
	}

	close(deleter.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := len(deleter.deleted()); got != accepted {
		t.Fatalf("expected %d deletions, got %d", accepted, got)
	}
}

func TestJanitorKeepsGoingAfterFailures(t *testing.T) {
	deleter := &recordingDeleter{err: errors.New("bucket offline")}
	janitor := NewJanitor(deleter, JanitorConfig{QueueSize: 4, Workers: 1}, discardLogger())

	var failures int
	var mu sync.Mutex
	janitor.done = func(_ string, err error) {
		if err != nil {
			mu.Lock()
			failures++
			mu.Unlock()
		}
	}

	janitor.Enqueue("a")
	janitor.Enqueue("b")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := janitor.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if failures != 2 {
		t.Fatalf("expected 2 failures, got %d", failures)
	}
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), config.ObjectStoreConfig{}); err == nil {
		t.Fatal("expected missing bucket to fail")
	}
}

func TestS3StoreURLs(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	ctx := context.Background()
	public, err := NewS3Store(ctx, config.ObjectStoreConfig{
		Bucket:        "sipstreak",
		Region:        "us-east-1",
		Endpoint:      "http://localhost:9000",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := public.URL(ctx, "/photos/u1/a.jpg")
	if err != nil {
		t.Fatalf("public url: %v", err)
	}
	if url != "https://cdn.example.com/photos/u1/a.jpg" {
		t.Fatalf("unexpected public url %q", url)
	}

	private, err := NewS3Store(ctx, config.ObjectStoreConfig{
		Bucket:     "sipstreak",
		Region:     "us-east-1",
		Endpoint:   "http://localhost:9000",
		PresignTTL: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err = private.URL(ctx, "photos/u1/a.jpg")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:9000/sipstreak/photos/u1/a.jpg?") || !strings.Contains(url, "X-Amz-Signature=") {
		t.Fatalf("unexpected presigned url %q", url)
	}

	if _, err := private.URL(ctx, "  "); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

func TestMemoryStoreServesObjects(t *testing.T) {
	store := NewMemoryStore("/files")
	if err := store.Put(context.Background(), "photos/u1/a.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("put: %v", err)
	}

	rec := httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/photos/u1/a.jpg", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("unexpected content type %q", got)
	}

	rec = httptest.NewRecorder()
	store.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/photos/u1/missing.jpg", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
