package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrObjectNotFound is returned by MemoryStore for keys it does not hold.
var ErrObjectNotFound = errors.New("object not found")

// MemoryStore is a process-local object store used when no bucket is
// configured.
type MemoryStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// Object is a stored blob and its content type.
type Object struct {
	ContentType string
	Body        []byte
}

// NewMemoryStore returns an empty store whose URLs are rooted at baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, body []byte) error {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return errors.New("memory storage: empty key")
	}
	copied := make([]byte, len(body))
	copy(copied, body)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Body: copied}
	return nil
}

func (m *MemoryStore) URL(_ context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}
	return m.baseURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, strings.TrimLeft(key, "/"))
	return nil
}

// Get returns the object stored under key.
func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[strings.TrimLeft(key, "/")]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ServeHTTP serves stored objects under the path that follows the store's
// base URL, so the process can host its own photos in development.
func (m *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	prefix := m.baseURL
	if u, err := url.Parse(m.baseURL); err == nil {
		prefix = u.Path
	}
	obj, ok := m.Get(strings.TrimPrefix(r.URL.Path, prefix))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(obj.Body))
}
