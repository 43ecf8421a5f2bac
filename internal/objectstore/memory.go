package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dr-go/internal/dr"
)

// MemoryStore is an in-memory implementation of dr.ObjectStore. Besides the
// object map it keeps an ordered log of every write, so tests can assert
// write ordering (safety snapshot before overwrite, manifest last).
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	writes  []string
	failing map[string]error
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		failing: make(map[string]error),
	}
}

// FailSavesTo makes Save return err for any path with the given prefix.
// Used by tests to simulate partial backup failures.
func (m *MemoryStore) FailSavesTo(prefix string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[prefix] = err
}

// Save stores data under path and appends path to the write log.
func (m *MemoryStore) Save(_ context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for prefix, err := range m.failing {
		if strings.HasPrefix(path, prefix) {
			return err
		}
	}

	m.objects[path] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	m.writes = append(m.writes, path)
	return nil
}

// Metadata returns the stored object's size and content type.
func (m *MemoryStore) Metadata(_ context.Context, path string) (dr.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[path]
	if !ok {
		return dr.ObjectInfo{}, fmt.Errorf("object not found: %s", path)
	}
	return dr.ObjectInfo{Path: path, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

// SignedURL fabricates a deterministic pseudo-URL carrying an expiry, so
// tests can check that URLs are regenerated per request.
func (m *MemoryStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[path]; !ok {
		return "", fmt.Errorf("object not found: %s", path)
	}
	return fmt.Sprintf("memory://%s?ttl=%s", path, ttl), nil
}

// Download returns a copy of the object content.
func (m *MemoryStore) Download(_ context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return append([]byte(nil), obj.data...), nil
}

// List returns all keys under prefix in lexical order.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Writes returns the paths of every Save call in order.
func (m *MemoryStore) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.writes...)
}

// Exists reports whether an object is stored at path.
func (m *MemoryStore) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok
}

// Compile-time check that MemoryStore implements dr.ObjectStore.
var _ dr.ObjectStore = (*MemoryStore)(nil)
