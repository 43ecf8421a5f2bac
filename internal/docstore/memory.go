package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"dr-go/internal/dr"
)

// MemoryStore is an in-memory dr.DocumentStore for tests. The tree is kept
// as decoded JSON; SetTree counts overwrites so tests can assert that a
// failed restore mutated nothing.
type MemoryStore struct {
	mu         sync.RWMutex
	tree       any
	overwrites int
	failReads  error
	failWrites error
}

// NewMemoryStore creates a document store holding the given initial tree.
func NewMemoryStore(tree any) *MemoryStore {
	return &MemoryStore{tree: tree}
}

// FailReads makes Tree return err. FailWrites does the same for SetTree.
func (m *MemoryStore) FailReads(err error)  { m.mu.Lock(); m.failReads = err; m.mu.Unlock() }
func (m *MemoryStore) FailWrites(err error) { m.mu.Lock(); m.failWrites = err; m.mu.Unlock() }

func (m *MemoryStore) Tree(context.Context) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failReads != nil {
		return nil, m.failReads
	}
	return m.tree, nil
}

func (m *MemoryStore) SetTree(_ context.Context, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	m.tree = v
	m.overwrites++
	return nil
}

// Overwrites returns how many times SetTree succeeded.
func (m *MemoryStore) Overwrites() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overwrites
}

// JSON returns the current tree serialized compactly, for comparisons.
func (m *MemoryStore) JSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := json.Marshal(m.tree)
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return string(b)
}

// Compile-time check that MemoryStore implements dr.DocumentStore.
var _ dr.DocumentStore = (*MemoryStore)(nil)
