package identity

import (
	"context"
	"fmt"
	"sync"

	"dr-go/internal/dr"
)

// MemoryProvider is an in-memory dr.IdentityProvider for tests. Records are
// served in insertion order with real pagination, and individual uids can be
// scripted to fail deletion.
type MemoryProvider struct {
	mu          sync.Mutex
	records     []dr.UserRecord
	failDeletes map[string]error
	failPages   map[int]error // page index (0-based) -> error
	batchCalls  [][]string
}

// NewMemoryProvider creates a provider holding the given records.
func NewMemoryProvider(records ...dr.UserRecord) *MemoryProvider {
	return &MemoryProvider{
		records:     records,
		failDeletes: make(map[string]error),
		failPages:   make(map[int]error),
	}
}

// Add appends records to the provider.
func (m *MemoryProvider) Add(records ...dr.UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// FailDelete makes deletion of uid fail with err (single and batch).
func (m *MemoryProvider) FailDelete(uid string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDeletes[uid] = err
}

// FailPage makes the nth listing page (0-based) fail with err.
func (m *MemoryProvider) FailPage(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPages[n] = err
}

// ListUsers serves records page by page. The continuation token is the
// stringified offset of the next page.
func (m *MemoryProvider) ListUsers(_ context.Context, pageSize int, pageToken string) ([]dr.UserRecord, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := 0
	if pageToken != "" {
		if _, err := fmt.Sscanf(pageToken, "%d", &offset); err != nil {
			return nil, "", fmt.Errorf("bad page token %q", pageToken)
		}
	}
	if err, ok := m.failPages[offset/max(pageSize, 1)]; ok {
		return nil, "", err
	}
	if offset >= len(m.records) {
		return nil, "", nil
	}

	end := offset + pageSize
	if end > len(m.records) {
		end = len(m.records)
	}
	page := append([]dr.UserRecord(nil), m.records[offset:end]...)

	next := ""
	if end < len(m.records) {
		next = fmt.Sprintf("%d", end)
	}
	return page, next, nil
}

// DeleteUser removes the record with the given uid.
func (m *MemoryProvider) DeleteUser(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(uid)
}

// DeleteUsers removes records one by one, counting outcomes like a real
// batch endpoint would.
func (m *MemoryProvider) DeleteUsers(_ context.Context, uids []string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchCalls = append(m.batchCalls, append([]string(nil), uids...))
	deleted, failed := 0, 0
	for _, uid := range uids {
		if err := m.deleteLocked(uid); err != nil {
			failed++
		} else {
			deleted++
		}
	}
	return deleted, failed, nil
}

func (m *MemoryProvider) deleteLocked(uid string) error {
	if err, ok := m.failDeletes[uid]; ok {
		return err
	}
	for i, r := range m.records {
		if r.UID == uid {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("account not found: %s", uid)
}

// Remaining returns the uids still present, in order.
func (m *MemoryProvider) Remaining() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	uids := make([]string, 0, len(m.records))
	for _, r := range m.records {
		uids = append(uids, r.UID)
	}
	return uids
}

// BatchCalls returns the uid slices passed to DeleteUsers, in order.
func (m *MemoryProvider) BatchCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.batchCalls...)
}

// Compile-time check that MemoryProvider implements dr.IdentityProvider.
var _ dr.IdentityProvider = (*MemoryProvider)(nil)
