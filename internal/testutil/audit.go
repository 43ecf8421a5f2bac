package testutil

import (
	"testing"

	"dr-go/internal/audit"
)

// NewTestAuditLog creates an in-memory SQLite audit log with migrations
// applied. The log is automatically closed when the test completes.
func NewTestAuditLog(t *testing.T) *audit.SQLiteLog {
	t.Helper()

	log, err := audit.NewSQLiteLog(":memory:")
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}

	t.Cleanup(func() {
		log.Close()
	})

	return log
}
