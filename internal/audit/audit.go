package audit

import "time"

// Record is one entry in the operation audit log: who ran which
// disaster-recovery operation, when, and how it ended. Records exist so
// partial runs (a backup that failed mid-sequence, a restore that stopped
// after its safety snapshot) are visible to an operator.
type Record struct {
	ID         string
	Operation  string // "backupNow", "restoreFromBackup", "restoreFromJson", "purgeAnonymousUsers"
	Parameters string
	Actor      string
	Status     string // "running", "success" or "error"
	StartedAt  time.Time
	FinishedAt time.Time // zero until Finish
}

// Log stores operation records. Implementations must tolerate concurrent
// use from multiple requests.
type Log interface {
	// Begin inserts a record with status "running".
	Begin(rec *Record) error

	// Finish sets the record's terminal status and finish time.
	Finish(id string, status string, finishedAt time.Time) error

	// Recent returns up to limit records, newest first.
	Recent(limit int) ([]*Record, error)

	// Close releases the underlying storage.
	Close() error
}
