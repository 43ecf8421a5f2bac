package dr

import (
	"context"
	"time"
)

// UserRecord is one identity-provider account, read-only to this service.
// An account with no linked providers is anonymous.
type UserRecord struct {
	UID          string
	ProviderIDs  []string
	CreatedAt    time.Time
	LastSignInAt time.Time
}

// Anonymous reports whether the record has no linked provider entries.
func (u UserRecord) Anonymous() bool { return len(u.ProviderIDs) == 0 }

// IdentityProvider lists and deletes accounts in the external identity
// system. Listing is a lazy, finite, non-restartable page sequence: pass the
// token from the previous page, an empty next token means exhaustion.
type IdentityProvider interface {
	// ListUsers returns up to pageSize records and the continuation token
	// for the next page ("" when there are no more pages).
	ListUsers(ctx context.Context, pageSize int, pageToken string) ([]UserRecord, string, error)

	// DeleteUser removes a single account.
	DeleteUser(ctx context.Context, uid string) error

	// DeleteUsers removes accounts in one batch call and reports how many
	// succeeded and how many failed. A non-nil error means the batch itself
	// could not be issued.
	DeleteUsers(ctx context.Context, uids []string) (deleted, failed int, err error)
}
