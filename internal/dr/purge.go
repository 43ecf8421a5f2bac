package dr

import (
	"context"
	"math"
	"time"
)

const (
	// identityPageSize is how many records one listing page requests.
	identityPageSize = 1000
	// deleteBatchMax caps one batch deletion call in the batched variant.
	deleteBatchMax = 100
)

// PurgeResult aggregates counts over one full identity scan. Every record is
// scanned before the operation returns.
type PurgeResult struct {
	OlderThanDays float64 `json:"olderThanDays"`
	Scanned       int     `json:"scanned"`
	Candidates    int     `json:"candidates"`
	Deleted       int     `json:"deleted"`
	Kept          int     `json:"kept"`
	Failed        int     `json:"failed"`
}

// PurgeAnonymousUsers deletes anonymous identity-provider accounts created
// strictly more than maxAgeDays ago, one at a time. A record with any linked
// provider entry is never deleted regardless of age, and a record exactly at
// the cutoff is kept. Per-record deletion failures are counted, never
// raised; a page-read failure propagates immediately.
func (s *DRService) PurgeAnonymousUsers(ctx context.Context, actor string, maxAgeDays float64) (*PurgeResult, error) {
	return s.purge(ctx, actor, maxAgeDays, false)
}

// PurgeAnonymousUsersBatched is the variant behind the shared-secret HTTP
// endpoint: eligibility uses the later of creation and last-sign-in time,
// and deletions are issued in batches of up to deleteBatchMax.
func (s *DRService) PurgeAnonymousUsersBatched(ctx context.Context, actor string, maxAgeDays float64) (*PurgeResult, error) {
	return s.purge(ctx, actor, maxAgeDays, true)
}

func (s *DRService) purge(ctx context.Context, actor string, maxAgeDays float64, batched bool) (*PurgeResult, error) {
	if maxAgeDays < 0 || math.IsNaN(maxAgeDays) || math.IsInf(maxAgeDays, 0) {
		return nil, Errorf(KindInvalidArgument, "olderThanDays must be a non-negative number")
	}

	cutoff := s.clock.Now().Add(-time.Duration(maxAgeDays * float64(24*time.Hour)))
	res := &PurgeResult{OlderThanDays: maxAgeDays}
	s.logger.Info("purge started", "actor", actor, "older_than_days", maxAgeDays, "batched", batched)

	var batch []string
	flush := func() {
		if len(batch) == 0 {
			return
		}
		deleted, failed, err := s.identity.DeleteUsers(ctx, batch)
		if err != nil {
			// The whole batch failed to issue; count every uid as failed.
			s.logger.Warn("batch deletion failed", "size", len(batch), "error", err)
			res.Failed += len(batch)
		} else {
			res.Deleted += deleted
			res.Failed += failed
		}
		batch = batch[:0]
	}

	pageToken := ""
	for {
		records, next, err := s.identity.ListUsers(ctx, identityPageSize, pageToken)
		if err != nil {
			return nil, Errorf(KindInternal, "identity listing failed: %w", err)
		}

		for _, u := range records {
			res.Scanned++
			if !u.Anonymous() || !s.eligible(u, cutoff, batched) {
				res.Kept++
				continue
			}
			res.Candidates++
			if batched {
				batch = append(batch, u.UID)
				if len(batch) >= deleteBatchMax {
					flush()
				}
				continue
			}
			if err := s.identity.DeleteUser(ctx, u.UID); err != nil {
				s.logger.Warn("deletion failed", "uid", u.UID, "error", err)
				res.Failed++
			} else {
				res.Deleted++
			}
		}

		if next == "" {
			break
		}
		pageToken = next
	}
	flush()

	s.logger.Info("purge complete", "scanned", res.Scanned,
		"deleted", res.Deleted, "kept", res.Kept, "failed", res.Failed)
	return res, nil
}

// eligible applies the strict-inequality age rule: the reference time must
// be before the cutoff; exactly at the cutoff is kept. The batched variant
// also counts recent sign-ins as activity.
func (s *DRService) eligible(u UserRecord, cutoff time.Time, useLastSignIn bool) bool {
	ref := u.CreatedAt
	if useLastSignIn && u.LastSignInAt.After(ref) {
		ref = u.LastSignInAt
	}
	return ref.Before(cutoff)
}
