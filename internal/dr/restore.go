package dr

import (
	"context"
	"encoding/json"
)

const restorePrefix = "restores/"

// RestoreFromBackup overwrites the live document store with the document
// dump of the stored backup identified by id. A safety snapshot of the
// current live tree is always written first; the overwrite never runs
// unless that snapshot write fully succeeded.
func (s *DRService) RestoreFromBackup(ctx context.Context, actor, id string) error {
	if id == "" {
		return Errorf(KindInvalidArgument, "backup id is required")
	}
	return s.restore(ctx, actor, "backup "+id, func() ([]byte, error) {
		body, err := s.store.Download(ctx, backupPrefix+id+"/"+realtimeObjectName)
		if err != nil {
			return nil, Errorf(KindInternal, "backup download failed: %w", err)
		}
		return body, nil
	})
}

// RestoreFromJSON overwrites the live document store with caller-supplied
// JSON text, behind the same safety snapshot as RestoreFromBackup.
func (s *DRService) RestoreFromJSON(ctx context.Context, actor, text string) error {
	if text == "" {
		return Errorf(KindInvalidArgument, "json text is required")
	}
	return s.restore(ctx, actor, "uploaded json", func() ([]byte, error) {
		return []byte(text), nil
	})
}

// restore is the shared ordered pipeline: safety snapshot, then content
// acquisition and parsing, then the destructive overwrite. Each step halts
// the pipeline on failure; a snapshot from a failed attempt stays in storage.
func (s *DRService) restore(ctx context.Context, actor, source string, content func() ([]byte, error)) error {
	snapID := TimestampID(s.clock.Now())
	s.logger.Info("restore started", "source", source, "actor", actor, "safety_id", snapID)

	// Step 1: capture current live state. Must fully succeed before any
	// mutation. The snapshot is never read back programmatically; it exists
	// purely for manual recovery.
	tree, err := s.docs.Tree(ctx)
	if err != nil {
		return Errorf(KindInternal, "safety snapshot failed: %w", err)
	}
	dump, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return Errorf(KindInternal, "safety snapshot failed: %w", err)
	}
	snapPath := restorePrefix + "safety-before-" + snapID + ".json"
	if err := s.store.Save(ctx, snapPath, dump, "application/json"); err != nil {
		return Errorf(KindInternal, "safety snapshot failed: %w", err)
	}

	// Step 2: obtain and parse the target content.
	body, err := content()
	if err != nil {
		return err
	}
	var next any
	if err := json.Unmarshal(body, &next); err != nil {
		return Errorf(KindInternal, "restore content parse failed: %w", err)
	}

	// Step 3: full overwrite of the live tree.
	if err := s.docs.SetTree(ctx, next); err != nil {
		return Errorf(KindInternal, "document store overwrite failed: %w", err)
	}

	s.logger.Info("restore complete", "source", source, "safety_snapshot", snapPath)
	return nil
}
