package dr

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	backupPrefix = "backups/"

	realtimeObjectName = "realtime-db.json"
	manifestObjectName = "manifest.json"
)

// BackupResult is the outcome of a successful BackupNow call.
type BackupResult struct {
	ID    string  `json:"id"`
	Files FileSet `json:"files"`
}

// BackupNow produces a new backup: a pretty-printed dump of the whole
// document store, a zip archive of the configured repository, and a
// manifest referencing both. The three writes are strictly sequential with
// no rollback: whichever stage fails, earlier objects remain in storage.
// actor is the authorized caller's identity, recorded in the manifest.
func (s *DRService) BackupNow(ctx context.Context, actor string) (*BackupResult, error) {
	id := TimestampID(s.clock.Now())
	base := backupPrefix + id + "/"
	s.logger.Info("backup started", "id", id, "actor", actor)

	// Stage 1: document store dump.
	tree, err := s.docs.Tree(ctx)
	if err != nil {
		return nil, Errorf(KindInternal, "document store export failed: %w", err)
	}
	dump, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, Errorf(KindInternal, "document store export failed: %w", err)
	}
	realtime, err := s.saveObject(ctx, base+realtimeObjectName, dump, "application/json")
	if err != nil {
		return nil, Errorf(KindInternal, "document store export failed: %w", err)
	}

	// Stage 2: code archive. Reported distinctly from store failures.
	archive, err := s.codehost.FetchArchive(ctx, s.repo)
	if err != nil {
		return nil, Errorf(KindInternal, "archive download failed: %w", err)
	}
	zipName := fmt.Sprintf("github-%s-%s.zip", s.repo.Repo, s.repo.Branch)
	github, err := s.saveObject(ctx, base+zipName, archive, "application/zip")
	if err != nil {
		return nil, Errorf(KindInternal, "archive download failed: %w", err)
	}

	// Stage 3: manifest, written last. It is the authority for the backup's
	// timestamp and must reference exactly the descriptors produced above.
	manifest := Manifest{
		ID:        id,
		Timestamp: s.clock.Now().UTC().Format(isoMillis),
		GitHub:    s.repo,
		Files:     FileSet{Realtime: realtime, GitHub: github},
		Actor:     actor,
		Note:      "created by backupNow",
	}
	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, Errorf(KindInternal, "manifest write failed: %w", err)
	}
	if _, err := s.saveObject(ctx, base+manifestObjectName, body, "application/json"); err != nil {
		return nil, Errorf(KindInternal, "manifest write failed: %w", err)
	}

	s.logger.Info("backup complete", "id", id,
		"realtime_bytes", realtime.Size, "archive_bytes", github.Size)
	return &BackupResult{ID: id, Files: FileSet{Realtime: realtime, GitHub: github}}, nil
}

// saveObject writes data and builds the stored object's descriptor: path,
// size and content type from fresh metadata, plus a new signed read URL.
func (s *DRService) saveObject(ctx context.Context, path string, data []byte, contentType string) (*FileDescriptor, error) {
	if err := s.store.Save(ctx, path, data, contentType); err != nil {
		return nil, fmt.Errorf("saving %s: %w", path, err)
	}
	return s.describeObject(ctx, path)
}

// describeObject builds a FileDescriptor for an already stored object.
func (s *DRService) describeObject(ctx context.Context, path string) (*FileDescriptor, error) {
	info, err := s.store.Metadata(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", path, err)
	}
	url, err := s.store.SignedURL(ctx, path, SignedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("signing url for %s: %w", path, err)
	}
	return &FileDescriptor{
		Path:        path,
		Size:        info.Size,
		ContentType: info.ContentType,
		URL:         url,
	}, nil
}
