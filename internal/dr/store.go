package dr

import (
	"context"
	"time"
)

// ObjectStore provides an interface for the durable blob storage that holds
// backup artifacts. Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Save writes data under path with the given content type,
	// overwriting any existing object.
	Save(ctx context.Context, path string, data []byte, contentType string) error

	// Metadata returns size and content type for a stored object.
	Metadata(ctx context.Context, path string) (ObjectInfo, error)

	// SignedURL generates a time-limited unauthenticated read URL for path.
	// URLs are generated fresh per call and must never be cached.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Download returns the full content of the object at path.
	Download(ctx context.Context, path string) ([]byte, error)

	// List returns the keys of every object whose key starts with prefix.
	// If the provider paginates, all pages are exhausted before returning.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Path        string
	Size        int64
	ContentType string
}

// SignedURLTTL is the validity window for generated read URLs.
const SignedURLTTL = 14 * 24 * time.Hour

// FileDescriptor points at one stored backup artifact. The URL is a signed
// read URL regenerated on every request; it is never persisted.
type FileDescriptor struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// FileSet maps artifact roles to their descriptors. Any role may be absent.
type FileSet struct {
	Realtime *FileDescriptor `json:"realtime,omitempty"`
	GitHub   *FileDescriptor `json:"github,omitempty"`
	Manifest *FileDescriptor `json:"manifest,omitempty"`
}

// Backup describes one cataloged backup. Groups missing one or more
// artifacts are still valid and must render without error.
type Backup struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Files     FileSet `json:"files"`
}

// RepoRef identifies the external code repository included in backups.
type RepoRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

// Manifest is the authoritative metadata record for one backup. It is
// written last in the backup sequence and, when present, wins over the
// id-derived timestamp.
type Manifest struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	GitHub    RepoRef `json:"github"`
	Files     FileSet `json:"files"`
	Actor     string  `json:"actor"`
	Note      string  `json:"note"`
}
