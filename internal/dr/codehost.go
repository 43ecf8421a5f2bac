package dr

import "context"

// CodeHost fetches a full archive of the external code repository included
// in every backup.
type CodeHost interface {
	// FetchArchive returns a zip archive of repo at branch. Implementations
	// authenticate when a token is configured and fall back to an anonymous
	// request otherwise.
	FetchArchive(ctx context.Context, ref RepoRef) ([]byte, error)
}
