package dr

import "context"

// DocumentStore is the whole-tree key-value database being backed up and
// restored. The tree is read and replaced as a single JSON document; there
// is no partial get or merge.
type DocumentStore interface {
	// Tree returns the entire current content of the store.
	Tree(ctx context.Context) (any, error)

	// SetTree replaces the entire store content with v. Keys absent from v
	// are gone after the call. This is an overwrite, not a merge.
	SetTree(ctx context.Context, v any) error
}
