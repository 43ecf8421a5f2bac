package testutil

import (
	"context"

	"dr-go/internal/dr"
)

// StubCodeHost serves a fixed archive, or fails every fetch when Err is set.
type StubCodeHost struct {
	Archive []byte
	Err     error

	Fetched []dr.RepoRef
}

var _ dr.CodeHost = (*StubCodeHost)(nil)

func (c *StubCodeHost) FetchArchive(_ context.Context, repo dr.RepoRef) ([]byte, error) {
	c.Fetched = append(c.Fetched, repo)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Archive, nil
}
