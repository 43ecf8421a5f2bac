package codehost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"dr-go/internal/dr"
)

const userAgent = "dr-backup"

// GitHub fetches repository archives through the GitHub zipball endpoint.
// When a token is configured it is sent as an Authorization header; without
// one the request is anonymous, which works for public repositories.
type GitHub struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGitHub creates a GitHub archive fetcher. token may be empty.
func NewGitHub(token string) *GitHub {
	return &GitHub{
		baseURL: "https://api.github.com",
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// NewGitHubAt is NewGitHub pointed at a different API base URL. Used by
// tests and GitHub Enterprise installs.
func NewGitHubAt(baseURL, token string) *GitHub {
	g := NewGitHub(token)
	g.baseURL = baseURL
	return g
}

// FetchArchive downloads a zip archive of ref's repository at its branch.
// A non-2xx response is an error carrying the HTTP status.
func (g *GitHub) FetchArchive(ctx context.Context, ref dr.RepoRef) ([]byte, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/zipball/%s", g.baseURL, ref.Owner, ref.Repo, ref.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building archive request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("downloading archive: github %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return data, nil
}

// Compile-time check that GitHub implements dr.CodeHost.
var _ dr.CodeHost = (*GitHub)(nil)
