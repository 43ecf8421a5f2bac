package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dr-go/internal/dr"
)

// HTTPStore implements dr.DocumentStore against a realtime-database style
// REST endpoint: the whole tree is a single JSON document at {base}/.json,
// read with GET and replaced with PUT. An optional auth token is passed as
// the auth query parameter on every request.
type HTTPStore struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewHTTPStore creates a document store client for baseURL. auth may be
// empty for stores that accept unauthenticated access.
func NewHTTPStore(baseURL, auth string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		auth:    auth,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// treeURL is the whole-tree endpoint with auth attached when configured.
func (h *HTTPStore) treeURL() string {
	u := h.baseURL + "/.json"
	if h.auth != "" {
		u += "?auth=" + url.QueryEscape(h.auth)
	}
	return u
}

// Tree downloads and decodes the entire store content.
func (h *HTTPStore) Tree(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.treeURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("building tree request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching tree: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tree: %w", err)
	}

	var tree any
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("decoding tree: %w", err)
	}
	return tree, nil
}

// SetTree replaces the entire store content with v.
func (h *HTTPStore) SetTree(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding tree: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.treeURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building overwrite request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("overwriting tree: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("overwriting tree: unexpected status %s", resp.Status)
	}
	return nil
}

// Compile-time check that HTTPStore implements dr.DocumentStore.
var _ dr.DocumentStore = (*HTTPStore)(nil)
