package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dr-go/internal/dr"
)

// HTTPProvider implements dr.IdentityProvider against the identity
// provider's admin REST API. Requests carry a bearer key when configured.
//
// Endpoints:
//
//	GET    {base}/v1/accounts?pageSize=N&pageToken=T
//	DELETE {base}/v1/accounts/{uid}
//	POST   {base}/v1/accounts:batchDelete
type HTTPProvider struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewHTTPProvider creates an identity admin client for baseURL.
func NewHTTPProvider(baseURL, key string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     key,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// accountRecord mirrors the admin API's user JSON shape.
type accountRecord struct {
	UID          string    `json:"uid"`
	ProviderIDs  []string  `json:"providerIds"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSignInAt time.Time `json:"lastSignInAt"`
}

type listResponse struct {
	Users         []accountRecord `json:"users"`
	NextPageToken string          `json:"nextPageToken"`
}

type batchDeleteResponse struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

func (p *HTTPProvider) do(req *http.Request) ([]byte, error) {
	if p.key != "" {
		req.Header.Set("Authorization", "Bearer "+p.key)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}

// ListUsers fetches one page of account records.
func (p *HTTPProvider) ListUsers(ctx context.Context, pageSize int, pageToken string) ([]dr.UserRecord, string, error) {
	q := url.Values{"pageSize": {strconv.Itoa(pageSize)}}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/accounts?"+q.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("building list request: %w", err)
	}

	body, err := p.do(req)
	if err != nil {
		return nil, "", fmt.Errorf("listing accounts: %w", err)
	}

	var out listResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, "", fmt.Errorf("decoding account list: %w", err)
	}

	records := make([]dr.UserRecord, 0, len(out.Users))
	for _, u := range out.Users {
		records = append(records, dr.UserRecord{
			UID:          u.UID,
			ProviderIDs:  u.ProviderIDs,
			CreatedAt:    u.CreatedAt,
			LastSignInAt: u.LastSignInAt,
		})
	}
	return records, out.NextPageToken, nil
}

// DeleteUser removes one account.
func (p *HTTPProvider) DeleteUser(ctx context.Context, uid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.baseURL+"/v1/accounts/"+url.PathEscape(uid), nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	if _, err := p.do(req); err != nil {
		return fmt.Errorf("deleting account %s: %w", uid, err)
	}
	return nil
}

// DeleteUsers removes accounts in a single batch call.
func (p *HTTPProvider) DeleteUsers(ctx context.Context, uids []string) (int, int, error) {
	payload, err := json.Marshal(map[string][]string{"uids": uids})
	if err != nil {
		return 0, 0, fmt.Errorf("encoding batch delete: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/accounts:batchDelete", bytes.NewReader(payload))
	if err != nil {
		return 0, 0, fmt.Errorf("building batch delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := p.do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("batch deleting %d accounts: %w", len(uids), err)
	}

	var out batchDeleteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, 0, fmt.Errorf("decoding batch delete response: %w", err)
	}
	return out.Deleted, out.Failed, nil
}

// Compile-time check that HTTPProvider implements dr.IdentityProvider.
var _ dr.IdentityProvider = (*HTTPProvider)(nil)
