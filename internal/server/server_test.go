package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dr-go/internal/app"
	"dr-go/internal/config"
	"dr-go/internal/server"
)

const (
	testJWTSecret = "test-jwt-secret"
	testAdminKey  = "test-admin-key"
)

// newTestHandler wires a full app over in-memory collaborators and returns
// the server's HTTP handler.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	base := t.TempDir()
	cfg := config.NewConfig("test-instance", base)
	cfg.AuthorizedEmails = []string{"alice@acme.io"}
	cfg.GitHub = config.GitHubConfig{Owner: "acme", Repo: "webapp", Branch: "main"}
	cfg.ObjectStore = config.ObjectStoreConfig{Type: "memory"}
	cfg.DocumentStore = config.DocumentStoreConfig{Type: "memory"}
	cfg.Identity = config.IdentityConfig{Type: "memory"}
	cfg.Audit = config.AuditConfig{Type: "memory"}

	secrets := &config.Secrets{AdminKey: testAdminKey, JWTSecret: testJWTSecret}

	a, err := app.NewDRApp(context.Background(), cfg, secrets)
	if err != nil {
		t.Fatalf("NewDRApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return server.New(a, ":0", testJWTSecret).Handler()
}

// mintToken signs an HS256 identity token for the given email.
func mintToken(t *testing.T, secret, email string, verified bool) string {
	t.Helper()

	claims := jwt.MapClaims{
		"email":          email,
		"email_verified": verified,
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func decodeErrorKind(t *testing.T, body string) string {
	t.Helper()
	var e struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("error body not json: %v (%s)", err, body)
	}
	return e.Kind
}

func TestServerIdentityRoutes(t *testing.T) {
	t.Run("rejects calls without a token", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/backups", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
		if kind := decodeErrorKind(t, rr.Body.String()); kind != "unauthenticated" {
			t.Errorf("kind = %q, want unauthenticated", kind)
		}
	})

	t.Run("rejects an unverified email", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/backups", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "alice@acme.io", false))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("rejects a token signed with the wrong secret", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/backups", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, "other-secret", "alice@acme.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("rejects a verified email that is not allow-listed", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/backups", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "mallory@evil.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
		if kind := decodeErrorKind(t, rr.Body.String()); kind != "permission-denied" {
			t.Errorf("kind = %q, want permission-denied", kind)
		}
	})

	t.Run("lists backups for an authorized caller", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/backups", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "alice@acme.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
		}
		var resp struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("body not json: %v", err)
		}
		if len(resp.Items) != 0 {
			t.Errorf("items = %d, want 0", len(resp.Items))
		}
	})

	t.Run("restore with an empty id maps to 400", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/restore/backup", strings.NewReader(`{"id":""}`))
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "alice@acme.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 (%s)", rr.Code, rr.Body.String())
		}
		if kind := decodeErrorKind(t, rr.Body.String()); kind != "invalid-argument" {
			t.Errorf("kind = %q, want invalid-argument", kind)
		}
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/restore/backup", strings.NewReader(`{"backup":"x"}`))
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "alice@acme.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("restore from json overwrites and reports ok", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/restore/json",
			strings.NewReader(`{"json":"{\"state\":\"uploaded\"}"}`))
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "alice@acme.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
		}
	})

	t.Run("health needs no credentials", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}

func TestServerPurgeTask(t *testing.T) {
	t.Run("rejects a missing key", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/tasks/purge-anonymous?days=30", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("rejects a wrong key", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/tasks/purge-anonymous?days=30&key=guess", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("an identity token is not accepted here", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/tasks/purge-anonymous?days=30", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, testJWTSecret, "alice@acme.io", true))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("runs the batched purge with the key from the header", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/tasks/purge-anonymous?days=30", nil)
		req.Header.Set("X-Admin-Key", testAdminKey)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
		}
		var resp struct {
			OK            bool    `json:"ok"`
			OlderThanDays float64 `json:"olderThanDays"`
			Scanned       int     `json:"scanned"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("body not json: %v", err)
		}
		if !resp.OK || resp.OlderThanDays != 30 {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("accepts the key as a query parameter", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/tasks/purge-anonymous?days=30&key="+testAdminKey, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
		}
	})

	t.Run("non-numeric days maps to 400", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/tasks/purge-anonymous?days=soon", nil)
		req.Header.Set("X-Admin-Key", testAdminKey)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("other methods are not allowed", func(t *testing.T) {
		h := newTestHandler(t)

		req := httptest.NewRequest(http.MethodDelete, "/tasks/purge-anonymous?days=30", nil)
		req.Header.Set("X-Admin-Key", testAdminKey)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rr.Code)
		}
	})
}
