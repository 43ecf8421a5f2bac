package docstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dr-go/internal/docstore"
)

func TestHTTPStore(t *testing.T) {
	ctx := context.Background()

	t.Run("tree fetches and decodes the whole document", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/.json" {
				t.Errorf("request = %s %s", r.Method, r.URL.Path)
			}
			if got := r.URL.Query().Get("auth"); got != "db-secret" {
				t.Errorf("auth = %q, want db-secret", got)
			}
			io.WriteString(w, `{"projects":{"p1":"alpha"}}`)
		}))
		defer srv.Close()

		store := docstore.NewHTTPStore(srv.URL, "db-secret")
		tree, err := store.Tree(ctx)
		if err != nil {
			t.Fatalf("Tree() error = %v", err)
		}
		m, ok := tree.(map[string]any)
		if !ok {
			t.Fatalf("tree = %T, want a map", tree)
		}
		if _, ok := m["projects"]; !ok {
			t.Errorf("tree = %v, missing projects", m)
		}
	})

	t.Run("set tree puts the encoded document", func(t *testing.T) {
		var gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/.json" {
				t.Errorf("request = %s %s", r.Method, r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			io.WriteString(w, "{}")
		}))
		defer srv.Close()

		store := docstore.NewHTTPStore(srv.URL, "")
		if err := store.SetTree(ctx, map[string]any{"state": "restored"}); err != nil {
			t.Fatalf("SetTree() error = %v", err)
		}
		if gotBody != `{"state":"restored"}` {
			t.Errorf("body = %s", gotBody)
		}
	})

	t.Run("non-200 responses are errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "denied", http.StatusUnauthorized)
		}))
		defer srv.Close()

		store := docstore.NewHTTPStore(srv.URL, "")
		if _, err := store.Tree(ctx); err == nil {
			t.Error("Tree() expected error, got nil")
		}
		if err := store.SetTree(ctx, nil); err == nil {
			t.Error("SetTree() expected error, got nil")
		}
	})
}
