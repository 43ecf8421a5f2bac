package app_test

import (
	"context"
	"testing"

	"dr-go/internal/app"
	"dr-go/internal/config"
)

func newTestApp(t *testing.T) *app.DRApp {
	t.Helper()

	cfg := config.NewConfig("test-instance", t.TempDir())
	cfg.AuthorizedEmails = []string{"alice@acme.io"}
	cfg.GitHub = config.GitHubConfig{Owner: "acme", Repo: "webapp", Branch: "main"}
	cfg.ObjectStore = config.ObjectStoreConfig{Type: "memory"}
	cfg.DocumentStore = config.DocumentStoreConfig{Type: "memory"}
	cfg.Identity = config.IdentityConfig{Type: "memory"}
	cfg.Audit = config.AuditConfig{Type: "memory"}

	a, err := app.NewDRApp(context.Background(), cfg, &config.Secrets{AdminKey: "key"})
	if err != nil {
		t.Fatalf("NewDRApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestDRApp_AuditTrail(t *testing.T) {
	ctx := context.Background()

	t.Run("a purge leaves a finished audit record", func(t *testing.T) {
		a := newTestApp(t)

		if _, err := a.PurgeAnonymousUsers(ctx, "alice@acme.io", 30); err != nil {
			t.Fatalf("PurgeAnonymousUsers() error = %v", err)
		}

		records, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("records = %d, want 1", len(records))
		}
		rec := records[0]
		if rec.Operation != "purgeAnonymousUsers" {
			t.Errorf("operation = %q", rec.Operation)
		}
		if rec.Actor != "alice@acme.io" {
			t.Errorf("actor = %q", rec.Actor)
		}
		if rec.Status != "success" {
			t.Errorf("status = %q, want success", rec.Status)
		}
		if rec.Parameters != "olderThanDays=30" {
			t.Errorf("parameters = %q", rec.Parameters)
		}
	})

	t.Run("a failed operation is recorded with status error", func(t *testing.T) {
		a := newTestApp(t)

		if err := a.RestoreFromBackup(ctx, "alice@acme.io", ""); err == nil {
			t.Fatal("RestoreFromBackup() expected error, got nil")
		}

		records, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("records = %d, want 1", len(records))
		}
		if records[0].Status != "error" {
			t.Errorf("status = %q, want error", records[0].Status)
		}
	})

	t.Run("listing backups is not audited", func(t *testing.T) {
		a := newTestApp(t)

		if _, err := a.ListBackups(ctx); err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}

		records, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("records = %d, want 0", len(records))
		}
	})
}
