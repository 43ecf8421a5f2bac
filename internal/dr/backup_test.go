package dr_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"dr-go/internal/dr"
)

func TestDRService_BackupNow(t *testing.T) {
	ctx := context.Background()
	tree := map[string]any{"projects": map[string]any{"p1": "alpha"}}

	t.Run("writes dump, archive, and manifest in order", func(t *testing.T) {
		f := newFixtures(tree)

		res, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err != nil {
			t.Fatalf("BackupNow() error = %v", err)
		}

		wantID := "2026-03-01T10-30-00-000Z"
		if res.ID != wantID {
			t.Errorf("id = %q, want %q", res.ID, wantID)
		}

		writes := f.store.Writes()
		want := []string{
			"backups/" + wantID + "/realtime-db.json",
			"backups/" + wantID + "/github-webapp-main.zip",
			"backups/" + wantID + "/manifest.json",
		}
		if len(writes) != len(want) {
			t.Fatalf("writes = %v, want %v", writes, want)
		}
		for i := range want {
			if writes[i] != want[i] {
				t.Errorf("writes[%d] = %q, want %q", i, writes[i], want[i])
			}
		}
	})

	t.Run("result describes both artifacts with signed urls", func(t *testing.T) {
		f := newFixtures(tree)

		res, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err != nil {
			t.Fatalf("BackupNow() error = %v", err)
		}

		if res.Files.Realtime == nil || res.Files.GitHub == nil {
			t.Fatalf("missing descriptors: %+v", res.Files)
		}
		if res.Files.Realtime.Size == 0 {
			t.Error("realtime descriptor has zero size")
		}
		if res.Files.Realtime.ContentType != "application/json" {
			t.Errorf("realtime content type = %q", res.Files.Realtime.ContentType)
		}
		if res.Files.GitHub.ContentType != "application/zip" {
			t.Errorf("archive content type = %q", res.Files.GitHub.ContentType)
		}
		if res.Files.Realtime.URL == "" || res.Files.GitHub.URL == "" {
			t.Error("descriptors missing signed urls")
		}
		if res.Files.Manifest != nil {
			t.Error("result must not describe the manifest itself")
		}
	})

	t.Run("manifest records actor, repo, and the same descriptors", func(t *testing.T) {
		f := newFixtures(tree)

		res, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err != nil {
			t.Fatalf("BackupNow() error = %v", err)
		}

		body, err := f.store.Download(ctx, "backups/"+res.ID+"/manifest.json")
		if err != nil {
			t.Fatalf("manifest missing: %v", err)
		}
		var m dr.Manifest
		if err := json.Unmarshal(body, &m); err != nil {
			t.Fatalf("manifest not valid json: %v", err)
		}

		if m.ID != res.ID {
			t.Errorf("manifest id = %q, want %q", m.ID, res.ID)
		}
		if m.Actor != "ops@acme.io" {
			t.Errorf("manifest actor = %q", m.Actor)
		}
		if m.GitHub != testRepo {
			t.Errorf("manifest repo = %+v, want %+v", m.GitHub, testRepo)
		}
		if m.Files.Realtime == nil || m.Files.Realtime.Path != res.Files.Realtime.Path {
			t.Errorf("manifest realtime descriptor = %+v", m.Files.Realtime)
		}
		if m.Files.GitHub == nil || m.Files.GitHub.Path != res.Files.GitHub.Path {
			t.Errorf("manifest archive descriptor = %+v", m.Files.GitHub)
		}
	})

	t.Run("dump is the pretty-printed document tree", func(t *testing.T) {
		f := newFixtures(tree)

		res, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err != nil {
			t.Fatalf("BackupNow() error = %v", err)
		}

		body, err := f.store.Download(ctx, res.Files.Realtime.Path)
		if err != nil {
			t.Fatalf("dump missing: %v", err)
		}
		if !strings.Contains(string(body), "\n  ") {
			t.Error("dump is not indented")
		}
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("dump not valid json: %v", err)
		}
	})

	t.Run("document store failure writes nothing", func(t *testing.T) {
		f := newFixtures(tree)
		f.docs.FailReads(errors.New("connection refused"))

		_, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err == nil {
			t.Fatal("BackupNow() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "document store export failed") {
			t.Errorf("error = %q, want document store export stage", err)
		}
		if n := len(f.store.Writes()); n != 0 {
			t.Errorf("store has %d writes, want 0", n)
		}
	})

	t.Run("archive failure leaves the dump in storage", func(t *testing.T) {
		f := newFixtures(tree)
		f.codehost.Err = errors.New("502 bad gateway")

		_, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err == nil {
			t.Fatal("BackupNow() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "archive download failed") {
			t.Errorf("error = %q, want archive download stage", err)
		}
		if !f.store.Exists("backups/2026-03-01T10-30-00-000Z/realtime-db.json") {
			t.Error("dump from the failed backup should remain in storage")
		}
		if f.store.Exists("backups/2026-03-01T10-30-00-000Z/manifest.json") {
			t.Error("manifest must not be written after a failed stage")
		}
	})

	t.Run("manifest write failure leaves dump and archive", func(t *testing.T) {
		f := newFixtures(tree)
		f.store.FailSavesTo("backups/2026-03-01T10-30-00-000Z/manifest.json", errors.New("quota exceeded"))

		_, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if err == nil {
			t.Fatal("BackupNow() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "manifest write failed") {
			t.Errorf("error = %q, want manifest stage", err)
		}
		if !f.store.Exists("backups/2026-03-01T10-30-00-000Z/realtime-db.json") {
			t.Error("dump should remain in storage")
		}
		if !f.store.Exists("backups/2026-03-01T10-30-00-000Z/github-webapp-main.zip") {
			t.Error("archive should remain in storage")
		}
	})

	t.Run("stage failures carry the internal kind", func(t *testing.T) {
		f := newFixtures(tree)
		f.codehost.Err = errors.New("timeout")

		_, err := f.svc.BackupNow(ctx, "ops@acme.io")
		if got := dr.KindOf(err); got != dr.KindInternal {
			t.Errorf("KindOf() = %v, want KindInternal", got)
		}
	})
}
