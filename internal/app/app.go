package app

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"dr-go/internal/audit"
	"dr-go/internal/codehost"
	"dr-go/internal/config"
	"dr-go/internal/docstore"
	"dr-go/internal/dr"
	"dr-go/internal/identity"
	"dr-go/internal/objectstore"
)

// DRApp is the application layer between the entry points (CLI, HTTP
// server) and DRService. It constructs all collaborators from config,
// records every mutating operation in the audit log, and owns resource
// lifecycle on Close.
type DRApp struct {
	cfg      *config.Config
	secrets  *config.Secrets
	service  *dr.DRService
	auditLog audit.Log
	clock    dr.Clock
	logger   dr.Logger
	logFile  *os.File

	// AllowList gates identity-authenticated calls; SharedSecret gates the
	// unattended purge endpoint. Entry points pick one per route.
	AllowList    dr.AuthorizationPolicy
	SharedSecret dr.AuthorizationPolicy
}

// NewDRApp creates a fully wired DRApp from the given config and secrets.
// The caller must call Close when done.
func NewDRApp(ctx context.Context, cfg *config.Config, secrets *config.Secrets) (*DRApp, error) {
	store, err := objectstore.NewStoreFromConfig(ctx, cfg.ObjectStore, secrets)
	if err != nil {
		return nil, fmt.Errorf("creating object store: %w", err)
	}

	docs, err := docstore.NewStoreFromConfig(cfg.DocumentStore, secrets)
	if err != nil {
		return nil, fmt.Errorf("creating document store: %w", err)
	}

	idp, err := identity.NewProviderFromConfig(cfg.Identity, secrets)
	if err != nil {
		return nil, fmt.Errorf("creating identity provider: %w", err)
	}

	auditLog, err := audit.NewLogFromConfig(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("creating audit log: %w", err)
	}

	runID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		auditLog.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	repo := dr.RepoRef{Owner: cfg.GitHub.Owner, Repo: cfg.GitHub.Repo, Branch: cfg.GitHub.Branch}
	gh := codehost.NewGitHub(secrets.GitHubToken)
	clock := dr.RealClock{}

	drLogger := &slogAdapter{l: logger}
	svc := dr.NewDRService(store, docs, idp, gh, repo, drLogger, clock)

	return &DRApp{
		cfg:          cfg,
		secrets:      secrets,
		service:      svc,
		auditLog:     auditLog,
		clock:        clock,
		logger:       drLogger,
		logFile:      logFile,
		AllowList:    dr.NewAllowListPolicy(cfg.AuthorizedEmails),
		SharedSecret: dr.NewSharedSecretPolicy(secrets.AdminKey),
	}, nil
}

// Service exposes the underlying DRService for read-only operations.
func (a *DRApp) Service() *dr.DRService { return a.service }

// Logger exposes the app logger for entry points (the HTTP server).
func (a *DRApp) Logger() dr.Logger { return a.logger }

// record wraps op in an audit record: Begin before, Finish after. Audit
// failures are returned so a mutating operation never runs unrecorded.
func (a *DRApp) record(operation, parameters, actor string, op func() error) error {
	rec := &audit.Record{
		ID:         uuid.New().String(),
		Operation:  operation,
		Parameters: parameters,
		Actor:      actor,
		StartedAt:  a.clock.Now(),
	}
	if err := a.auditLog.Begin(rec); err != nil {
		return fmt.Errorf("recording %s: %w", operation, err)
	}

	opErr := op()

	status := "success"
	if opErr != nil {
		status = "error"
	}
	if err := a.auditLog.Finish(rec.ID, status, a.clock.Now()); err != nil && opErr == nil {
		return fmt.Errorf("finishing %s record: %w", operation, err)
	}
	return opErr
}

// BackupNow produces a new backup as actor, recording it in the audit log.
func (a *DRApp) BackupNow(ctx context.Context, actor string) (*dr.BackupResult, error) {
	var res *dr.BackupResult
	err := a.record("backupNow", "", actor, func() error {
		var err error
		res, err = a.service.BackupNow(ctx, actor)
		return err
	})
	return res, err
}

// ListBackups returns the backup catalog. Read-only, not audited.
func (a *DRApp) ListBackups(ctx context.Context) ([]*dr.Backup, error) {
	return a.service.ListBackups(ctx)
}

// RestoreFromBackup overwrites the document store from a stored backup.
func (a *DRApp) RestoreFromBackup(ctx context.Context, actor, id string) error {
	return a.record("restoreFromBackup", "id="+id, actor, func() error {
		return a.service.RestoreFromBackup(ctx, actor, id)
	})
}

// RestoreFromJSON overwrites the document store from caller-supplied JSON.
func (a *DRApp) RestoreFromJSON(ctx context.Context, actor, text string) error {
	return a.record("restoreFromJson", "", actor, func() error {
		return a.service.RestoreFromJSON(ctx, actor, text)
	})
}

// PurgeAnonymousUsers deletes stale anonymous identities one at a time.
func (a *DRApp) PurgeAnonymousUsers(ctx context.Context, actor string, olderThanDays float64) (*dr.PurgeResult, error) {
	var res *dr.PurgeResult
	err := a.record("purgeAnonymousUsers", fmt.Sprintf("olderThanDays=%g", olderThanDays), actor, func() error {
		var err error
		res, err = a.service.PurgeAnonymousUsers(ctx, actor, olderThanDays)
		return err
	})
	return res, err
}

// PurgeAnonymousUsersBatched is the batched variant behind the
// shared-secret endpoint.
func (a *DRApp) PurgeAnonymousUsersBatched(ctx context.Context, actor string, olderThanDays float64) (*dr.PurgeResult, error) {
	var res *dr.PurgeResult
	err := a.record("purgeAnonymousUsers", fmt.Sprintf("olderThanDays=%g batched=true", olderThanDays), actor, func() error {
		var err error
		res, err = a.service.PurgeAnonymousUsersBatched(ctx, actor, olderThanDays)
		return err
	})
	return res, err
}

// History returns the most recent audited operations, newest first.
func (a *DRApp) History(limit int) ([]*audit.Record, error) {
	records, err := a.auditLog.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operation history: %w", err)
	}
	return records, nil
}

// Close releases the audit log and the log file.
func (a *DRApp) Close() error {
	var firstErr error
	if err := a.auditLog.Close(); err != nil {
		firstErr = fmt.Errorf("closing audit log: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
