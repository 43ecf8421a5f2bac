// Package server exposes the disaster-recovery operations over a JSON HTTP
// API. Identity-authenticated routes live under /api/; the unattended purge
// endpoint under /tasks/ is gated by a shared secret instead.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"dr-go/internal/app"
	"dr-go/internal/dr"
)

// Server hosts the HTTP API around a wired DRApp.
type Server struct {
	app       *app.DRApp
	jwtSecret string
	logger    dr.Logger
	httpSrv   *http.Server
}

// New creates a configured Server listening on addr. jwtSecret verifies
// caller identity tokens on /api/ routes.
func New(a *app.DRApp, addr, jwtSecret string) *Server {
	s := &Server{
		app:       a,
		jwtSecret: jwtSecret,
		logger:    a.Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/backups", s.handleBackupNow)
	mux.HandleFunc("GET /api/backups", s.handleListBackups)
	mux.HandleFunc("POST /api/restore/backup", s.handleRestoreFromBackup)
	mux.HandleFunc("POST /api/restore/json", s.handleRestoreFromJSON)
	mux.HandleFunc("POST /api/users/purge", s.handlePurge)
	mux.HandleFunc("/tasks/purge-anonymous", s.handlePurgeTask)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Serve blocks until the context ends or the listener fails, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpSrv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", s.httpSrv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-serveErr
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-serveErr:
		return err
	}
}

// logRequests wraps next with request-scoped logging. Each request gets a
// uuid so log lines from one call can be correlated.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// statusWriter captures the response status for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
