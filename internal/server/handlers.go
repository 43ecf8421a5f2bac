package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"dr-go/internal/dr"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error's kind to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	kind := dr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case dr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case dr.KindPermissionDenied:
		status = http.StatusForbidden
	case dr.KindInvalidArgument:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind.String()})
}

// authorize runs the allow-list gate before any /api/ handler does work.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, err := s.app.AllowList.Authorize(s.credentialsFromRequest(r))
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return actor, true
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dr.Errorf(dr.KindInvalidArgument, "invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleBackupNow(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authorize(w, r)
	if !ok {
		return
	}

	res, err := s.app.BackupNow(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}

	items, err := s.app.ListBackups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*dr.Backup{"items": items})
}

func (s *Server) handleRestoreFromBackup(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.app.RestoreFromBackup(r.Context(), actor, req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRestoreFromJSON(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		JSON string `json:"json"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.app.RestoreFromJSON(r.Context(), actor, req.JSON); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// purgeResponse is the allow-list purge output shape.
type purgeResponse struct {
	OK            bool    `json:"ok"`
	OlderThanDays float64 `json:"olderThanDays"`
	Scanned       int     `json:"scanned"`
	Deleted       int     `json:"deleted"`
	Kept          int     `json:"kept"`
	Failed        int     `json:"failed"`
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		OlderThanDays float64 `json:"olderThanDays"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.app.PurgeAnonymousUsers(r.Context(), actor, req.OlderThanDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{
		OK:            true,
		OlderThanDays: res.OlderThanDays,
		Scanned:       res.Scanned,
		Deleted:       res.Deleted,
		Kept:          res.Kept,
		Failed:        res.Failed,
	})
}

// purgeTaskResponse is the shared-secret purge output shape. It reports
// batch candidates and errors separately, matching its unattended callers.
type purgeTaskResponse struct {
	OK            bool    `json:"ok"`
	OlderThanDays float64 `json:"olderThanDays"`
	Scanned       int     `json:"scanned"`
	Candidates    int     `json:"candidates"`
	Deleted       int     `json:"deleted"`
	Kept          int     `json:"kept"`
	Errors        int     `json:"errors"`
}

// handlePurgeTask is the shared-secret variant: key auth, days from query
// or form body, batched deletion, last-sign-in-aware eligibility.
func (s *Server) handlePurgeTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actor, err := s.app.SharedSecret.Authorize(s.credentialsFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	raw := r.URL.Query().Get("days")
	if raw == "" {
		raw = r.PostFormValue("days")
	}
	days, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, dr.Errorf(dr.KindInvalidArgument, "days must be a number, got %q", raw))
		return
	}

	res, err := s.app.PurgeAnonymousUsersBatched(r.Context(), actor, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purgeTaskResponse{
		OK:            true,
		OlderThanDays: res.OlderThanDays,
		Scanned:       res.Scanned,
		Candidates:    res.Candidates,
		Deleted:       res.Deleted,
		Kept:          res.Kept,
		Errors:        res.Failed,
	})
}
