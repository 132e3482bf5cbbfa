package server

import (
	"net/http"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/session"
)

// handleTouchSession handles POST /v1/users/{user}/session. The optional
// body {"role": "..."} sets the session's role; without it a running
// session keeps the role it has.
func (s *Server) handleTouchSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role *string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := r.PathValue("user")
	var (
		entry   session.Entry
		created bool
		err     error
	)
	if req.Role == nil {
		entry, created, err = s.sessions.Refresh(r.Context(), userID)
	} else {
		entry, created, err = s.sessions.Touch(r.Context(), model.User{ID: userID, Role: *req.Role})
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, entry)
}

// handleEndSession handles DELETE /v1/users/{user}/session.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.End(r.Context(), r.PathValue("user"), "requested") {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListSessions handles GET /v1/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.sessions.Roster()})
}

// handleRequestReset handles POST /v1/users/{user}/reset. The user's
// persisted processed markers and cursors are cleared now, and the reset
// flag tells a running session to forget what it has seen on its next
// broadcast pass, so the whole log is offered again.
func (s *Server) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if err := s.log.ResetUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset: "+err.Error())
		return
	}
	if err := s.tracker(userID).RequestReset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to request reset: "+err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}
