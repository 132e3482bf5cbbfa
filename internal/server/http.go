package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)

	mux.HandleFunc("POST /v1/broadcasts", s.handleCreateBroadcast)
	mux.HandleFunc("GET /v1/broadcasts", s.handleListBroadcasts)

	mux.HandleFunc("PUT /v1/events", s.handleReplaceEvents)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)

	mux.HandleFunc("GET /v1/users/{user}/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /v1/users/{user}/notifications", s.handleAddNotification)
	mux.HandleFunc("DELETE /v1/users/{user}/notifications", s.handleClearNotifications)
	mux.HandleFunc("GET /v1/users/{user}/notifications/unread", s.handleUnreadCount)
	mux.HandleFunc("POST /v1/users/{user}/notifications/read", s.handleMarkAllRead)
	mux.HandleFunc("POST /v1/users/{user}/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("DELETE /v1/users/{user}/notifications/{id}", s.handleDeleteNotification)

	mux.HandleFunc("POST /v1/users/{user}/session", s.handleTouchSession)
	mux.HandleFunc("DELETE /v1/users/{user}/session", s.handleEndSession)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)

	mux.HandleFunc("POST /v1/users/{user}/reset", s.handleRequestReset)

	var h http.Handler = AuthMiddleware(authToken, mux)
	h = RecoveryMiddleware(s.logger, h)
	return LoggingMiddleware(s.logger, h)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readBody reads a bounded request body.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	return body, nil
}

// decodeJSON decodes a bounded request body into v. An empty body leaves
// v untouched.
func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
