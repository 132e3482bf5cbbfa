package server

import (
	"net/http"

	"github.com/alfredjeanlab/parish/internal/model"
	"github.com/alfredjeanlab/parish/internal/notify"
)

// handleListNotifications handles GET /v1/users/{user}/notifications.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list := s.center(r.PathValue("user")).List(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"unread":        notify.CountUnread(list),
	})
}

// handleUnreadCount handles GET /v1/users/{user}/notifications/unread.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n := s.center(r.PathValue("user")).UnreadCount(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// addNotificationRequest creates either an event notification (Event set)
// or a system notification (Title and Message).
type addNotificationRequest struct {
	Event      *model.Event `json:"event,omitempty"`
	IsReminder bool         `json:"is_reminder,omitempty"`
	Title      string       `json:"title,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// handleAddNotification handles POST /v1/users/{user}/notifications.
func (s *Server) handleAddNotification(w http.ResponseWriter, r *http.Request) {
	var req addNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := s.center(r.PathValue("user"))
	if req.Event != nil {
		if req.Event.ID == "" {
			writeError(w, http.StatusBadRequest, "event id is required")
			return
		}
		res := c.InsertEvent(r.Context(), *req.Event, req.IsReminder)
		status := http.StatusCreated
		switch res {
		case notify.Duplicate:
			status = http.StatusOK
		case notify.Failed:
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]string{"result": res.String()})
		return
	}

	if req.Title == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "event or title and message are required")
		return
	}
	if !c.AddSystemNotification(r.Context(), req.Title, req.Message) {
		writeError(w, http.StatusInternalServerError, "failed to add notification")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"result": "inserted"})
}

// handleMarkRead handles POST /v1/users/{user}/notifications/{id}/read.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ok := s.center(r.PathValue("user")).MarkRead(r.Context(), r.PathValue("id"))
	writeResult(w, ok, "failed to mark notification read")
}

// handleMarkAllRead handles POST /v1/users/{user}/notifications/read.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ok := s.center(r.PathValue("user")).MarkAllRead(r.Context())
	writeResult(w, ok, "failed to mark notifications read")
}

// handleDeleteNotification handles DELETE /v1/users/{user}/notifications/{id}.
func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	ok := s.center(r.PathValue("user")).Delete(r.Context(), r.PathValue("id"))
	writeResult(w, ok, "failed to delete notification")
}

// handleClearNotifications handles DELETE /v1/users/{user}/notifications.
func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	ok := s.center(r.PathValue("user")).ClearAll(r.Context())
	writeResult(w, ok, "failed to clear notifications")
}

// writeResult maps a center mutation's bool to 200 or 500.
func writeResult(w http.ResponseWriter, ok bool, failure string) {
	if !ok {
		writeError(w, http.StatusInternalServerError, failure)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
