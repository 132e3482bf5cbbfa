package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/parish/internal/broadcast"
	"github.com/alfredjeanlab/parish/internal/model"
)

// handleCreateBroadcast handles POST /v1/broadcasts.
func (s *Server) handleCreateBroadcast(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateAgainst(s.schema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ev model.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := model.ValidateBroadcastEvent(ev); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": ve.Errors})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.log.Append(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to append broadcast: "+err.Error())
		return
	}

	status := http.StatusCreated
	switch res {
	case broadcast.AlreadyPresent:
		status = http.StatusOK
	case broadcast.Unverified:
		status = http.StatusAccepted
	}
	writeJSON(w, status, map[string]any{"result": res.String(), "ok": res.OK()})
}

// handleListBroadcasts handles GET /v1/broadcasts.
func (s *Server) handleListBroadcasts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"broadcasts": s.log.List(r.Context())})
}

// handleReplaceEvents handles PUT /v1/events. The body is either a bare
// array or {"events": [...]}.
func (s *Server) handleReplaceEvents(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var evs []model.Event
	if err := json.Unmarshal(body, &evs); err != nil {
		var wrapped struct {
			Events []model.Event `json:"events"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		evs = wrapped.Events
	}
	if evs == nil {
		evs = []model.Event{}
	}

	if err := s.board.Replace(r.Context(), evs); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store events: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(evs)})
}

// handleListEvents handles GET /v1/events.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": s.board.Events(r.Context())})
}
