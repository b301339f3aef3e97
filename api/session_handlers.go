package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hris-labs/shiftgate/directory"
)

// ListSessions handles GET /sessions. It is the Session Directory endpoint:
// a JSON array in directory order.
func (a *API) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.sessions.List(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.FromSessions(sessions))
}

// CreateSession handles POST /sessions. Any "id" in the body is ignored.
func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[directory.SessionPayload](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	sess, err := req.Session()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.sessions.Create(r.Context(), sess)
	if err != nil {
		mapError(w, err)
		return
	}
	a.invalidate()
	a.events.log(EventSessionCreated, r,
		slog.Int64("session_id", created.ID),
		slog.String("session_name", created.Name))
	writeJSON(w, http.StatusCreated, directory.FromSession(created))
}

// GetSession handles GET /sessions/{sessionID}.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	sess, err := a.sessions.Get(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.FromSession(sess))
}

// UpdateSession handles PUT /sessions/{sessionID}. The path ID wins over any
// "id" in the body.
func (a *API) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[directory.SessionPayload](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	req.ID = id
	sess, err := req.Session()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.sessions.Update(r.Context(), sess)
	if err != nil {
		mapError(w, err)
		return
	}
	a.invalidate()
	a.events.log(EventSessionUpdated, r,
		slog.Int64("session_id", updated.ID),
		slog.String("session_name", updated.Name))
	writeJSON(w, http.StatusOK, directory.FromSession(updated))
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (a *API) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	if err := a.sessions.Delete(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	a.invalidate()
	a.events.log(EventSessionDeleted, r, slog.Int64("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Evaluate handles GET /evaluate?at=RFC3339. Without "at" the current time is
// used. Either way the instant is read in the attendance time zone.
func (a *API) Evaluate(w http.ResponseWriter, r *http.Request) {
	at, ok := timeParam(w, r, "at")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Evaluate(r.Context(), a.recorder.Localize(at)))
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid session id %q", raw))
		return 0, false
	}
	return id, true
}
