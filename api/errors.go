package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hris-labs/shiftgate/attendance"
	"github.com/hris-labs/shiftgate/storage"
)

const (
	// maxSmallBodySize bounds request bodies for single-record writes.
	maxSmallBodySize = 16 << 10
	// maxBulkBodySize bounds request bodies listing many employees.
	maxBulkBodySize = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads a JSON body of at most limit bytes into a T. On failure it
// writes a 400 response and returns false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return v, false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return v, false
	}
	return v, true
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrInvalidSession),
		errors.Is(err, attendance.ErrInvalidEmployee),
		errors.Is(err, attendance.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, attendance.ErrOutsideSession):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, attendance.ErrSessionNotFound),
		errors.Is(err, attendance.ErrRecordNotFound),
		errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNotClockedIn),
		errors.Is(err, attendance.ErrSessionExists),
		errors.Is(err, attendance.ErrDuplicateTap):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
