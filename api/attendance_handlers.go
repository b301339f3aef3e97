package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hris-labs/shiftgate/attendance"
)

// ClockIn handles POST /attendance/clock-in.
func (a *API) ClockIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ClockRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	rec, err := a.recorder.ClockIn(r.Context(), req.EmployeeID, requestTime(req))
	if err != nil {
		a.reject(w, r, req.EmployeeID, err)
		return
	}
	a.logRecord(EventClockIn, r, rec)
	writeJSON(w, http.StatusCreated, rec)
}

// ClockOut handles POST /attendance/clock-out.
func (a *API) ClockOut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ClockRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	rec, err := a.recorder.ClockOut(r.Context(), req.EmployeeID, requestTime(req))
	if err != nil {
		a.reject(w, r, req.EmployeeID, err)
		return
	}
	a.logRecord(EventClockOut, r, rec)
	writeJSON(w, http.StatusOK, rec)
}

// Tap handles POST /attendance/tap, the fingerprint-device endpoint.
func (a *API) Tap(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ClockRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	rec, action, err := a.recorder.Tap(r.Context(), req.EmployeeID, requestTime(req))
	if err != nil {
		a.reject(w, r, req.EmployeeID, err)
		return
	}
	status := http.StatusOK
	event := EventClockOut
	if action == attendance.EventClockIn {
		status = http.StatusCreated
		event = EventClockIn
	}
	a.logRecord(event, r, rec)
	writeJSON(w, status, TapResponse{Action: action, Record: rec})
}

// ListAttendance handles GET /attendance?date=&employee_id=&limit=&offset=.
func (a *API) ListAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := attendance.Filter{
		Date:       q.Get("date"),
		EmployeeID: q.Get("employee_id"),
	}
	if filter.Date != "" {
		if _, err := attendance.ParseDate(filter.Date); err != nil {
			mapError(w, err)
			return
		}
	}
	if filter.EmployeeID != "" {
		id, err := attendance.NormalizeEmployeeID(filter.EmployeeID)
		if err != nil {
			mapError(w, err)
			return
		}
		filter.EmployeeID = id
	}

	records, err := a.records.Query(filter)
	if err != nil {
		mapError(w, err)
		return
	}
	limit, offset := parsePagination(r)
	start, end, meta := paginateSlice(len(records), limit, offset)
	writeJSON(w, http.StatusOK, ListAttendanceResponse{
		Records:        records[start:end],
		PaginationMeta: meta,
	})
}

// MarkAbsences handles POST /attendance/absences.
func (a *API) MarkAbsences(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[AbsencesRequest](w, r, maxBulkBodySize)
	if !ok {
		return
	}
	if len(req.EmployeeIDs) == 0 {
		writeError(w, http.StatusBadRequest, "employee_ids must not be empty")
		return
	}
	written, err := a.recorder.MarkAbsent(r.Context(), req.Date, req.EmployeeIDs)
	if err != nil {
		mapError(w, err)
		return
	}
	a.events.log(EventAbsencesRecorded, r,
		slog.String("attendance_date", req.Date),
		slog.Int("count", len(written)))
	writeJSON(w, http.StatusOK, AbsencesResponse{Records: written})
}

// reject logs a refused clock event and writes the mapped error.
func (a *API) reject(w http.ResponseWriter, r *http.Request, employeeID string, err error) {
	if isClientError(err) {
		a.events.logRejected(r, employeeID, err)
	}
	mapError(w, err)
}

func (a *API) logRecord(event EventType, r *http.Request, rec attendance.Record) {
	a.events.log(event, r,
		slog.String("record_id", rec.ID),
		slog.String("employee_id", rec.EmployeeID),
		slog.String("session", rec.Session),
		slog.String("status", string(rec.Status)))
}

func isClientError(err error) bool {
	return errors.Is(err, attendance.ErrOutsideSession) ||
		errors.Is(err, attendance.ErrAlreadyClockedIn) ||
		errors.Is(err, attendance.ErrNotClockedIn) ||
		errors.Is(err, attendance.ErrDuplicateTap) ||
		errors.Is(err, attendance.ErrInvalidEmployee)
}

func requestTime(req ClockRequest) time.Time {
	if req.At == nil {
		return time.Time{}
	}
	return *req.At
}

// timeParam reads an optional RFC 3339 query parameter. A missing value
// yields the zero time.
func timeParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: expected RFC 3339 timestamp", name))
		return time.Time{}, false
	}
	return t, true
}
