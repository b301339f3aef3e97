package api

import (
	"time"

	"github.com/hris-labs/shiftgate/attendance"
)

// ClockRequest is the JSON body for POST /attendance/clock-in, /clock-out and
// /tap. A missing "at" means the server's current time.
type ClockRequest struct {
	EmployeeID string     `json:"employee_id"`
	At         *time.Time `json:"at,omitempty"`
}

// TapResponse is returned from POST /attendance/tap.
type TapResponse struct {
	Action string            `json:"action"`
	Record attendance.Record `json:"record"`
}

// ListAttendanceResponse is returned from GET /attendance.
type ListAttendanceResponse struct {
	Records []attendance.Record `json:"records"`
	PaginationMeta
}

// AbsencesRequest is the JSON body for POST /attendance/absences.
type AbsencesRequest struct {
	Date        string   `json:"date"`
	EmployeeIDs []string `json:"employee_ids"`
}

// AbsencesResponse is returned from POST /attendance/absences.
type AbsencesResponse struct {
	Records []attendance.Record `json:"records"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
