package attendance

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the attendance_date format.
const DateLayout = "2006-01-02"

// Status is the state of an attendance record.
type Status string

const (
	StatusPresent   Status = "Present"
	StatusLate      Status = "Late"
	StatusCompleted Status = "Completed"
	StatusAbsent    Status = "Absent"
)

// Record is one employee's attendance for one attendance date. TimeOut is nil
// while the employee is clocked in; both times are nil for an absence.
type Record struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employee_id"`
	AttendanceDate string     `json:"attendance_date"`
	Session        string     `json:"session,omitempty"`
	Status         Status     `json:"status"`
	Late           bool       `json:"late"`
	TimeIn         *time.Time `json:"time_in"`
	TimeOut        *time.Time `json:"time_out"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Open reports whether the record has a time-in and no time-out.
func (r Record) Open() bool {
	return r.TimeIn != nil && r.TimeOut == nil
}

// NormalizeEmployeeID trims id and puts it in Unicode NFC form so that the
// same badge value typed on different devices compares equal.
func NormalizeEmployeeID(id string) (string, error) {
	id = norm.NFC.String(strings.TrimSpace(id))
	if id == "" {
		return "", ErrInvalidEmployee
	}
	return id, nil
}

// ParseDate validates a YYYY-MM-DD attendance date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}
