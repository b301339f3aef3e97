// Package attendance records employee clock-ins and clock-outs against the
// configured sessions and administers the session definitions themselves.
package attendance

import (
	"errors"

	"github.com/hris-labs/shiftgate/shift"
)

var (
	// ErrOutsideSession is returned when the attendance gate rejects a clock-in.
	ErrOutsideSession = errors.New("attendance is not allowed outside a session")
	// ErrAlreadyClockedIn is returned when the employee has an open record.
	ErrAlreadyClockedIn = errors.New("employee is already clocked in")
	// ErrNotClockedIn is returned by ClockOut when there is no open record.
	ErrNotClockedIn = errors.New("employee is not clocked in")
	// ErrDuplicateTap is returned for a repeated tap inside the debounce window.
	ErrDuplicateTap = errors.New("duplicate tap")
	// ErrInvalidEmployee is returned for an empty employee identifier.
	ErrInvalidEmployee = errors.New("invalid employee id")
	// ErrInvalidDate is returned for a malformed attendance date.
	ErrInvalidDate = errors.New("invalid attendance date")
	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when a session name is already taken.
	ErrSessionExists = errors.New("session name already exists")
	// ErrRecordNotFound is returned when an attendance record does not exist.
	ErrRecordNotFound = errors.New("attendance record not found")

	// ErrInvalidSession is shift.ErrInvalidSession, re-exported for callers
	// that only import this package.
	ErrInvalidSession = shift.ErrInvalidSession
)
