package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hris-labs/shiftgate/internal/uuid"
	"github.com/hris-labs/shiftgate/shift"
)

// Evaluator produces a session verdict for an instant. *shift.Engine
// implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, t time.Time) shift.Verdict
}

// Notifier is told about every record the recorder writes.
type Notifier interface {
	Notify(ctx context.Context, event string, rec Record)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event string, rec Record)

func (f NotifierFunc) Notify(ctx context.Context, event string, rec Record) { f(ctx, event, rec) }

// Events passed to Notifier.
const (
	EventClockIn  = "clock_in"
	EventClockOut = "clock_out"
	EventAbsent   = "absent"
)

// Recorder writes attendance records, consulting the engine for the gate and
// lateness decisions.
type Recorder struct {
	// mu covers the read-check-write on records only. Engine calls stay
	// outside it so a slow directory does not queue unrelated employees.
	mu       sync.Mutex
	engine   Evaluator
	records  *RecordStore
	loc      *time.Location
	debounce *debouncer
	clock    shift.Clock
	notifier Notifier
	logger   *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLocation sets the time zone in which instants are converted to a time of
// day and an attendance date. Default: time.Local.
func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithDebounce sets the duplicate-tap window. Zero disables it.
func WithDebounce(window time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.debounce = newDebouncer(window)
	}
}

// WithNotifier registers a Notifier for written records.
func WithNotifier(n Notifier) RecorderOption {
	return func(r *Recorder) {
		r.notifier = n
	}
}

// WithRecorderClock sets the clock used when a caller passes a zero time.
func WithRecorderClock(clock shift.Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithRecorderLogger sets the logger. A component attribute is added.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger.With("component", "attendance")
	}
}

// NewRecorder returns a recorder writing to records.
func NewRecorder(engine Evaluator, records *RecordStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		engine:   engine,
		records:  records,
		loc:      time.Local,
		debounce: newDebouncer(DefaultDebounce),
		clock:    shift.SystemClock{},
		logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "attendance"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the recorder's time zone.
func (r *Recorder) Location() *time.Location {
	return r.loc
}

// Localize converts at to the recorder's time zone. A zero time means now.
func (r *Recorder) Localize(at time.Time) time.Time {
	if at.IsZero() {
		at = r.clock.Now()
	}
	return at.In(r.loc)
}

// ClockIn opens a record for employeeID at "at" (zero means now). The gate
// must allow the instant and the employee must not already be clocked in.
func (r *Recorder) ClockIn(ctx context.Context, employeeID string, at time.Time) (Record, error) {
	employeeID, err := NormalizeEmployeeID(employeeID)
	if err != nil {
		return Record{}, err
	}
	local := r.Localize(at)
	verdict := r.engine.Evaluate(ctx, local)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.clockInLocked(ctx, employeeID, local, verdict)
	if err != nil {
		return Record{}, err
	}
	r.publish(ctx, EventClockIn, rec)
	return rec, nil
}

// ClockOut closes the most recent open record of employeeID on the same or
// the previous attendance date.
func (r *Recorder) ClockOut(ctx context.Context, employeeID string, at time.Time) (Record, error) {
	employeeID, err := NormalizeEmployeeID(employeeID)
	if err != nil {
		return Record{}, err
	}
	local := r.Localize(at)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.clockOutLocked(employeeID, local)
	if err != nil {
		return Record{}, err
	}
	r.publish(ctx, EventClockOut, rec)
	return rec, nil
}

// Tap is the fingerprint-device entry point: it clocks the employee out when
// an open record exists and in otherwise. Repeated taps inside the debounce
// window fail with ErrDuplicateTap.
func (r *Recorder) Tap(ctx context.Context, employeeID string, at time.Time) (Record, string, error) {
	employeeID, err := NormalizeEmployeeID(employeeID)
	if err != nil {
		return Record{}, "", err
	}
	local := r.Localize(at)
	if !r.debounce.allow(employeeID, local) {
		return Record{}, "", fmt.Errorf("%w: %s", ErrDuplicateTap, employeeID)
	}
	// Evaluated before the lock even when the tap turns out to be a
	// clock-out; with a warm cache this is a snapshot read.
	verdict := r.engine.Evaluate(ctx, local)

	r.mu.Lock()
	defer r.mu.Unlock()

	open, found, err := r.openRecord(employeeID, local)
	if err != nil {
		return Record{}, "", err
	}
	event := EventClockIn
	var rec Record
	if found {
		event = EventClockOut
		rec, err = r.close(open, local)
	} else {
		rec, err = r.clockInLocked(ctx, employeeID, local, verdict)
	}
	if err != nil {
		return Record{}, "", err
	}
	r.publish(ctx, event, rec)
	return rec, event, nil
}

// MarkAbsent writes an Absent record on date for every employee in
// employeeIDs that has no record on that date, and returns what it wrote.
func (r *Recorder) MarkAbsent(ctx context.Context, date string, employeeIDs []string) ([]Record, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	date = day.Format(DateLayout)

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now().In(r.loc)
	written := []Record{}
	seen := make(map[string]bool, len(employeeIDs))
	for _, raw := range employeeIDs {
		id, err := NormalizeEmployeeID(raw)
		if err != nil {
			return written, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		existing, err := r.records.ForEmployee(id, date)
		if err != nil {
			return written, err
		}
		if len(existing) > 0 {
			continue
		}
		rec := Record{
			ID:             uuid.New(),
			EmployeeID:     id,
			AttendanceDate: date,
			Status:         StatusAbsent,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.records.Save(rec); err != nil {
			return written, err
		}
		written = append(written, rec)
		r.publish(ctx, EventAbsent, rec)
	}
	return written, nil
}

// clockInLocked writes the clock-in. verdict is computed by the caller before
// r.mu is taken, since the engine may reach the directory over the network.
func (r *Recorder) clockInLocked(ctx context.Context, employeeID string, local time.Time, verdict shift.Verdict) (Record, error) {
	if !verdict.Allowed {
		return Record{}, fmt.Errorf("%w: %s", ErrOutsideSession, local.Format(time.RFC3339))
	}

	date := local.Format(DateLayout)
	existing, err := r.records.ForEmployee(employeeID, date, previousDate(local))
	if err != nil {
		return Record{}, err
	}
	var absence *Record
	for i := range existing {
		if existing[i].Open() {
			return Record{}, fmt.Errorf("%w: %s", ErrAlreadyClockedIn, employeeID)
		}
		if existing[i].Status == StatusAbsent && existing[i].AttendanceDate == date {
			absence = &existing[i]
		}
	}

	status := StatusPresent
	if verdict.Late {
		status = StatusLate
	}
	timeIn := local
	rec := Record{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		AttendanceDate: date,
		Session:        verdict.Session,
		Status:         status,
		Late:           verdict.Late,
		TimeIn:         &timeIn,
		CreatedAt:      local,
		UpdatedAt:      local,
	}
	// An absence marked earlier the same day is superseded by the clock-in.
	if absence != nil {
		rec.ID = absence.ID
		rec.CreatedAt = absence.CreatedAt
	}
	if err := r.records.Save(rec); err != nil {
		return Record{}, err
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "clock-in",
		slog.String("employee_id", employeeID),
		slog.String("session", rec.Session),
		slog.String("status", string(rec.Status)),
		slog.Bool("fallback", verdict.Fallback),
	)
	return rec, nil
}

func (r *Recorder) clockOutLocked(employeeID string, local time.Time) (Record, error) {
	open, found, err := r.openRecord(employeeID, local)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, fmt.Errorf("%w: %s", ErrNotClockedIn, employeeID)
	}
	return r.close(open, local)
}

// openRecord finds the latest open record on the date of local or the day
// before, so overnight shifts can be closed after midnight.
func (r *Recorder) openRecord(employeeID string, local time.Time) (Record, bool, error) {
	existing, err := r.records.ForEmployee(employeeID, local.Format(DateLayout), previousDate(local))
	if err != nil {
		return Record{}, false, err
	}
	var latest Record
	found := false
	for _, rec := range existing {
		if !rec.Open() {
			continue
		}
		if !found || rec.TimeIn.After(*latest.TimeIn) {
			latest = rec
			found = true
		}
	}
	return latest, found, nil
}

func (r *Recorder) close(rec Record, local time.Time) (Record, error) {
	timeOut := local
	rec.TimeOut = &timeOut
	rec.Status = StatusCompleted
	rec.UpdatedAt = local
	if err := r.records.Save(rec); err != nil {
		return Record{}, err
	}
	r.logger.Info("clock-out",
		"employee_id", rec.EmployeeID,
		"session", rec.Session,
		"attendance_date", rec.AttendanceDate,
	)
	return rec, nil
}

func (r *Recorder) publish(ctx context.Context, event string, rec Record) {
	if r.notifier != nil {
		r.notifier.Notify(ctx, event, rec)
	}
}

func previousDate(t time.Time) string {
	return t.AddDate(0, 0, -1).Format(DateLayout)
}
