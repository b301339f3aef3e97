package shift

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
)

// Operation names an engine entry point, for fallback reporting.
type Operation string

const (
	OpResolve  Operation = "resolve_session"
	OpLateness Operation = "is_late"
	OpGate     Operation = "is_attendance_allowed"
	OpEvaluate Operation = "evaluate"
)

// FallbackReason explains why an operation answered without directory data.
type FallbackReason string

const (
	ReasonUnavailable FallbackReason = "directory_unavailable"
	ReasonNoSessions  FallbackReason = "no_sessions"
	ReasonNoMatch     FallbackReason = "no_matching_session"
)

// FallbackEvent is passed to the fallback hook.
type FallbackEvent struct {
	Operation Operation
	Reason    FallbackReason
	Err       error
	At        time.Time
}

// Verdict is the combined answer for a single clock event.
type Verdict struct {
	At       time.Time `json:"at"`
	Session  string    `json:"session"`
	Late     bool      `json:"late"`
	Allowed  bool      `json:"allowed"`
	Fallback bool      `json:"fallback"`
}

// Engine answers session questions for clock events. Directory failures never
// reach the caller; each operation has its own safe default:
//
//	ResolveSession       -> Classify(t)
//	IsLate               -> false
//	IsAttendanceAllowed  -> true
type Engine struct {
	source     SessionSource
	logger     *slog.Logger
	clock      Clock
	onFallback func(FallbackEvent)
}

// NewEngine returns an engine reading sessions from source, normally a *Cache.
func NewEngine(source SessionSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source: source,
		clock:  SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "shift")
	}
	return e
}

// ResolveSession names the session t falls into: the first session, in
// directory order, whose window contains t's time of day. When sessions are
// unavailable, empty, or none matches, the fallback classification is used.
func (e *Engine) ResolveSession(ctx context.Context, t time.Time) string {
	name, _ := e.resolve(ctx, t)
	return name
}

func (e *Engine) resolve(ctx context.Context, t time.Time) (string, bool) {
	sessions, ok := e.sessions(ctx, OpResolve, t)
	return e.resolveIn(ctx, OpResolve, sessions, ok, t)
}

func (e *Engine) resolveIn(ctx context.Context, op Operation, sessions []Session, ok bool, t time.Time) (string, bool) {
	if !ok {
		return Classify(t), true
	}
	if s, found := FindSession(sessions, TimeOfDayOf(t)); found {
		return s.Name, false
	}
	e.fallback(ctx, FallbackEvent{Operation: op, Reason: ReasonNoMatch, At: t})
	return Classify(t), true
}

// IsLate reports whether t is strictly past the named session's start plus
// its late threshold. Unknown sessions and sessions without a threshold are
// never late.
func (e *Engine) IsLate(ctx context.Context, t time.Time, sessionName string) bool {
	sessions, ok := e.sessions(ctx, OpLateness, t)
	return lateIn(sessions, ok, t, sessionName)
}

func lateIn(sessions []Session, ok bool, t time.Time, sessionName string) bool {
	if !ok {
		return false
	}
	s, found := LookupSession(sessions, sessionName)
	if !found {
		return false
	}
	lateAt, hasThreshold := s.LateInstant()
	if !hasThreshold {
		return false
	}
	return TimeOfDayOf(t) > lateAt
}

// IsAttendanceAllowed reports whether t falls inside any configured window.
// It fails open: when the directory is unavailable, and also when it returns
// an empty list, attendance is allowed. An empty list is read as "no
// sessions configured yet" rather than "every instant is outside a window".
func (e *Engine) IsAttendanceAllowed(ctx context.Context, t time.Time) bool {
	sessions, ok := e.sessions(ctx, OpGate, t)
	return allowedIn(sessions, ok, t)
}

func allowedIn(sessions []Session, ok bool, t time.Time) bool {
	if !ok {
		return true
	}
	tod := TimeOfDayOf(t)
	for _, s := range sessions {
		if s.Contains(tod) {
			return true
		}
	}
	return false
}

// Evaluate answers the resolver, the lateness evaluator and the gate from a
// single read of the session source, so a down directory costs one fetch and
// one fallback event per call. A zero t means now.
func (e *Engine) Evaluate(ctx context.Context, t time.Time) Verdict {
	if t.IsZero() {
		t = e.clock.Now()
	}
	sessions, ok := e.sessions(ctx, OpEvaluate, t)
	name, fellBack := e.resolveIn(ctx, OpEvaluate, sessions, ok, t)
	return Verdict{
		At:       t,
		Session:  name,
		Late:     lateIn(sessions, ok, t, name),
		Allowed:  allowedIn(sessions, ok, t),
		Fallback: fellBack,
	}
}

// sessions returns the current list, or false when the operation must use its
// default. An empty list counts as no usable data.
func (e *Engine) sessions(ctx context.Context, op Operation, t time.Time) ([]Session, bool) {
	sessions, err := e.source.Sessions(ctx)
	if err != nil {
		if !errors.Is(err, ErrDirectoryUnavailable) {
			err = Unavailable(err)
		}
		e.fallback(ctx, FallbackEvent{Operation: op, Reason: ReasonUnavailable, Err: err, At: t})
		return nil, false
	}
	if len(sessions) == 0 {
		e.fallback(ctx, FallbackEvent{Operation: op, Reason: ReasonNoSessions, At: t})
		return nil, false
	}
	return sessions, true
}

func (e *Engine) fallback(ctx context.Context, evt FallbackEvent) {
	attrs := []slog.Attr{
		slog.String("operation", string(evt.Operation)),
		slog.String("reason", string(evt.Reason)),
		slog.String("at", evt.At.Format(time.RFC3339)),
	}
	level := slog.LevelDebug
	if evt.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", evt.Err.Error()))
	}
	e.logger.LogAttrs(ctx, level, "session fallback", attrs...)
	if e.onFallback != nil {
		e.onFallback(evt)
	}
}
