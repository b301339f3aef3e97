package attendance

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hris-labs/shiftgate/shift"
	"github.com/hris-labs/shiftgate/storage/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticSource struct {
	sessions []shift.Session
	err      error
}

func (s staticSource) Sessions(context.Context) ([]shift.Session, error) {
	return s.sessions, s.err
}

func standardSessions() []shift.Session {
	fifteen := 15 * time.Minute
	return []shift.Session{
		{ID: 1, Name: "morning", Start: shift.NewTimeOfDay(7, 0, 0), End: shift.NewTimeOfDay(12, 0, 0), LateThreshold: &fifteen},
		{ID: 2, Name: "afternoon", Start: shift.NewTimeOfDay(13, 0, 0), End: shift.NewTimeOfDay(17, 0, 0)},
		{ID: 3, Name: "night", Start: shift.NewTimeOfDay(22, 0, 0), End: shift.NewTimeOfDay(6, 0, 0), LateThreshold: &fifteen},
	}
}

type captured struct {
	event string
	rec   Record
}

type captureNotifier struct {
	mu     sync.Mutex
	events []captured
}

func (n *captureNotifier) Notify(_ context.Context, event string, rec Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, captured{event: event, rec: rec})
}

func (n *captureNotifier) all() []captured {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]captured(nil), n.events...)
}

func newTestRecorder(t *testing.T, source shift.SessionSource, opts ...RecorderOption) (*Recorder, *RecordStore) {
	t.Helper()
	engine := shift.NewEngine(source, shift.WithLogger(discard))
	records := NewRecordStore(memory.NewRepository())
	opts = append([]RecorderOption{WithLocation(time.UTC), WithRecorderLogger(discard)}, opts...)
	return NewRecorder(engine, records, opts...), records
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

// gatedSource holds every Sessions call until want callers are inside it at
// once, or until timeout passes. peak reports the most callers seen together.
type gatedSource struct {
	want    int
	timeout time.Duration

	mu       sync.Mutex
	inflight int
	peak     int
	release  chan struct{}
	once     sync.Once
}

func newGatedSource(want int, timeout time.Duration) *gatedSource {
	return &gatedSource{want: want, timeout: timeout, release: make(chan struct{})}
}

func (s *gatedSource) Sessions(context.Context) ([]shift.Session, error) {
	s.mu.Lock()
	s.inflight++
	if s.inflight > s.peak {
		s.peak = s.inflight
	}
	if s.inflight >= s.want {
		s.once.Do(func() { close(s.release) })
	}
	s.mu.Unlock()

	select {
	case <-s.release:
	case <-time.After(s.timeout):
	}

	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
	return standardSessions(), nil
}

func (s *gatedSource) maxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}
