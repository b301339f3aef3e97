package shift

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errNetwork = errors.New("connection refused")

// fakeDirectory returns a fixed list or a fixed error and counts fetches.
type fakeDirectory struct {
	mu       sync.Mutex
	sessions []Session
	err      error
	fetches  int
}

func (d *fakeDirectory) FetchSessions(context.Context) ([]Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetches++
	if d.err != nil {
		return nil, d.err
	}
	out := make([]Session, len(d.sessions))
	copy(out, d.sessions)
	return out, nil
}

func (d *fakeDirectory) set(sessions []Session, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = sessions
	d.err = err
}

func (d *fakeDirectory) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetches
}

// fakeClock is advanced manually.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func standardSessions() []Session {
	fifteen := 15 * time.Minute
	return []Session{
		{ID: 1, Name: "morning", Start: NewTimeOfDay(7, 0, 0), End: NewTimeOfDay(12, 0, 0), LateThreshold: &fifteen},
		{ID: 2, Name: "afternoon", Start: NewTimeOfDay(13, 0, 0), End: NewTimeOfDay(17, 0, 0)},
		{ID: 3, Name: "night", Start: NewTimeOfDay(22, 0, 0), End: NewTimeOfDay(6, 0, 0), LateThreshold: &fifteen},
	}
}
