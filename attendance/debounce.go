package attendance

import (
	"sync"
	"time"
)

// DefaultDebounce is the window in which a second tap from the same employee
// is rejected.
const DefaultDebounce = 30 * time.Second

// sweepThreshold is the map size above which expired taps are pruned.
const sweepThreshold = 1024

// debouncer remembers the last accepted tap per employee.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// allow reports whether a tap at "at" is accepted and, if so, remembers it.
// A non-positive window disables debouncing.
func (d *debouncer) allow(employeeID string, at time.Time) bool {
	if d.window <= 0 {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.last[employeeID]; ok {
		since := at.Sub(prev)
		if since >= 0 && since < d.window {
			return false
		}
	}
	d.last[employeeID] = at
	if len(d.last) > sweepThreshold {
		d.sweepLocked(at)
	}
	return true
}

// sweepLocked removes taps older than the window. d.mu must be held.
func (d *debouncer) sweepLocked(now time.Time) {
	for id, at := range d.last {
		if now.Sub(at) >= d.window {
			delete(d.last, id)
		}
	}
}
