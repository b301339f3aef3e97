package api

import (
	"sync"
	"time"

	"github.com/hris-labs/shiftgate/shift"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertDirectoryFallbackSpike AlertType = "directory_fallback_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	LastError string    `json:"last_error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

const (
	DefaultFallbackWindow    = 5 * time.Minute
	DefaultFallbackThreshold = 10
)

// FallbackMonitor counts engine decisions that fell back because the
// directory was unavailable, in a sliding window. Reaching the threshold fires
// one alert and resets the window. Fallbacks caused by an empty list or an
// unmatched time are normal operation and are not counted.
type FallbackMonitor struct {
	mu        sync.Mutex
	fallbacks []time.Time
	window    time.Duration
	threshold int
	alertFn   AlertFunc
}

// NewFallbackMonitor returns a monitor. A non-positive window or threshold
// takes the default.
func NewFallbackMonitor(alertFn AlertFunc, window time.Duration, threshold int) *FallbackMonitor {
	if window <= 0 {
		window = DefaultFallbackWindow
	}
	if threshold <= 0 {
		threshold = DefaultFallbackThreshold
	}
	return &FallbackMonitor{
		window:    window,
		threshold: threshold,
		alertFn:   alertFn,
	}
}

// Observe is an engine fallback hook.
func (m *FallbackMonitor) Observe(evt shift.FallbackEvent) {
	if m == nil || m.alertFn == nil || evt.Reason != shift.ReasonUnavailable {
		return
	}
	now := evt.At
	if now.IsZero() {
		now = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.fallbacks = append(m.fallbacks, now)
	m.fallbacks = trimWindow(m.fallbacks, now, m.window)

	if len(m.fallbacks) >= m.threshold {
		alert := AlertEvent{
			Type:      AlertDirectoryFallbackSpike,
			Message:   "session directory fallbacks exceed threshold",
			Count:     len(m.fallbacks),
			Threshold: m.threshold,
			Timestamp: now,
		}
		if evt.Err != nil {
			alert.LastError = evt.Err.Error()
		}
		m.alertFn(alert)
		// Reset to avoid repeated alerts within the same outage.
		m.fallbacks = m.fallbacks[:0]
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
