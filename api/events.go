package api

import (
	"log/slog"
	"net/http"
	"time"
)

// EventType identifies an administrative or attendance action being logged.
type EventType string

const (
	EventSessionCreated   EventType = "session_created"
	EventSessionUpdated   EventType = "session_updated"
	EventSessionDeleted   EventType = "session_deleted"
	EventClockIn          EventType = "clock_in"
	EventClockOut         EventType = "clock_out"
	EventClockRejected    EventType = "clock_rejected"
	EventAbsencesRecorded EventType = "absences_recorded"
)

// eventLogger wraps slog.Logger for structured event logging.
type eventLogger struct {
	logger *slog.Logger
}

func newEventLogger(logger *slog.Logger) *eventLogger {
	return &eventLogger{
		logger: logger.With("component", "api"),
	}
}

func (el *eventLogger) log(event EventType, r *http.Request, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	el.logger.LogAttrs(r.Context(), slog.LevelInfo, "event", append(base, attrs...)...)
}

// logRejected records a refused clock event at WARN with the reason.
func (el *eventLogger) logRejected(r *http.Request, employeeID string, err error) {
	el.logger.LogAttrs(r.Context(), slog.LevelWarn, "event",
		slog.String("event", string(EventClockRejected)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.String("employee_id", employeeID),
		slog.String("reason", err.Error()),
	)
}
