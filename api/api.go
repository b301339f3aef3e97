// Package api exposes session administration, engine verdicts and attendance
// recording over HTTP.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/hris-labs/shiftgate/attendance"
)

// Invalidator drops cached session snapshots. *shift.Cache implements it.
type Invalidator interface {
	Invalidate()
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	sessions *attendance.SessionStore
	records  *attendance.RecordStore
	recorder *attendance.Recorder
	engine   attendance.Evaluator
	cache    Invalidator
	events   *eventLogger
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for attendance events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.events = newEventLogger(logger)
	}
}

// WithCache registers the session cache to invalidate after administrative
// writes, so the engine sees the change on its next call.
func WithCache(cache Invalidator) Option {
	return func(a *API) {
		a.cache = cache
	}
}

// New creates a new API instance.
func New(sessions *attendance.SessionStore, records *attendance.RecordStore, recorder *attendance.Recorder, engine attendance.Evaluator, opts ...Option) *API {
	a := &API{
		sessions: sessions,
		records:  records,
		recorder: recorder,
		engine:   engine,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.events == nil {
		a.events = newEventLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(NoStore)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/sessions", a.ListSessions)
	r.Post("/sessions", a.CreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", a.GetSession)
		r.Put("/", a.UpdateSession)
		r.Delete("/", a.DeleteSession)
	})

	r.Get("/evaluate", a.Evaluate)

	r.Get("/attendance", a.ListAttendance)
	r.Post("/attendance/clock-in", a.ClockIn)
	r.Post("/attendance/clock-out", a.ClockOut)
	r.Post("/attendance/tap", a.Tap)
	r.Post("/attendance/absences", a.MarkAbsences)

	return r
}

func (a *API) invalidate() {
	if a.cache != nil {
		a.cache.Invalidate()
	}
}
