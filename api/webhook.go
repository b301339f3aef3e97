package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hris-labs/shiftgate/attendance"
	"github.com/hris-labs/shiftgate/internal/util"
	"github.com/hris-labs/shiftgate/internal/uuid"
)

const (
	// webhookQueueSize is the bounded channel capacity for outbound events.
	webhookQueueSize = 1024
	// webhookAttempts is the first delivery plus one retry.
	webhookAttempts = 2
)

// webhookEvent is the JSON payload POSTed to the external endpoint. ID is
// fixed when the record is published and repeated in the Idempotency-Key
// header on every attempt, so a receiver can drop a retried duplicate.
type webhookEvent struct {
	ID         string            `json:"id"`
	Event      string            `json:"event"`
	OccurredAt time.Time         `json:"occurred_at"`
	Record     attendance.Record `json:"record"`
}

// Webhook forwards attendance records to an external HTTP endpoint, such as
// a payroll system. Records are enqueued without blocking into a bounded
// channel and sent by a background goroutine; when the channel is full they
// are dropped. Webhook implements attendance.Notifier.
type Webhook struct {
	url        string
	header     http.Header
	client     *http.Client
	retryDelay time.Duration
	logger     *slog.Logger
	events     chan webhookEvent
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

var _ attendance.Notifier = (*Webhook)(nil)

// NewWebhook creates a dispatcher and starts its background loop. authHeader
// is a "Name: Value" line added to every request. A nil logger uses
// slog.Default.
func NewWebhook(url, authHeader string, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Webhook{
		url:        url,
		header:     http.Header{},
		client:     &http.Client{Timeout: 10 * time.Second},
		retryDelay: time.Second,
		logger:     logger.With("component", "webhook"),
		events:     make(chan webhookEvent, webhookQueueSize),
	}
	if name, value, ok := util.SplitHeader(authHeader); ok {
		w.header.Set(name, value)
	} else if authHeader != "" {
		w.logger.Warn("ignoring malformed auth header; expected \"Name: Value\"")
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Notify enqueues a record. It never blocks.
func (w *Webhook) Notify(_ context.Context, event string, rec attendance.Record) {
	evt := webhookEvent{
		ID:         uuid.New(),
		Event:      event,
		OccurredAt: time.Now().UTC().Truncate(time.Second),
		Record:     rec,
	}
	select {
	case w.events <- evt:
	default:
		w.logger.Warn("queue full, dropping record",
			"event", evt.Event, "record_id", rec.ID, "employee_id", rec.EmployeeID)
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (w *Webhook) Close() {
	w.closeOnce.Do(func() {
		close(w.events)
		w.wg.Wait()
	})
}

func (w *Webhook) loop() {
	defer w.wg.Done()
	for evt := range w.events {
		w.deliver(evt)
	}
}

// deliver sends evt, retrying once when the receiver is unreachable or
// answers 5xx. A 4xx means the receiver rejected the record; it is logged
// and not retried.
func (w *Webhook) deliver(evt webhookEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		w.logger.Error("encoding record failed", "record_id", evt.Record.ID, "error", err)
		return
	}
	log := w.logger.With("delivery_id", evt.ID, "event", evt.Event, "record_id", evt.Record.ID)

	for attempt := 1; attempt <= webhookAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(w.retryDelay)
		}
		status, err := w.post(evt, body, attempt)
		switch {
		case err != nil:
			log.Warn("delivery failed", "attempt", attempt, "error", err)
		case status >= 500:
			log.Warn("receiver error", "attempt", attempt, "status", status)
		case status >= 400:
			log.Warn("record rejected by receiver", "status", status)
			return
		default:
			log.Debug("delivered", "attempt", attempt, "status", status)
			return
		}
	}
	log.Error("giving up on record", "attempts", webhookAttempts)
}

// post makes one attempt and returns the response status.
func (w *Webhook) post(evt webhookEvent, body []byte, attempt int) (int, error) {
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	if w.header != nil {
		req.Header = w.header.Clone()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "shiftgate-webhook/1.0")
	req.Header.Set("Idempotency-Key", evt.ID)
	req.Header.Set("X-Shiftgate-Event", evt.Event)
	req.Header.Set("X-Shiftgate-Attempt", strconv.Itoa(attempt))

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
