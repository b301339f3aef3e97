// Package directory provides Session Directory implementations: a client for
// a remote JSON endpoint and an adapter over the local session store.
package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hris-labs/shiftgate/internal/util"
	"github.com/hris-labs/shiftgate/shift"
)

const (
	// DefaultTimeout bounds a single directory fetch.
	DefaultTimeout = 5 * time.Second
	// maxBodyBytes caps the response body read from the directory.
	maxBodyBytes = 1 << 20
)

// HTTPDirectory fetches sessions from a remote endpoint returning a JSON
// array of SessionPayload. It never caches.
type HTTPDirectory struct {
	url        string
	authHeader string // "Header: Value" format, e.g., "Authorization: Bearer xxx"
	client     *http.Client
}

var _ shift.Directory = (*HTTPDirectory)(nil)

// HTTPOption configures an HTTPDirectory.
type HTTPOption func(*HTTPDirectory)

// WithTimeout sets the request timeout. Default: DefaultTimeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(d *HTTPDirectory) {
		d.client.Timeout = timeout
	}
}

// WithAuthHeader adds a "Header: Value" pair to every request.
func WithAuthHeader(header string) HTTPOption {
	return func(d *HTTPDirectory) {
		d.authHeader = header
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is kept as is.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(d *HTTPDirectory) {
		d.client = client
	}
}

// NewHTTPDirectory returns a directory reading from url.
func NewHTTPDirectory(url string, opts ...HTTPOption) *HTTPDirectory {
	d := &HTTPDirectory{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FetchSessions performs one GET against the directory. Every failure is
// wrapped with shift.ErrDirectoryUnavailable.
func (d *HTTPDirectory) FetchSessions(ctx context.Context) ([]shift.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, shift.Unavailable(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "shiftgate-directory/1.0")
	if name, value, ok := util.SplitHeader(d.authHeader); ok {
		req.Header.Set(name, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, shift.Unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck
		return nil, shift.Unavailable(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, d.url))
	}

	sessions, err := DecodeSessions(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, shift.Unavailable(err)
	}
	return sessions, nil
}
