package shift

import (
	"context"
	"errors"
	"fmt"
)

// ErrDirectoryUnavailable is returned when session definitions cannot be
// fetched: a transport failure, a non-success response or a malformed payload.
var ErrDirectoryUnavailable = errors.New("session directory unavailable")

// Directory fetches the authoritative list of sessions. Implementations do not
// cache and return sessions in directory order.
type Directory interface {
	FetchSessions(ctx context.Context) ([]Session, error)
}

// SessionSource is what the engine reads sessions from. Cache implements it.
type SessionSource interface {
	Sessions(ctx context.Context) ([]Session, error)
}

// Unavailable wraps cause so that errors.Is(err, ErrDirectoryUnavailable)
// holds. A cause that already carries the sentinel is returned unchanged.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrDirectoryUnavailable
	}
	if errors.Is(cause, ErrDirectoryUnavailable) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrDirectoryUnavailable, cause)
}
