package directory

import (
	"context"

	"github.com/hris-labs/shiftgate/shift"
)

// SessionLister lists stored sessions in directory order.
type SessionLister interface {
	List(ctx context.Context) ([]shift.Session, error)
}

// StoreDirectory serves sessions straight from the local session store, for
// deployments where the engine and the session store share a process.
type StoreDirectory struct {
	store SessionLister
}

var _ shift.Directory = (*StoreDirectory)(nil)

// NewStoreDirectory returns a directory backed by store.
func NewStoreDirectory(store SessionLister) *StoreDirectory {
	return &StoreDirectory{store: store}
}

// FetchSessions lists the stored sessions. Storage errors are reported as
// shift.ErrDirectoryUnavailable.
func (d *StoreDirectory) FetchSessions(ctx context.Context) ([]shift.Session, error) {
	sessions, err := d.store.List(ctx)
	if err != nil {
		return nil, shift.Unavailable(err)
	}
	return sessions, nil
}
