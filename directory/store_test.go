package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hris-labs/shiftgate/shift"
)

type listerFunc func(ctx context.Context) ([]shift.Session, error)

func (f listerFunc) List(ctx context.Context) ([]shift.Session, error) { return f(ctx) }

func TestStoreDirectory(t *testing.T) {
	want := []shift.Session{{ID: 1, Name: "morning", Start: shift.NewTimeOfDay(7, 0, 0), End: shift.NewTimeOfDay(12, 0, 0)}}
	d := NewStoreDirectory(listerFunc(func(context.Context) ([]shift.Session, error) { return want, nil }))

	got, err := d.FetchSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreDirectory_ErrorIsUnavailable(t *testing.T) {
	boom := errors.New("disk on fire")
	d := NewStoreDirectory(listerFunc(func(context.Context) ([]shift.Session, error) { return nil, boom }))

	_, err := d.FetchSessions(context.Background())
	assert.ErrorIs(t, err, shift.ErrDirectoryUnavailable)
	assert.ErrorIs(t, err, boom)
}
