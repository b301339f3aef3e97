package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hris-labs/shiftgate/config"
	"github.com/hris-labs/shiftgate/storage"
	bboltstorage "github.com/hris-labs/shiftgate/storage/bbolt"
	"github.com/hris-labs/shiftgate/storage/memory"
	"github.com/hris-labs/shiftgate/storage/postgres"
	"github.com/hris-labs/shiftgate/storage/sqlite"
)

// openRepository opens the configured backend. The returned close function
// is never nil.
func openRepository(ctx context.Context, cfg *config.Config) (storage.Repository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewRepository(), noop, nil

	case config.BackendPostgres:
		store, err := postgres.NewRepositoryFromDSN(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return store, func() error { store.Close(); return nil }, nil

	case config.BackendSQLite:
		path := cfg.StoragePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, noop, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, store.Close, nil

	case config.BackendBbolt:
		path := cfg.StoragePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, noop, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := bboltstorage.NewRepositoryFromFile(path, nil)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open bbolt storage: %w", err)
		}
		return store, store.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
