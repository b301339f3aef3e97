// Package sqlite implements storage.Repository on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hris-labs/shiftgate/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store implements storage.Repository backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Repository = (*Store)(nil)

// Open creates or opens a SQLite database at the given path and applies the
// schema. The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Put(collection, recordID string, data []byte) error {
	return put(context.Background(), s.db, collection, recordID, data)
}

func (s *Store) Get(collection, recordID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM records WHERE collection = ? AND record_id = ?`,
		collection, recordID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Delete(collection, recordID string) error {
	return del(context.Background(), s.db, collection, recordID)
}

func (s *Store) List(collection string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT record_id FROM records WHERE collection = ? ORDER BY record_id`,
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Batch runs fn inside a single transaction; an error from fn rolls back.
func (s *Store) Batch(collection string, fn func(tx storage.BatchTx) error) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&sqliteBatchTx{ctx: ctx, tx: tx, collection: collection}); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	return tx.Commit()
}

type sqliteBatchTx struct {
	ctx        context.Context
	tx         *sql.Tx
	collection string
}

func (b *sqliteBatchTx) Put(recordID string, data []byte) error {
	return put(b.ctx, b.tx, b.collection, recordID, data)
}

func (b *sqliteBatchTx) Delete(recordID string) error {
	return del(b.ctx, b.tx, b.collection, recordID)
}

func (b *sqliteBatchTx) Clear() error {
	_, err := b.tx.ExecContext(b.ctx, `DELETE FROM records WHERE collection = ?`, b.collection)
	return err
}

func put(ctx context.Context, db execer, collection, recordID string, data []byte) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO records (collection, record_id, data) VALUES (?, ?, ?)
		 ON CONFLICT (collection, record_id) DO UPDATE SET data = excluded.data`,
		collection, recordID, data)
	return err
}

func del(ctx context.Context, db execer, collection, recordID string) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND record_id = ?`,
		collection, recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
	}
	return nil
}
