// Package postgres implements storage.Repository backed by PostgreSQL.
//
// The records table uses a composite primary key (collection, record_id)
// that mirrors the key space used by the BBolt and in-memory backends.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hris-labs/shiftgate/storage"
)

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) Put(collection, recordID string, data []byte) error {
	return put(context.Background(), s.pool, collection, recordID, data)
}

func (s *Store) Get(collection, recordID string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(context.Background(),
		`SELECT data FROM records WHERE collection = $1 AND record_id = $2`,
		collection, recordID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Delete(collection, recordID string) error {
	return del(context.Background(), s.pool, collection, recordID)
}

func (s *Store) List(collection string) ([]string, error) {
	rows, err := s.pool.Query(context.Background(),
		`SELECT record_id FROM records WHERE collection = $1 ORDER BY record_id COLLATE "C"`,
		collection)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Batch runs fn inside a single transaction.
func (s *Store) Batch(collection string, fn func(tx storage.BatchTx) error) error {
	ctx := context.Background()
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgBatchTx{ctx: ctx, tx: tx, collection: collection})
	})
}

type pgBatchTx struct {
	ctx        context.Context
	tx         pgx.Tx
	collection string
}

func (b *pgBatchTx) Put(recordID string, data []byte) error {
	return put(b.ctx, b.tx, b.collection, recordID, data)
}

func (b *pgBatchTx) Delete(recordID string) error {
	return del(b.ctx, b.tx, b.collection, recordID)
}

func (b *pgBatchTx) Clear() error {
	_, err := b.tx.Exec(b.ctx, `DELETE FROM records WHERE collection = $1`, b.collection)
	return err
}

func put(ctx context.Context, db execer, collection, recordID string, data []byte) error {
	_, err := db.Exec(ctx,
		`INSERT INTO records (collection, record_id, data)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (collection, record_id)
		 DO UPDATE SET data = $3, updated_at = now()`,
		collection, recordID, data)
	return err
}

func del(ctx context.Context, db execer, collection, recordID string) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND record_id = $2`,
		collection, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
	}
	return nil
}
