// Package bbolt provides a BBolt-backed storage repository.
package bbolt

import (
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"

	"github.com/hris-labs/shiftgate/storage"
)

// Store implements storage.Repository backed by a BBolt database.
// Each collection is a bucket; record IDs are bucket keys.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(collection, recordID string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return b.Put([]byte(recordID), data)
	})
}

func (s *Store) Get(collection, recordID string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
		}
		data := b.Get([]byte(recordID))
		if data == nil {
			return fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(collection, recordID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteFromBucket(tx.Bucket([]byte(collection)), collection, recordID)
	})
}

func deleteFromBucket(b *bbolt.Bucket, collection, recordID string) error {
	if b == nil || b.Get([]byte(recordID)) == nil {
		return fmt.Errorf("%s/%s: %w", collection, recordID, storage.ErrNotFound)
	}
	return b.Delete([]byte(recordID))
}

func (s *Store) List(collection string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

type boltBatchTx struct {
	tx         *bbolt.Tx
	collection []byte
}

func (b *boltBatchTx) bucket() (*bbolt.Bucket, error) {
	return b.tx.CreateBucketIfNotExists(b.collection)
}

func (b *boltBatchTx) Put(recordID string, data []byte) error {
	bucket, err := b.bucket()
	if err != nil {
		return err
	}
	return bucket.Put([]byte(recordID), data)
}

func (b *boltBatchTx) Delete(recordID string) error {
	return deleteFromBucket(b.tx.Bucket(b.collection), string(b.collection), recordID)
}

func (b *boltBatchTx) Clear() error {
	err := b.tx.DeleteBucket(b.collection)
	if err != nil && !errors.Is(err, bolterrors.ErrBucketNotFound) {
		return err
	}
	return nil
}

// Batch runs fn inside a single read-write transaction; an error from fn
// rolls back every write.
func (s *Store) Batch(collection string, fn func(tx storage.BatchTx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltBatchTx{tx: tx, collection: []byte(collection)})
	})
}
