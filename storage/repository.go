// Package storage provides the storage abstraction for JSON-encoded records
// grouped into named collections.
package storage

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// BatchTx provides writes within an atomic transaction.
// The collection is scoped to the batch, so methods don't require it.
type BatchTx interface {
	Put(recordID string, data []byte) error
	Delete(recordID string) error
	// Clear removes every record in the collection.
	Clear() error
}

// Repository defines the interface for record storage.
// List returns record IDs in ascending byte order.
type Repository interface {
	Put(collection string, recordID string, data []byte) error
	Get(collection string, recordID string) ([]byte, error)
	Delete(collection string, recordID string) error
	List(collection string) ([]string, error)
	Batch(collection string, fn func(tx BatchTx) error) error
}
