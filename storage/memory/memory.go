// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"sort"
	"sync"

	"github.com/hris-labs/shiftgate/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing, demos, and single-process use cases.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[string][]byte)}
}

func (r *Repository) Put(collection, recordID string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.putLocked(collection, recordID, data)
}

func (r *Repository) putLocked(collection, recordID string, data []byte) error {
	if _, ok := r.data[collection]; !ok {
		r.data[collection] = make(map[string][]byte)
	}
	r.data[collection][recordID] = append([]byte(nil), data...)
	return nil
}

func (r *Repository) Get(collection, recordID string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.data[collection][recordID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (r *Repository) List(collection string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.data[collection]))
	for k := range r.data[collection] {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repository) Delete(collection, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(collection, recordID)
}

func (r *Repository) deleteLocked(collection, recordID string) error {
	records, ok := r.data[collection]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := records[recordID]; !ok {
		return storage.ErrNotFound
	}
	delete(records, recordID)
	return nil
}

// Batch executes fn within a batch transaction. On error, all writes are rolled back.
func (r *Repository) Batch(collection string, fn func(tx storage.BatchTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.snapshot(collection)

	tx := &memoryBatchTx{repo: r, collection: collection}
	if err := fn(tx); err != nil {
		r.restore(collection, snapshot)
		return err
	}
	return nil
}

func (r *Repository) snapshot(collection string) map[string][]byte {
	original, ok := r.data[collection]
	if !ok {
		return nil
	}
	cp := make(map[string][]byte, len(original))
	for k, v := range original {
		cp[k] = append([]byte(nil), v...)
	}
	return cp
}

func (r *Repository) restore(collection string, snapshot map[string][]byte) {
	if snapshot == nil {
		delete(r.data, collection)
	} else {
		r.data[collection] = snapshot
	}
}

type memoryBatchTx struct {
	repo       *Repository
	collection string
}

func (tx *memoryBatchTx) Put(recordID string, data []byte) error {
	return tx.repo.putLocked(tx.collection, recordID, data)
}

func (tx *memoryBatchTx) Delete(recordID string) error {
	return tx.repo.deleteLocked(tx.collection, recordID)
}

func (tx *memoryBatchTx) Clear() error {
	delete(tx.repo.data, tx.collection)
	return nil
}
