// Package storagetest holds the behaviour every storage.Repository backend
// must share. Backend packages call Run from their own tests.
package storagetest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/hris-labs/shiftgate/storage"
)

// Run exercises repo against the storage.Repository contract. The repository
// must be empty for the collections "sessions" and "records".
func Run(t *testing.T, repo storage.Repository) {
	t.Helper()
	collection := "sessions"

	t.Run("PutGet", func(t *testing.T) {
		if err := repo.Put(collection, "1", []byte(`{"name":"morning"}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := repo.Get(collection, "1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte(`{"name":"morning"}`)) {
			t.Errorf("Get returned %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := repo.Put(collection, "1", []byte(`{"name":"early"}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := repo.Get(collection, "1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"name":"early"}` {
			t.Errorf("expected overwritten value, got %q", got)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := repo.Get(collection, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		_, err = repo.Get("no-such-collection", "1")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown collection, got %v", err)
		}
	})

	t.Run("ListSorted", func(t *testing.T) {
		for _, id := range []string{"3", "2"} {
			if err := repo.Put(collection, id, []byte(`{}`)); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}
		ids, err := repo.List(collection)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if fmt.Sprint(ids) != "[1 2 3]" {
			t.Errorf("expected [1 2 3], got %v", ids)
		}

		empty, err := repo.List("no-such-collection")
		if err != nil {
			t.Fatalf("List of unknown collection failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected no IDs, got %v", empty)
		}
	})

	t.Run("CollectionsIsolated", func(t *testing.T) {
		if err := repo.Put("records", "1", []byte(`{"record":true}`)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := repo.Get(collection, "1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) == `{"record":true}` {
			t.Error("collections must not share a key space")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(collection, "3"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get(collection, "3"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(collection, "3"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("BatchCommit", func(t *testing.T) {
		err := repo.Batch(collection, func(tx storage.BatchTx) error {
			if err := tx.Clear(); err != nil {
				return err
			}
			if err := tx.Put("10", []byte(`{"name":"a"}`)); err != nil {
				return err
			}
			return tx.Put("11", []byte(`{"name":"b"}`))
		})
		if err != nil {
			t.Fatalf("Batch failed: %v", err)
		}
		ids, err := repo.List(collection)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if fmt.Sprint(ids) != "[10 11]" {
			t.Errorf("expected [10 11] after replace, got %v", ids)
		}
	})

	t.Run("BatchRollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.Batch(collection, func(tx storage.BatchTx) error {
			if err := tx.Clear(); err != nil {
				return err
			}
			if err := tx.Put("99", []byte(`{}`)); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected batch error, got %v", err)
		}
		ids, err := repo.List(collection)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if fmt.Sprint(ids) != "[10 11]" {
			t.Errorf("rollback should restore [10 11], got %v", ids)
		}
	})

	t.Run("BatchDeleteMissing", func(t *testing.T) {
		err := repo.Batch(collection, func(tx storage.BatchTx) error {
			return tx.Delete("missing")
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
