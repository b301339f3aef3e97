package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hris-labs/shiftgate/directory"
	"github.com/hris-labs/shiftgate/shift"
	"github.com/hris-labs/shiftgate/storage"
)

// SessionsCollection holds session definitions in directory wire format.
const SessionsCollection = "attendance_sessions"

// SessionStore administers session definitions. Records are keyed by a
// zero-padded ID so that storage order is ascending ID order, which is the
// directory order.
type SessionStore struct {
	mu   sync.Mutex
	repo storage.Repository
}

var _ directory.SessionLister = (*SessionStore)(nil)

// NewSessionStore returns a store over repo.
func NewSessionStore(repo storage.Repository) *SessionStore {
	return &SessionStore{repo: repo}
}

func sessionKey(id int64) string {
	return fmt.Sprintf("%020d", id)
}

// List returns every session in ascending ID order.
func (s *SessionStore) List(ctx context.Context) ([]shift.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := s.repo.List(SessionsCollection)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sessions := make([]shift.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.load(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Get returns the session with the given ID.
func (s *SessionStore) Get(ctx context.Context, id int64) (shift.Session, error) {
	if err := ctx.Err(); err != nil {
		return shift.Session{}, err
	}
	return s.load(sessionKey(id))
}

// Create validates sess, assigns the next ID and stores it.
func (s *SessionStore) Create(ctx context.Context, sess shift.Session) (shift.Session, error) {
	if err := ctx.Err(); err != nil {
		return shift.Session{}, err
	}
	if err := sess.Validate(); err != nil {
		return shift.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.List(ctx)
	if err != nil {
		return shift.Session{}, err
	}
	if err := checkUniqueName(existing, sess); err != nil {
		return shift.Session{}, err
	}
	sess.ID = nextID(existing)
	if err := s.save(sess); err != nil {
		return shift.Session{}, err
	}
	return sess, nil
}

// Update replaces an existing session. The name must stay unique.
func (s *SessionStore) Update(ctx context.Context, sess shift.Session) (shift.Session, error) {
	if err := ctx.Err(); err != nil {
		return shift.Session{}, err
	}
	if err := sess.Validate(); err != nil {
		return shift.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(sessionKey(sess.ID)); err != nil {
		return shift.Session{}, err
	}
	existing, err := s.List(ctx)
	if err != nil {
		return shift.Session{}, err
	}
	if err := checkUniqueName(existing, sess); err != nil {
		return shift.Session{}, err
	}
	if err := s.save(sess); err != nil {
		return shift.Session{}, err
	}
	return sess, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(SessionsCollection, sessionKey(id)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrSessionNotFound, id)
		}
		return fmt.Errorf("deleting session %d: %w", id, err)
	}
	return nil
}

// ReplaceAll swaps the full session list in one transaction. Sessions with a
// zero ID are numbered after the highest explicit ID, in input order.
func (s *SessionStore) ReplaceAll(ctx context.Context, sessions []shift.Session) ([]shift.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]shift.Session, 0, len(sessions))
	seenIDs := make(map[int64]bool, len(sessions))
	seenNames := make(map[string]bool, len(sessions))
	for _, sess := range sessions {
		if err := sess.Validate(); err != nil {
			return nil, err
		}
		folded := shift.FoldName(sess.Name)
		if seenNames[folded] {
			return nil, fmt.Errorf("%w: %s", ErrSessionExists, sess.Name)
		}
		seenNames[folded] = true
		if sess.ID < 0 {
			return nil, fmt.Errorf("%w: %s: negative id", ErrInvalidSession, sess.Name)
		}
		if sess.ID != 0 {
			if seenIDs[sess.ID] {
				return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidSession, sess.ID)
			}
			seenIDs[sess.ID] = true
		}
		out = append(out, sess)
	}
	next := nextID(out)
	for i := range out {
		if out[i].ID == 0 {
			out[i].ID = next
			next++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.Batch(SessionsCollection, func(tx storage.BatchTx) error {
		if err := tx.Clear(); err != nil {
			return err
		}
		for _, sess := range out {
			data, err := json.Marshal(directory.FromSession(sess))
			if err != nil {
				return err
			}
			if err := tx.Put(sessionKey(sess.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replacing sessions: %w", err)
	}
	return out, nil
}

func (s *SessionStore) load(key string) (shift.Session, error) {
	data, err := s.repo.Get(SessionsCollection, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return shift.Session{}, ErrSessionNotFound
		}
		return shift.Session{}, fmt.Errorf("loading session %s: %w", key, err)
	}
	var p directory.SessionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return shift.Session{}, fmt.Errorf("decoding session %s: %w", key, err)
	}
	return p.Session()
}

func (s *SessionStore) save(sess shift.Session) error {
	data, err := json.Marshal(directory.FromSession(sess))
	if err != nil {
		return err
	}
	if err := s.repo.Put(SessionsCollection, sessionKey(sess.ID), data); err != nil {
		return fmt.Errorf("saving session %d: %w", sess.ID, err)
	}
	return nil
}

func checkUniqueName(existing []shift.Session, sess shift.Session) error {
	for _, other := range existing {
		if other.ID != sess.ID && other.MatchesName(sess.Name) {
			return fmt.Errorf("%w: %s", ErrSessionExists, sess.Name)
		}
	}
	return nil
}

func nextID(sessions []shift.Session) int64 {
	var highest int64
	for _, s := range sessions {
		if s.ID > highest {
			highest = s.ID
		}
	}
	return highest + 1
}
