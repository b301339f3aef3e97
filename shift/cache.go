package shift

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched session list stays valid.
const DefaultCacheTTL = 5 * time.Minute

// Cache keeps the last successfully fetched session list for a fixed TTL.
//
// The snapshot is replaced wholesale on refresh. Callers that observe an
// expired snapshot concurrently each fetch from the directory; the last
// writer wins, which is harmless because every fetch reads the same source.
type Cache struct {
	dir        Directory
	ttl        time.Duration
	serveStale bool
	clock      Clock

	mu       sync.RWMutex
	sessions []Session
	fetched  time.Time
	valid    bool
}

var _ SessionSource = (*Cache)(nil)

// NewCache returns a cache in front of dir.
func NewCache(dir Directory, opts ...CacheOption) *Cache {
	c := &Cache{
		dir:   dir,
		ttl:   DefaultCacheTTL,
		clock: SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sessions returns the cached list while it is fresh and otherwise refreshes
// it from the directory. On a failed refresh the directory error is returned,
// wrapped as ErrDirectoryUnavailable, unless stale serving is enabled and a
// previous snapshot exists.
func (c *Cache) Sessions(ctx context.Context) ([]Session, error) {
	now := c.clock.Now()

	c.mu.RLock()
	if c.valid && now.Sub(c.fetched) < c.ttl {
		sessions := c.sessions
		c.mu.RUnlock()
		return sessions, nil
	}
	c.mu.RUnlock()

	fetched, err := c.dir.FetchSessions(ctx)
	if err != nil {
		if c.serveStale {
			c.mu.RLock()
			defer c.mu.RUnlock()
			if c.valid {
				return c.sessions, nil
			}
		}
		return nil, Unavailable(err)
	}

	c.mu.Lock()
	c.sessions = fetched
	c.fetched = now
	c.valid = true
	c.mu.Unlock()
	return fetched, nil
}

// Invalidate drops the snapshot so the next call fetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.sessions = nil
	c.valid = false
	c.mu.Unlock()
}

// FetchedAt returns when the current snapshot was fetched, and false when
// there is none.
func (c *Cache) FetchedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetched, c.valid
}
