package shift

import (
	"log/slog"
	"time"
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets how long a fetched session list is served without refetching.
// Non-positive values disable caching.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithServeStale makes the cache return the previous snapshot when a refresh
// fails after the TTL has elapsed. Default: false.
func WithServeStale(serveStale bool) CacheOption {
	return func(c *Cache) {
		c.serveStale = serveStale
	}
}

// WithCacheClock sets the clock used for expiry checks.
func WithCacheClock(clock Clock) CacheOption {
	return func(c *Cache) {
		c.clock = clock
	}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger used to report directory failures.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger.With("component", "shift")
	}
}

// WithFallbackHook registers a callback invoked every time an operation
// answers without directory data.
func WithFallbackHook(fn func(FallbackEvent)) EngineOption {
	return func(e *Engine) {
		e.onFallback = fn
	}
}

// WithClock sets the clock Evaluate uses when given a zero time.
func WithClock(clock Clock) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}
