// Package cache provides byte caches used to memoize rendered SVG output.
//
// Graph records live only in memory; the cache stores nothing but derived
// artifacts (SVG bytes keyed by source hash and engine), so any backend may
// drop entries at any time without losing data.
//
// Three backends are provided:
//   - MemoryCache: in-process map with expiry, the default
//   - RedisCache: shared cache for multi-instance deployments
//   - NullCache: disables memoization entirely
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers when an item is not found in cache.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the interface for memoization backends.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss.
// Errors indicate backend failure, not absence.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry does not expire.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
