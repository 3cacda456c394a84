// Package cache stores downloaded lockfiles between fetch runs.
//
// Three backends share the [Cache] interface:
//   - [FileCache]: one JSON entry per key under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance, when cache.redis_addr is set
//   - [NullCache]: caching disabled (--no-cache)
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long fetched lockfiles stay cached.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// LockfileKey is the cache key of a repository's package-lock.json.
func LockfileKey(owner, repo string) string {
	return "lockfile:" + owner + "/" + repo
}
