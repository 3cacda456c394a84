package cache

import (
	"context"
	"time"
)

// NullCache backs fetch --no-cache: every lockfile lookup misses, so each
// project is downloaded again, and nothing is written.
type NullCache struct{}

// NewNullCache returns the cache used when downloads must not be reused.
func NewNullCache() Cache {
	return &NullCache{}
}

func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (c *NullCache) Delete(context.Context, string) error { return nil }

func (c *NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
