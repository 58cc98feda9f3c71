// internal/cache/cache.go
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache-aside interface with per-entry TTL.
// Implementations must treat a miss as (nil, false, nil), not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
