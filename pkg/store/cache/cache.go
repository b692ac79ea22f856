package cache

import (
	"context"
	"time"
)

// Store is a best-effort byte cache with per-entry TTLs. Read errors are
// treated as misses by callers; the cache never sits on the critical path.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
