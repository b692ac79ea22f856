package feed

import (
	"context"

	"github.com/gpu-yield/price-feed/pkg/models/store"
)

// StreamName is the shared append-only feed all scrapers publish into and
// all readers consume from.
const StreamName = "raw_prices"

// Store is an append-only price feed. Backends assign entry ids that order
// records by insertion; Recent returns the newest entries first.
type Store interface {
	Append(ctx context.Context, rec store.FeedRecord) (string, error)
	Recent(ctx context.Context, count int) ([]store.FeedRecord, error)
	// Trim drops the oldest entries so that roughly maxLen remain.
	// Backends may overshoot for efficiency.
	Trim(ctx context.Context, maxLen int64) error
	Len(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
