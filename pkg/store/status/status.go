package status

import (
	"context"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// Store keeps the latest scraper metrics snapshot so the API can serve
// /stats without talking to the scrape process.
type Store interface {
	SaveScrapeStats(ctx context.Context, stats domain.ScrapeStats) error
	// LoadScrapeStats returns false when no snapshot exists or the last
	// one has expired.
	LoadScrapeStats(ctx context.Context) (domain.ScrapeStats, bool, error)
}
