package providers

import (
	"context"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// Provider fetches raw offers from one GPU market. Implementations perform
// a single fetch attempt per call; retries, rate limiting and fallback are
// the orchestrator's concern.
type Provider interface {
	Name() string
	// RateLimit is the minimum spacing between live fetches against the
	// upstream market.
	RateLimit() time.Duration
	Fetch(ctx context.Context) ([]domain.RawOffer, error)
}

// RateSource resolves the USD price of a provider's settlement token.
// Lookups are best effort: a miss means the caller keeps its static rate.
type RateSource interface {
	TokenRate(ctx context.Context, token string) (float64, bool)
}

// Deps carries the shared pieces provider factories may need. Factories
// pick what applies to them and ignore the rest.
type Deps struct {
	Client         *Client
	Rates          RateSource
	RunPodAPIKey   string
	UAKTUSDRate    float64
	IOTokenUSDRate float64
	AWSRegions     []string
}
