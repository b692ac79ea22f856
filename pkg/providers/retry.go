package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// RetryPolicy retries transient fetch failures with doubling backoff.
// Config errors abort immediately, whatever the attempt budget.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the upstream markets' tolerance: three
// attempts spaced 2s, 4s.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second}

// Fetch runs the provider's Fetch under the policy.
func (p RetryPolicy) Fetch(ctx context.Context, provider Provider) ([]domain.RawOffer, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		offers, err := provider.Fetch(ctx)
		if err == nil {
			return offers, nil
		}
		lastErr = err

		if IsConfigError(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("source", provider.Name()).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, fmt.Errorf("after %d attempts, last error: %w", attempts, lastErr)
}
