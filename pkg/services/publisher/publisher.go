package publisher

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/adapters"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
)

// DefaultMaxFeedLength bounds the shared feed. Trimming is approximate, so
// the live length may briefly overshoot.
const DefaultMaxFeedLength = 10000

// Publisher appends normalized offers to the price feed.
type Publisher struct {
	feed   feed.Store
	maxLen int64
}

func New(feedStore feed.Store, maxFeedLength int64) *Publisher {
	if maxFeedLength <= 0 {
		maxFeedLength = DefaultMaxFeedLength
	}
	return &Publisher{feed: feedStore, maxLen: maxFeedLength}
}

// Publish appends the offers one at a time and returns how many made it
// into the feed. A failed append drops that single offer; an error comes
// back only when every append failed, which means the feed itself is
// unavailable. The trailing trim is best-effort and never fails the batch.
func (p *Publisher) Publish(ctx context.Context, source string, offers []domain.Offer) (int, error) {
	logger := zerolog.Ctx(ctx)

	if len(offers) == 0 {
		logger.Warn().Str("source", source).Msg("no offers to publish")
		return 0, nil
	}

	published := 0
	var lastErr error
	for _, offer := range offers {
		rec := adapters.MapDomainOfferToFeedRecord(offer)
		if _, err := p.feed.Append(ctx, rec); err != nil {
			lastErr = err
			logger.Warn().
				Err(err).
				Str("source", source).
				Str("gpu_model", offer.Model).
				Msg("failed to publish offer")
			continue
		}
		published++
	}

	if err := p.feed.Trim(ctx, p.maxLen); err != nil {
		logger.Warn().Err(err).Msg("failed to trim price feed")
	}

	if published == 0 && lastErr != nil {
		return 0, fmt.Errorf("failed to publish all %d offers from %s: %w", len(offers), source, lastErr)
	}

	logger.Info().
		Str("source", source).
		Int("published", published).
		Int("offered", len(offers)).
		Msg("published offers to feed")
	return published, nil
}
