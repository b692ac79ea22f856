// Package rates resolves USD quotes for the tokens some GPU markets price
// in, with a cache in front of the upstream quote API.
package rates

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/providers"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
)

const (
	defaultEndpoint = "https://api.coingecko.com/api/v3/simple/price"

	// DefaultCacheTTL keeps quote traffic well under the public API limits.
	DefaultCacheTTL = time.Hour

	cacheKeyPrefix = "rates:"
	sourceName     = "rates"
)

type Service struct {
	client  *providers.Client
	cache   cache.Store
	ttl     time.Duration
	baseURL string
}

func New(client *providers.Client, cacheStore cache.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		client:  client,
		cache:   cacheStore,
		ttl:     ttl,
		baseURL: defaultEndpoint,
	}
}

// WithEndpoint points the service at an alternative quote API.
func (s *Service) WithEndpoint(endpoint string) *Service {
	if endpoint != "" {
		s.baseURL = endpoint
	}
	return s
}

// TokenRate returns the cached or freshly fetched USD rate for a token id.
// Quote failures are soft, callers fall back to their configured static
// rates.
func (s *Service) TokenRate(ctx context.Context, token string) (float64, bool) {
	if token == "" {
		return 0, false
	}

	key := cacheKeyPrefix + token
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			if rate, err := strconv.ParseFloat(string(raw), 64); err == nil {
				return rate, true
			}
		}
	}

	rate, err := s.fetch(ctx, token)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("token", token).Msg("token rate lookup failed")
		return 0, false
	}

	if s.cache != nil {
		encoded := []byte(strconv.FormatFloat(rate, 'f', -1, 64))
		if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("token", token).Msg("failed to cache token rate")
		}
	}
	return rate, true
}

func (s *Service) fetch(ctx context.Context, token string) (float64, error) {
	query := url.Values{}
	query.Set("ids", token)
	query.Set("vs_currencies", "usd")
	endpoint := s.baseURL + "?" + query.Encode()

	var quotes map[string]map[string]float64
	if err := s.client.GetJSON(ctx, sourceName, endpoint, nil, &quotes); err != nil {
		return 0, err
	}

	entry, ok := quotes[token]
	if !ok {
		return 0, fmt.Errorf("no quote for token %s", token)
	}
	usd, ok := entry["usd"]
	if !ok || usd <= 0 {
		return 0, fmt.Errorf("no usable usd quote for token %s", token)
	}
	return usd, nil
}
