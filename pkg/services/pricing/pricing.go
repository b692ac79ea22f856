// Package pricing is the read side of the price feed: it reduces recent
// feed records to the best offer per GPU model, serves the cached delta
// response, enriches provider listings and answers ROI calculations.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/adapters"
	"github.com/gpu-yield/price-feed/pkg/models/api"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/services/normalizer"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
)

const (
	// DefaultScanDepth is how many feed records a delta scan covers.
	DefaultScanDepth = 200
	// MaxScanDepth caps the scan window; provider listings always use it.
	MaxScanDepth = 1000
	// DefaultCacheTTL is how long a computed delta response is reused.
	DefaultCacheTTL = 30 * time.Second
	// FallbackDeltaUSDHour is the historical average yield delta, used by
	// ROI calculations when the feed has no live price for the model.
	FallbackDeltaUSDHour = 0.11

	deltaCacheKey = "cache:/delta"
)

// ErrInvalidRequest marks client errors so handlers can answer 400
// instead of 500.
var ErrInvalidRequest = errors.New("invalid request")

// Config tunes the read path. Zero values fall back to defaults.
type Config struct {
	ScanDepth   int
	CacheTTL    time.Duration
	MaxPriceUSD float64
}

// Service reads the feed and answers aggregation queries. The cache store
// is optional; without one every delta request recomputes.
type Service struct {
	feed      feed.Store
	cache     cache.Store
	scanDepth int
	ttl       time.Duration
	maxPrice  float64
}

func New(feedStore feed.Store, cacheStore cache.Store, cfg Config) *Service {
	if cfg.ScanDepth <= 0 {
		cfg.ScanDepth = DefaultScanDepth
	}
	if cfg.ScanDepth > MaxScanDepth {
		cfg.ScanDepth = MaxScanDepth
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.MaxPriceUSD <= 0 {
		cfg.MaxPriceUSD = normalizer.DefaultMaxPriceUSDHour
	}
	return &Service{
		feed:      feedStore,
		cache:     cacheStore,
		scanDepth: cfg.ScanDepth,
		ttl:       cfg.CacheTTL,
		maxPrice:  cfg.MaxPriceUSD,
	}
}

// CacheTTL reports how long delta responses stay cached, so handlers can
// advertise a matching max-age.
func (s *Service) CacheTTL() time.Duration {
	return s.ttl
}

// BestOffers scans the most recent feed records and reduces them to one
// offer per GPU model. The renter view keeps the lowest price, the
// operator view the highest. On equal prices the newer record wins.
func (s *Service) BestOffers(ctx context.Context, view domain.PriceView, filter domain.OfferFilter) ([]domain.BestOffer, error) {
	records, err := s.feed.Recent(ctx, s.scanDepth)
	if err != nil {
		return nil, fmt.Errorf("reading price feed: %w", err)
	}

	best := make(map[string]domain.BestOffer)
	for _, rec := range records {
		offer, ok := adapters.MapFeedRecordToDomainOffer(rec)
		if !ok {
			continue
		}
		if offer.PriceUSDHour <= 0 || offer.PriceUSDHour > s.maxPrice {
			continue
		}
		if !matchesFilter(offer, filter) {
			continue
		}

		current, seen := best[offer.Model]
		if !seen || better(view, offer.PriceUSDHour, current.PriceUSDHour) {
			best[offer.Model] = domain.BestOffer{
				Model:        offer.Model,
				Source:       offer.Source,
				PriceUSDHour: offer.PriceUSDHour,
				Region:       offer.Region,
				Availability: offer.Availability,
				ObservedAt:   offer.ObservedAt,
			}
		}
	}

	models := make([]string, 0, len(best))
	for model := range best {
		models = append(models, model)
	}
	sort.Strings(models)

	out := make([]domain.BestOffer, 0, len(best))
	for _, model := range models {
		out = append(out, best[model])
	}
	return out, nil
}

// Delta answers the renter-view best offers, serving a cached response
// when one is still fresh. Cache failures degrade to a recompute.
func (s *Service) Delta(ctx context.Context, filter domain.OfferFilter) (api.DeltaResponse, error) {
	logger := zerolog.Ctx(ctx)
	key := deltaCacheKey + filterCacheSuffix(filter)

	if s.cache != nil {
		raw, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("delta cache read failed")
		} else if hit {
			var cached api.DeltaResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			logger.Warn().Str("key", key).Msg("discarding unreadable delta cache entry")
		}
	}

	best, err := s.BestOffers(ctx, domain.ViewRenter, filter)
	if err != nil {
		return api.DeltaResponse{}, err
	}

	resp := api.DeltaResponse{
		Deltas:     make([]api.GPUPriceDelta, 0, len(best)),
		TotalCount: len(best),
	}
	for _, b := range best {
		resp.Deltas = append(resp.Deltas, adapters.MapBestOfferDomainToApi(b))
		if b.ObservedAt.After(resp.LastUpdated) {
			resp.LastUpdated = b.ObservedAt
		}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("delta cache write failed")
			}
		}
	}
	return resp, nil
}

// ROI estimates an operator's monthly profit for a GPU model. The hourly
// rate comes from the model's live renter-view best price; without one the
// historical average delta applies. Feed trouble never fails the
// calculation, it only forces the fallback rate.
func (s *Service) ROI(ctx context.Context, req api.ROICalcRequest) (api.ROICalcResponse, error) {
	switch {
	case strings.TrimSpace(req.GPUModel) == "":
		return api.ROICalcResponse{}, fmt.Errorf("%w: gpu_model is required", ErrInvalidRequest)
	case req.HoursPerDay <= 0 || req.HoursPerDay > 24:
		return api.ROICalcResponse{}, fmt.Errorf("%w: hours_per_day must be between 0 and 24", ErrInvalidRequest)
	case req.PowerCostKWh < 0:
		return api.ROICalcResponse{}, fmt.Errorf("%w: power_cost_kwh cannot be negative", ErrInvalidRequest)
	}

	rate := FallbackDeltaUSDHour
	best, err := s.BestOffers(ctx, domain.ViewRenter, domain.OfferFilter{ModelContains: req.GPUModel})
	switch {
	case err != nil:
		zerolog.Ctx(ctx).Warn().Err(err).Msg("roi falling back to historical rate")
	case len(best) > 0:
		rate = best[0].PriceUSDHour
		for _, b := range best[1:] {
			if b.PriceUSDHour < rate {
				rate = b.PriceUSDHour
			}
		}
	}

	monthly := (rate - req.PowerCostKWh) * req.HoursPerDay * 30
	return api.ROICalcResponse{
		GPUModel:               req.GPUModel,
		HourlyRateUSD:          rate,
		PotentialMonthlyProfit: math.Round(monthly*100) / 100,
	}, nil
}

func better(view domain.PriceView, candidate, current float64) bool {
	if view == domain.ViewOperator {
		return candidate > current
	}
	return candidate < current
}

func matchesFilter(offer domain.Offer, f domain.OfferFilter) bool {
	if f.Source != "" && offer.Source != f.Source {
		return false
	}
	if f.Region != "" && offer.Region != f.Region {
		return false
	}
	if f.Model != "" && offer.Model != f.Model {
		return false
	}
	if f.ModelContains != "" && !strings.Contains(strings.ToLower(offer.Model), strings.ToLower(f.ModelContains)) {
		return false
	}
	if f.MinAvailability > 0 && offer.Availability < f.MinAvailability {
		return false
	}
	if f.MinPrice > 0 && offer.PriceUSDHour < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && offer.PriceUSDHour > f.MaxPrice {
		return false
	}
	return true
}

// filterCacheSuffix keys cached responses by every constraint that shapes
// them, so filtered and unfiltered requests never share an entry.
func filterCacheSuffix(f domain.OfferFilter) string {
	var parts []string
	if f.Source != "" {
		parts = append(parts, "source="+f.Source)
	}
	if f.Region != "" {
		parts = append(parts, "region="+f.Region)
	}
	if f.Model != "" {
		parts = append(parts, "model="+f.Model)
	}
	if f.ModelContains != "" {
		parts = append(parts, "model_contains="+strings.ToLower(f.ModelContains))
	}
	if f.MinAvailability > 0 {
		parts = append(parts, "min_availability="+strconv.Itoa(f.MinAvailability))
	}
	if f.MinPrice > 0 {
		parts = append(parts, "min_price="+strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		parts = append(parts, "max_price="+strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if len(parts) == 0 {
		return ""
	}
	return ":" + strings.Join(parts, "&")
}
