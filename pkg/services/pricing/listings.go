package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gpu-yield/price-feed/pkg/adapters"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
)

// AWSSpotPrices lists current spot offers with hardware and economics
// enrichment. The operator view carries the power cost and net yield; the
// renter view drops them. The int return is the match count before the
// limit, so callers can report totals for truncated pages.
func (s *Service) AWSSpotPrices(ctx context.Context, filter domain.OfferFilter, view domain.PriceView, includeSynthetic bool) ([]domain.EnrichedOffer, int, error) {
	offers, err := s.listingOffers(ctx, providers.SourceAWSSpot, includeSynthetic)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now().UTC()
	matched := make([]domain.EnrichedOffer, 0, len(offers))
	for _, offer := range offers {
		if !matchesFilter(offer, filter) {
			continue
		}
		enriched := Enrich(offer, now)
		if view != domain.ViewOperator {
			enriched.PowerCostKWh = 0
			enriched.NetYieldUSDHour = 0
		}
		matched = append(matched, enriched)
	}

	total := len(matched)
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// AkashPrices lists current decentralized-market offers.
func (s *Service) AkashPrices(ctx context.Context, filter domain.OfferFilter, includeSynthetic bool) ([]domain.Offer, int, error) {
	offers, err := s.listingOffers(ctx, providers.SourceAkash, includeSynthetic)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]domain.Offer, 0, len(offers))
	for _, offer := range offers {
		if !matchesFilter(offer, filter) {
			continue
		}
		matched = append(matched, offer)
	}

	total := len(matched)
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// SourceModels lists the distinct GPU models a provider currently offers,
// sorted.
func (s *Service) SourceModels(ctx context.Context, source string) ([]string, error) {
	offers, err := s.listingOffers(ctx, source, true)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(offers, func(o domain.Offer) string { return o.Model }), nil
}

// SourceRegions lists the distinct regions a provider currently offers
// capacity in, sorted.
func (s *Service) SourceRegions(ctx context.Context, source string) ([]string, error) {
	offers, err := s.listingOffers(ctx, source, true)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(offers, func(o domain.Offer) string { return o.Region }), nil
}

// Summary aggregates a provider's current listings into headline numbers.
func (s *Service) Summary(ctx context.Context, source string) (domain.SourceSummary, error) {
	offers, err := s.listingOffers(ctx, source, true)
	if err != nil {
		return domain.SourceSummary{}, err
	}

	summary := domain.SourceSummary{Source: source, OfferCount: len(offers)}
	if len(offers) == 0 {
		return summary, nil
	}

	summary.MinPrice = offers[0].PriceUSDHour
	summary.MaxPrice = offers[0].PriceUSDHour
	var sum float64
	for _, offer := range offers {
		if offer.PriceUSDHour < summary.MinPrice {
			summary.MinPrice = offer.PriceUSDHour
		}
		if offer.PriceUSDHour > summary.MaxPrice {
			summary.MaxPrice = offer.PriceUSDHour
		}
		sum += offer.PriceUSDHour
		if offer.ObservedAt.After(summary.LastUpdated) {
			summary.LastUpdated = offer.ObservedAt
		}
	}
	summary.AvgPrice = roundTo4(sum / float64(len(offers)))
	summary.Models = uniqueSorted(offers, func(o domain.Offer) string { return o.Model })
	summary.Regions = uniqueSorted(offers, func(o domain.Offer) string { return o.Region })
	return summary, nil
}

// listingOffers scans the feed for one provider's usable records, newest
// first, substituting the provider's reference dataset when the feed holds
// nothing for it.
func (s *Service) listingOffers(ctx context.Context, source string, includeSynthetic bool) ([]domain.Offer, error) {
	records, err := s.feed.Recent(ctx, MaxScanDepth)
	if err != nil {
		return nil, fmt.Errorf("reading price feed: %w", err)
	}

	offers := make([]domain.Offer, 0, len(records))
	for _, rec := range records {
		offer, ok := adapters.MapFeedRecordToDomainOffer(rec)
		if !ok || offer.Source != source {
			continue
		}
		if offer.PriceUSDHour <= 0 || offer.PriceUSDHour > s.maxPrice {
			continue
		}
		offers = append(offers, offer)
	}

	if len(offers) == 0 && includeSynthetic {
		return referenceListing(source), nil
	}
	return offers, nil
}

func uniqueSorted(offers []domain.Offer, key func(domain.Offer) string) []string {
	set := make(map[string]struct{}, len(offers))
	for _, offer := range offers {
		if v := key(offer); v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// referenceListing is the read-side fallback dataset for a source: a
// handful of plausible offers so the listing endpoints stay useful while
// the scraper has not published anything yet. Marked synthetic like the
// scrape-side fallbacks.
func referenceListing(source string) []domain.Offer {
	now := time.Now().UTC()
	switch source {
	case providers.SourceAWSSpot:
		return []domain.Offer{
			awsReferenceOffer("A100", 1.229, "us-east-1", 8, "p4d.24xlarge", "9.832", "40", now),
			awsReferenceOffer("T4", 0.1578, "us-west-2", 1, "g4dn.xlarge", "0.1578", "16", now),
			awsReferenceOffer("V100", 0.785, "eu-west-1", 4, "p3.8xlarge", "3.14", "32", now),
			awsReferenceOffer("A10G", 0.352, "us-west-2", 1, "g5.xlarge", "0.352", "24", now),
			awsReferenceOffer("H100", 2.45, "us-east-1", 8, "p5.48xlarge", "19.6", "80", now),
		}
	case providers.SourceAkash:
		return []domain.Offer{
			akashReferenceOffer("Rtx 4090", 0.35, "akash1abc123", now),
			akashReferenceOffer("Rtx 3090", 0.22, "akash1def456", now),
			akashReferenceOffer("A100", 1.40, "akash1ghi789", now),
			akashReferenceOffer("V100", 0.45, "akash1jkl012", now),
			akashReferenceOffer("T4", 0.11, "akash1mno345", now),
		}
	default:
		return nil
	}
}

func awsReferenceOffer(model string, price float64, region string, availability int, instanceType, totalPrice, memoryGB string, now time.Time) domain.Offer {
	return domain.Offer{
		Source:       providers.SourceAWSSpot,
		Model:        model,
		PriceUSDHour: price,
		Region:       region,
		Availability: availability,
		ObservedAt:   now,
		Synthetic:    true,
		Extra: map[string]string{
			"instance_type":        instanceType,
			"total_instance_price": totalPrice,
			"gpu_memory_gb":        memoryGB,
		},
	}
}

func akashReferenceOffer(model string, price float64, providerAddress string, now time.Time) domain.Offer {
	return domain.Offer{
		Source:       providers.SourceAkash,
		Model:        model,
		PriceUSDHour: price,
		Region:       "global",
		Availability: 1,
		ObservedAt:   now,
		Synthetic:    true,
		Extra: map[string]string{
			"provider_address":  providerAddress,
			"original_currency": "UAKT",
		},
	}
}
