package adapters

import (
	"strconv"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/api"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/models/store"
)

// canonical feed fields, used to split Extra from the rest when reading
// a record back.
var feedFieldNames = map[string]struct{}{
	store.FieldTimestamp:    {},
	store.FieldISOTimestamp: {},
	store.FieldCloud:        {},
	store.FieldGPUModel:     {},
	store.FieldPriceUSDHr:   {},
	store.FieldRegion:       {},
	store.FieldAvailability: {},
	store.FieldSourceID:     {},
	store.FieldQualityScore: {},
	store.FieldSynthetic:    {},
}

func MapDomainOfferToFeedRecord(offer domain.Offer) store.FeedRecord {
	observed := offer.ObservedAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	fields := map[string]string{
		store.FieldTimestamp:    strconv.FormatInt(observed.Unix(), 10),
		store.FieldISOTimestamp: observed.UTC().Format(time.RFC3339),
		store.FieldCloud:        offer.Source,
		store.FieldGPUModel:     offer.Model,
		store.FieldPriceUSDHr:   strconv.FormatFloat(offer.PriceUSDHour, 'f', -1, 64),
		store.FieldRegion:       offer.Region,
		store.FieldAvailability: strconv.Itoa(offer.Availability),
		store.FieldSourceID:     offer.SourceID,
		store.FieldQualityScore: strconv.FormatFloat(offer.QualityScore, 'f', -1, 64),
	}
	if offer.Synthetic {
		fields[store.FieldSynthetic] = "true"
	}

	for k, v := range offer.Extra {
		if _, reserved := feedFieldNames[k]; !reserved {
			fields[k] = v
		}
	}

	return store.FeedRecord{Fields: fields}
}

// MapFeedRecordToDomainOffer reconstructs an offer from a feed record. The
// second return value is false when the record is unusable: missing model,
// source or price, or a price that does not parse. Callers skip such
// records instead of failing the scan.
func MapFeedRecordToDomainOffer(rec store.FeedRecord) (domain.Offer, bool) {
	model := rec.Field(store.FieldGPUModel)
	source := rec.Field(store.FieldCloud)
	rawPrice := rec.Field(store.FieldPriceUSDHr)
	if model == "" || source == "" || rawPrice == "" {
		return domain.Offer{}, false
	}

	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil {
		return domain.Offer{}, false
	}

	availability := 1
	if v, err := strconv.Atoi(rec.Field(store.FieldAvailability)); err == nil && v > 0 {
		availability = v
	}

	quality := 0.0
	if v, err := strconv.ParseFloat(rec.Field(store.FieldQualityScore), 64); err == nil {
		quality = v
	}

	var observed time.Time
	if secs, err := strconv.ParseInt(rec.Field(store.FieldTimestamp), 10, 64); err == nil {
		observed = time.Unix(secs, 0).UTC()
	} else if ts, err := time.Parse(time.RFC3339, rec.Field(store.FieldISOTimestamp)); err == nil {
		observed = ts.UTC()
	}

	var extra map[string]string
	for k, v := range rec.Fields {
		if _, reserved := feedFieldNames[k]; reserved {
			continue
		}
		if extra == nil {
			extra = map[string]string{}
		}
		extra[k] = v
	}

	return domain.Offer{
		Source:       source,
		Model:        model,
		PriceUSDHour: price,
		Region:       rec.Field(store.FieldRegion),
		Availability: availability,
		SourceID:     rec.Field(store.FieldSourceID),
		QualityScore: quality,
		ObservedAt:   observed,
		Synthetic:    rec.Field(store.FieldSynthetic) == "true",
		Extra:        extra,
	}, true
}

func MapBestOfferDomainToApi(best domain.BestOffer) api.GPUPriceDelta {
	return api.GPUPriceDelta{
		GPUModel:     best.Model,
		BestSource:   best.Source,
		PriceUSDHr:   best.PriceUSDHour,
		Region:       best.Region,
		Availability: best.Availability,
		ObservedAt:   best.ObservedAt,
	}
}

func MapOfferDomainToAkashApi(offer domain.Offer) api.AkashPrice {
	return api.AkashPrice{
		GPUModel:     offer.Model,
		PriceUSDHr:   offer.PriceUSDHour,
		Region:       offer.Region,
		Availability: offer.Availability,
		SourceID:     offer.SourceID,
		ObservedAt:   offer.ObservedAt,
		Synthetic:    offer.Synthetic,
	}
}

func MapEnrichedOfferDomainToApi(offer domain.EnrichedOffer) api.AWSSpotPrice {
	out := api.AWSSpotPrice{
		InstanceType:     offer.InstanceType,
		GPUModel:         offer.Model,
		Region:           offer.Region,
		PriceUSDHr:       offer.PriceUSDHour,
		Availability:     offer.Availability,
		ObservedAt:       offer.ObservedAt,
		InterruptionRisk: offer.InterruptionRisk,
		Freshness:        offer.Freshness,
		NetYieldUSDHr:    offer.NetYieldUSDHour,
		PowerCostKWh:     offer.PowerCostKWh,
		Synthetic:        offer.Synthetic,
	}
	if offer.Spec != nil {
		out.Specs = &api.InstanceSpec{
			VCPU:         offer.Spec.VCPU,
			RAMGB:        offer.Spec.RAMGB,
			NetworkPerf:  offer.Spec.NetworkPerf,
			StorageGB:    offer.Spec.StorageGB,
			EBSOptimized: offer.Spec.EBSOptimized,
		}
	}
	return out
}

func MapSourceSummaryDomainToApi(s domain.SourceSummary) api.ProviderSummary {
	return api.ProviderSummary{
		Source:      s.Source,
		OfferCount:  s.OfferCount,
		Models:      s.Models,
		Regions:     s.Regions,
		MinPriceHr:  s.MinPrice,
		MaxPriceHr:  s.MaxPrice,
		AvgPriceHr:  s.AvgPrice,
		LastUpdated: s.LastUpdated,
	}
}
