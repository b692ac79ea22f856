package domain

import "time"

// RawOffer is a single listing exactly as a provider reported it. Fields are
// kept as strings until the normalizer has validated them, so a provider can
// hand over anything it scraped without guessing at types.
type RawOffer struct {
	GPUName      string            // as reported, may be empty
	Price        string            // hourly price, unparsed, may be non-numeric
	Region       string
	Availability string            // unit count, unparsed
	SourceID     string            // provider-side listing id
	ObservedAt   time.Time         // zero means observed now
	Synthetic    bool              // true for fallback estimates
	Extra        map[string]string // provider-specific fields (instance_type, gpu_memory_gb, ...)
}

// Offer is a validated, normalized listing ready for publishing.
type Offer struct {
	Source       string
	Model        string
	PriceUSDHour float64
	Region       string
	Availability int
	SourceID     string
	QualityScore float64
	ObservedAt   time.Time
	Synthetic    bool
	Extra        map[string]string
}

// BestOffer is the winning listing for one GPU model under a price view.
type BestOffer struct {
	Model        string
	Source       string
	PriceUSDHour float64
	Region       string
	Availability int
	ObservedAt   time.Time
}

// PriceView selects the reduction direction when picking the best offer
// per model.
type PriceView string

const (
	// ViewRenter favors the lowest price. This is the default view: the
	// feed answers "where do I rent this GPU cheapest".
	ViewRenter PriceView = "renter"
	// ViewOperator favors the highest price, for operators comparing
	// where their hardware would earn most.
	ViewOperator PriceView = "operator"
)

// OfferFilter narrows a feed scan. Zero values mean "no constraint".
type OfferFilter struct {
	Source          string
	Region          string
	Model           string // exact match
	ModelContains   string // substring match, case-insensitive
	MinAvailability int
	MinPrice        float64
	MaxPrice        float64
	Limit           int
}

// SourceSummary aggregates the live listings of a single provider.
type SourceSummary struct {
	Source      string
	OfferCount  int
	Models      []string
	Regions     []string
	MinPrice    float64
	MaxPrice    float64
	AvgPrice    float64
	LastUpdated time.Time
}
