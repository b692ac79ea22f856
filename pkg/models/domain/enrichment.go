package domain

// InstanceSpec describes the hardware behind an AWS spot instance type.
type InstanceSpec struct {
	VCPU         int
	RAMGB        float64
	NetworkPerf  string
	StorageGB    int
	EBSOptimized bool
	GPUCount     int
	GPUModel     string
}

// Interruption risk buckets derived from reported availability.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Freshness buckets derived from observation age.
const (
	FreshnessLive   = "live"
	FreshnessRecent = "recent"
	FreshnessStale  = "stale"
)

// EnrichedOffer is an AWS spot listing joined with static hardware and
// economics metadata.
type EnrichedOffer struct {
	Offer
	InstanceType     string
	Spec             *InstanceSpec
	InterruptionRisk string
	Freshness        string
	PowerCostKWh     float64
	NetYieldUSDHour  float64
}
