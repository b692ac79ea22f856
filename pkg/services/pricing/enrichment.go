package pricing

import (
	"math"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// instanceSpecs holds published hardware specs for the GPU instance types
// the scraper tracks, keyed by instance type.
var instanceSpecs = map[string]domain.InstanceSpec{
	// G4dn - T4
	"g4dn.xlarge":   {VCPU: 4, RAMGB: 16, NetworkPerf: "Up to 25 Gbps", StorageGB: 125, EBSOptimized: true, GPUCount: 1, GPUModel: "T4"},
	"g4dn.2xlarge":  {VCPU: 8, RAMGB: 32, NetworkPerf: "Up to 25 Gbps", StorageGB: 225, EBSOptimized: true, GPUCount: 1, GPUModel: "T4"},
	"g4dn.4xlarge":  {VCPU: 16, RAMGB: 64, NetworkPerf: "Up to 25 Gbps", StorageGB: 225, EBSOptimized: true, GPUCount: 1, GPUModel: "T4"},
	"g4dn.8xlarge":  {VCPU: 32, RAMGB: 128, NetworkPerf: "50 Gbps", StorageGB: 900, EBSOptimized: true, GPUCount: 1, GPUModel: "T4"},
	"g4dn.12xlarge": {VCPU: 48, RAMGB: 192, NetworkPerf: "50 Gbps", StorageGB: 900, EBSOptimized: true, GPUCount: 4, GPUModel: "T4"},
	"g4dn.16xlarge": {VCPU: 64, RAMGB: 256, NetworkPerf: "50 Gbps", StorageGB: 900, EBSOptimized: true, GPUCount: 1, GPUModel: "T4"},

	// G5 - A10G
	"g5.xlarge":   {VCPU: 4, RAMGB: 16, NetworkPerf: "Up to 10 Gbps", StorageGB: 250, EBSOptimized: true, GPUCount: 1, GPUModel: "A10G"},
	"g5.2xlarge":  {VCPU: 8, RAMGB: 32, NetworkPerf: "Up to 10 Gbps", StorageGB: 450, EBSOptimized: true, GPUCount: 1, GPUModel: "A10G"},
	"g5.4xlarge":  {VCPU: 16, RAMGB: 64, NetworkPerf: "Up to 25 Gbps", StorageGB: 600, EBSOptimized: true, GPUCount: 1, GPUModel: "A10G"},
	"g5.8xlarge":  {VCPU: 32, RAMGB: 128, NetworkPerf: "25 Gbps", StorageGB: 900, EBSOptimized: true, GPUCount: 1, GPUModel: "A10G"},
	"g5.12xlarge": {VCPU: 48, RAMGB: 192, NetworkPerf: "40 Gbps", StorageGB: 3800, EBSOptimized: true, GPUCount: 4, GPUModel: "A10G"},
	"g5.16xlarge": {VCPU: 64, RAMGB: 256, NetworkPerf: "25 Gbps", StorageGB: 1900, EBSOptimized: true, GPUCount: 1, GPUModel: "A10G"},
	"g5.24xlarge": {VCPU: 96, RAMGB: 384, NetworkPerf: "50 Gbps", StorageGB: 3800, EBSOptimized: true, GPUCount: 4, GPUModel: "A10G"},
	"g5.48xlarge": {VCPU: 192, RAMGB: 768, NetworkPerf: "100 Gbps", StorageGB: 7600, EBSOptimized: true, GPUCount: 8, GPUModel: "A10G"},

	// P3 - V100, EBS-only storage
	"p3.2xlarge":    {VCPU: 8, RAMGB: 61, NetworkPerf: "Up to 10 Gbps", EBSOptimized: true, GPUCount: 1, GPUModel: "V100"},
	"p3.8xlarge":    {VCPU: 32, RAMGB: 244, NetworkPerf: "10 Gbps", EBSOptimized: true, GPUCount: 4, GPUModel: "V100"},
	"p3.16xlarge":   {VCPU: 64, RAMGB: 488, NetworkPerf: "25 Gbps", EBSOptimized: true, GPUCount: 8, GPUModel: "V100"},
	"p3dn.24xlarge": {VCPU: 96, RAMGB: 768, NetworkPerf: "100 Gbps", StorageGB: 1800, EBSOptimized: true, GPUCount: 8, GPUModel: "V100"},

	// P4 - A100
	"p4d.24xlarge":  {VCPU: 96, RAMGB: 1152, NetworkPerf: "400 Gbps", StorageGB: 8000, EBSOptimized: true, GPUCount: 8, GPUModel: "A100"},
	"p4de.24xlarge": {VCPU: 96, RAMGB: 1152, NetworkPerf: "400 Gbps", StorageGB: 8000, EBSOptimized: true, GPUCount: 8, GPUModel: "A100"},

	// P5 - H100
	"p5.48xlarge": {VCPU: 192, RAMGB: 2048, NetworkPerf: "3200 Gbps", StorageGB: 30720, EBSOptimized: true, GPUCount: 8, GPUModel: "H100"},
}

// regionPowerCosts is the industrial power price per region in USD/kWh.
var regionPowerCosts = map[string]float64{
	"us-east-1":      0.12,
	"us-west-2":      0.09,
	"eu-west-1":      0.18,
	"us-east-2":      0.11,
	"ap-southeast-1": 0.15,
	"eu-central-1":   0.20,
	"ap-northeast-1": 0.17,
}

// gpuTDPWatts is the nameplate power draw per GPU model.
var gpuTDPWatts = map[string]float64{
	"T4":   70,
	"A10G": 150,
	"V100": 300,
	"A100": 400,
	"H100": 700,
	"K80":  300,
	"M60":  300,
}

// interruptionRisk buckets reported spot capacity into a reclaim-risk band.
func interruptionRisk(availability int) string {
	switch {
	case availability >= 4:
		return domain.RiskLow
	case availability >= 2:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// freshness classifies an observation by its age.
func freshness(observedAt, now time.Time) string {
	if observedAt.IsZero() {
		return domain.FreshnessStale
	}
	age := now.Sub(observedAt)
	switch {
	case age < time.Hour:
		return domain.FreshnessLive
	case age < 6*time.Hour:
		return domain.FreshnessRecent
	default:
		return domain.FreshnessStale
	}
}

// Enrich joins a spot offer with static hardware specs, a risk and
// freshness classification and the net yield after regional power costs.
// Unknown instance types, regions or models leave the affected fields at
// their neutral values.
func Enrich(offer domain.Offer, now time.Time) domain.EnrichedOffer {
	enriched := domain.EnrichedOffer{
		Offer:            offer,
		InstanceType:     offer.Extra["instance_type"],
		InterruptionRisk: interruptionRisk(offer.Availability),
		Freshness:        freshness(offer.ObservedAt, now),
		NetYieldUSDHour:  offer.PriceUSDHour,
	}

	if spec, ok := instanceSpecs[enriched.InstanceType]; ok {
		enriched.Spec = &spec
	}

	cost, haveCost := regionPowerCosts[offer.Region]
	tdp, haveTDP := gpuTDPWatts[offer.Model]
	if haveCost {
		enriched.PowerCostKWh = cost
		if haveTDP {
			enriched.NetYieldUSDHour = roundTo4(offer.PriceUSDHour - tdp/1000*cost)
		}
	}
	return enriched
}

func roundTo4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
