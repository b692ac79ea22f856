package api

import "time"

type InstanceSpec struct {
	VCPU         int     `json:"vcpu"`
	RAMGB        float64 `json:"ram_gb"`
	NetworkPerf  string  `json:"network"`
	StorageGB    int     `json:"storage_gb,omitempty"`
	EBSOptimized bool    `json:"ebs_optimized"`
}

type AWSSpotPrice struct {
	InstanceType     string        `json:"instance_type,omitempty"`
	GPUModel         string        `json:"gpu_model"`
	Region           string        `json:"region"`
	PriceUSDHr       float64       `json:"price_usd_hr"`
	Availability     int           `json:"availability"`
	ObservedAt       time.Time     `json:"observed_at"`
	InterruptionRisk string        `json:"interruption_risk"`
	Freshness        string        `json:"freshness"`
	NetYieldUSDHr    float64       `json:"net_yield_usd_hr,omitempty"`
	PowerCostKWh     float64       `json:"power_cost_kwh,omitempty"`
	Specs            *InstanceSpec `json:"specs,omitempty"`
	Synthetic        bool          `json:"synthetic,omitempty"`
}

type AWSSpotPricesResponse struct {
	Prices      []AWSSpotPrice `json:"prices"`
	TotalCount  int            `json:"total_count"`
	LastUpdated time.Time      `json:"last_updated"`
}

type AkashPrice struct {
	GPUModel     string    `json:"gpu_model"`
	PriceUSDHr   float64   `json:"price_usd_hr"`
	Region       string    `json:"region"`
	Availability int       `json:"availability"`
	SourceID     string    `json:"source_record_id,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
	Synthetic    bool      `json:"synthetic,omitempty"`
}

type AkashPricesResponse struct {
	Prices      []AkashPrice `json:"prices"`
	TotalCount  int          `json:"total_count"`
	LastUpdated time.Time    `json:"last_updated"`
}

type ModelsResponse struct {
	Models     []string `json:"models"`
	TotalCount int      `json:"total_count"`
}

type RegionsResponse struct {
	Regions    []string `json:"regions"`
	TotalCount int      `json:"total_count"`
}

type ProviderSummary struct {
	Source       string    `json:"source"`
	OfferCount   int       `json:"offer_count"`
	Models       []string  `json:"models"`
	Regions      []string  `json:"regions"`
	MinPriceHr   float64   `json:"min_price_usd_hr"`
	MaxPriceHr   float64   `json:"max_price_usd_hr"`
	AvgPriceHr   float64   `json:"avg_price_usd_hr"`
	LastUpdated  time.Time `json:"last_updated"`
}
