package api

import "time"

type GPUPriceDelta struct {
	GPUModel     string    `json:"gpu_model"`
	BestSource   string    `json:"best_source"`
	PriceUSDHr   float64   `json:"price_usd_hr"`
	Region       string    `json:"region,omitempty"`
	Availability int       `json:"availability,omitempty"`
	ObservedAt   time.Time `json:"observed_at,omitempty"`
}

type DeltaResponse struct {
	Deltas      []GPUPriceDelta `json:"deltas"`
	TotalCount  int             `json:"total_count"`
	LastUpdated time.Time       `json:"last_updated"`
}
