package api

import "time"

type ScraperStats struct {
	StartedAt        time.Time `json:"started_at"`
	CyclesTotal      int64     `json:"cycles_total"`
	FetchesAttempted int64     `json:"fetches_attempted"`
	FetchesSucceeded int64     `json:"fetches_succeeded"`
	FetchesFailed    int64     `json:"fetches_failed"`
	SuccessRate      float64   `json:"success_rate"`
	RecordsProcessed int64     `json:"records_processed"`
	RecordsFiltered  int64     `json:"records_filtered"`
	RecordsPublished int64     `json:"records_published"`
	PublishRate      float64   `json:"publish_rate"`
	LastCycleID      string    `json:"last_cycle_id,omitempty"`
	LastCycleAt      time.Time `json:"last_cycle_at"`
	LastCycleMillis  int64     `json:"last_cycle_ms"`
	LastCycleRecords int       `json:"last_cycle_records"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Feed   string    `json:"feed"`
	Time   time.Time `json:"time"`
}
