package domain

import "time"

// CycleStats captures the outcome of one scrape cycle.
type CycleStats struct {
	CycleID          string
	StartedAt        time.Time
	Duration         time.Duration
	FetchesAttempted int
	FetchesSucceeded int
	FetchesFailed    int
	RecordsProcessed int
	RecordsFiltered  int
	RecordsPublished int
	SyntheticSources []string
}

// ScrapeStats accumulates cycle outcomes since the last hourly reset.
type ScrapeStats struct {
	StartedAt        time.Time
	CyclesTotal      int64
	FetchesAttempted int64
	FetchesSucceeded int64
	FetchesFailed    int64
	RecordsProcessed int64
	RecordsFiltered  int64
	RecordsPublished int64
	LastCycleID      string
	LastCycleAt      time.Time
	LastCycleMillis  int64
	LastCycleRecords int
}

// SuccessRate is the share of fetch attempts that returned data, in [0, 1].
func (s ScrapeStats) SuccessRate() float64 {
	if s.FetchesAttempted == 0 {
		return 0
	}
	return float64(s.FetchesSucceeded) / float64(s.FetchesAttempted)
}

// PublishRate is the share of processed records that passed validation and
// quality gating, in [0, 1].
func (s ScrapeStats) PublishRate() float64 {
	if s.RecordsProcessed == 0 {
		return 0
	}
	return float64(s.RecordsPublished) / float64(s.RecordsProcessed)
}
