package adapters

import (
	"github.com/gpu-yield/price-feed/pkg/models/api"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

func MapScrapeStatsDomainToApi(s domain.ScrapeStats) api.ScraperStats {
	return api.ScraperStats{
		StartedAt:        s.StartedAt,
		CyclesTotal:      s.CyclesTotal,
		FetchesAttempted: s.FetchesAttempted,
		FetchesSucceeded: s.FetchesSucceeded,
		FetchesFailed:    s.FetchesFailed,
		SuccessRate:      s.SuccessRate(),
		RecordsProcessed: s.RecordsProcessed,
		RecordsFiltered:  s.RecordsFiltered,
		RecordsPublished: s.RecordsPublished,
		PublishRate:      s.PublishRate(),
		LastCycleID:      s.LastCycleID,
		LastCycleAt:      s.LastCycleAt,
		LastCycleMillis:  s.LastCycleMillis,
		LastCycleRecords: s.LastCycleRecords,
	}
}
