package status

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// StatsKey is the hash holding the latest scraper snapshot.
const StatsKey = "scraper:metrics"

// DefaultStatsTTL expires stale snapshots so /stats never reports a dead
// scraper as healthy.
const DefaultStatsTTL = time.Hour

// Redis persists scrape stats as a hash with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) SaveScrapeStats(ctx context.Context, stats domain.ScrapeStats) error {
	fields := map[string]interface{}{
		"started_at":         stats.StartedAt.Unix(),
		"cycles_total":       stats.CyclesTotal,
		"fetches_attempted":  stats.FetchesAttempted,
		"fetches_succeeded":  stats.FetchesSucceeded,
		"fetches_failed":     stats.FetchesFailed,
		"records_processed":  stats.RecordsProcessed,
		"records_filtered":   stats.RecordsFiltered,
		"records_published":  stats.RecordsPublished,
		"last_cycle_id":      stats.LastCycleID,
		"last_cycle_at":      stats.LastCycleAt.Unix(),
		"last_cycle_ms":      stats.LastCycleMillis,
		"last_cycle_records": stats.LastCycleRecords,
	}

	if err := r.client.HSet(ctx, StatsKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to store scrape stats: %w", err)
	}
	if err := r.client.Expire(ctx, StatsKey, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to expire scrape stats: %w", err)
	}
	return nil
}

func (r *Redis) LoadScrapeStats(ctx context.Context) (domain.ScrapeStats, bool, error) {
	fields, err := r.client.HGetAll(ctx, StatsKey).Result()
	if err != nil {
		return domain.ScrapeStats{}, false, fmt.Errorf("failed to load scrape stats: %w", err)
	}
	if len(fields) == 0 {
		return domain.ScrapeStats{}, false, nil
	}

	stats := domain.ScrapeStats{
		StartedAt:        unixField(fields, "started_at"),
		CyclesTotal:      intField(fields, "cycles_total"),
		FetchesAttempted: intField(fields, "fetches_attempted"),
		FetchesSucceeded: intField(fields, "fetches_succeeded"),
		FetchesFailed:    intField(fields, "fetches_failed"),
		RecordsProcessed: intField(fields, "records_processed"),
		RecordsFiltered:  intField(fields, "records_filtered"),
		RecordsPublished: intField(fields, "records_published"),
		LastCycleID:      fields["last_cycle_id"],
		LastCycleAt:      unixField(fields, "last_cycle_at"),
		LastCycleMillis:  intField(fields, "last_cycle_ms"),
	}
	if v, err := strconv.Atoi(fields["last_cycle_records"]); err == nil {
		stats.LastCycleRecords = v
	}
	return stats, true, nil
}

func intField(fields map[string]string, name string) int64 {
	v, err := strconv.ParseInt(fields[name], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func unixField(fields map[string]string, name string) time.Time {
	secs := intField(fields, name)
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
