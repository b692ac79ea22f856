package status

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

func sampleStats() domain.ScrapeStats {
	return domain.ScrapeStats{
		StartedAt:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		CyclesTotal:      12,
		FetchesAttempted: 60,
		FetchesSucceeded: 55,
		FetchesFailed:    5,
		RecordsProcessed: 900,
		RecordsFiltered:  40,
		RecordsPublished: 860,
		LastCycleID:      "cycle-abc",
		LastCycleAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		LastCycleMillis:  2140,
		LastCycleRecords: 73,
	}
}

func TestRedis_SaveAndLoadScrapeStats(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.SaveScrapeStats(ctx, sampleStats()))

	got, ok, err := s.LoadScrapeStats(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)
}

func TestRedis_LoadScrapeStats_MissingSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, time.Hour)

	_, ok, err := s.LoadScrapeStats(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_SnapshotExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.SaveScrapeStats(ctx, sampleStats()))

	mr.FastForward(2 * time.Hour)

	_, ok, err := s.LoadScrapeStats(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_RoundTrip(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	_, ok, err := s.LoadScrapeStats(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SaveScrapeStats(ctx, sampleStats()))

	got, ok, err := s.LoadScrapeStats(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)
}
