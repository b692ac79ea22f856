package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpu-yield/price-feed/pkg/store/feed"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, feed.BackendRedis, cfg.FeedBackend)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8000, cfg.ServerPort)
	assert.Equal(t, 2*time.Minute, cfg.ScrapeInterval)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 3*time.Minute, cfg.CycleTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0.5, cfg.MinQualityScore)
	assert.Equal(t, int64(10000), cfg.MaxFeedLength)
	assert.Equal(t, 200, cfg.DeltaScanDepth)
	assert.Equal(t, 30*time.Second, cfg.DeltaCacheTTL)
	assert.Equal(t, 100.0, cfg.PriceCeilingUSD)
	assert.True(t, cfg.SyntheticFallback)
	assert.Empty(t, cfg.AWSRegions)
	assert.Equal(t, 0.003, cfg.IOTokenUSDRate)
	assert.Equal(t, 0.000001, cfg.UAKTUSDRate)
	assert.Equal(t, time.Hour, cfg.RateCacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FEED_BACKEND", "memory")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCRAPE_INTERVAL", "30s")
	t.Setenv("MIN_DATA_QUALITY_SCORE", "0.7")
	t.Setenv("SYNTHETIC_FALLBACK", "false")
	t.Setenv("AWS_REGIONS", "us-east-1,eu-west-1")
	t.Setenv("RUNPOD_API_KEY", "rp-test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, feed.BackendMemory, cfg.FeedBackend)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.ScrapeInterval)
	assert.Equal(t, 0.7, cfg.MinQualityScore)
	assert.False(t, cfg.SyntheticFallback)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, cfg.AWSRegions)
	assert.Equal(t, "rp-test-key", cfg.RunPodAPIKey)
}

func TestLoad_RejectsInvalidEnvironment(t *testing.T) {
	t.Run("unsupported backend", func(t *testing.T) {
		t.Setenv("FEED_BACKEND", "cassandra")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FEED_BACKEND")
	})

	t.Run("postgres without database url", func(t *testing.T) {
		t.Setenv("FEED_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "70000")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SERVER_PORT")
	})

	t.Run("quality score out of range", func(t *testing.T) {
		t.Setenv("MIN_DATA_QUALITY_SCORE", "1.5")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MIN_DATA_QUALITY_SCORE")
	})
}

func TestListenAddr(t *testing.T) {
	cfg := Config{ServerHost: "127.0.0.1", ServerPort: 8000}
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr())
}
