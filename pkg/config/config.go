// Package config loads the service configuration from the environment.
// Every knob has a default, so a bare `go run` against a local redis
// works without any setup.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/gpu-yield/price-feed/pkg/store/feed"
)

type Config struct {
	RedisURL    string `mapstructure:"redis_url"`
	DatabaseURL string `mapstructure:"database_url"`
	FeedBackend string `mapstructure:"feed_backend"`
	ServerHost  string `mapstructure:"server_host"`
	ServerPort  int    `mapstructure:"server_port"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	ScrapeInterval  time.Duration `mapstructure:"scrape_interval"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CycleTimeout    time.Duration `mapstructure:"cycle_timeout"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`

	MinQualityScore   float64       `mapstructure:"min_data_quality_score"`
	MaxFeedLength     int64         `mapstructure:"max_feed_length"`
	DeltaScanDepth    int           `mapstructure:"delta_scan_depth"`
	DeltaCacheTTL     time.Duration `mapstructure:"delta_cache_ttl"`
	PriceCeilingUSD   float64       `mapstructure:"price_ceiling_usd"`
	SyntheticFallback bool          `mapstructure:"synthetic_fallback"`

	RunPodAPIKey string   `mapstructure:"runpod_api_key"`
	AWSRegions   []string `mapstructure:"aws_regions"`

	IOTokenUSDRate float64       `mapstructure:"io_token_usd_rate"`
	UAKTUSDRate    float64       `mapstructure:"uakt_usd_rate"`
	CoinGeckoURL   string        `mapstructure:"coingecko_url"`
	RateCacheTTL   time.Duration `mapstructure:"rate_cache_ttl"`
}

// Load reads the environment, applying defaults for anything unset, and
// validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("redis_url", "redis://localhost:6379")
	v.SetDefault("database_url", "")
	v.SetDefault("feed_backend", feed.BackendRedis)
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8000)
	v.SetDefault("metrics_addr", ":9090")

	v.SetDefault("scrape_interval", 2*time.Minute)
	v.SetDefault("cleanup_interval", time.Hour)
	v.SetDefault("cycle_timeout", 3*time.Minute)
	v.SetDefault("http_timeout", 15*time.Second)

	v.SetDefault("min_data_quality_score", 0.5)
	v.SetDefault("max_feed_length", 10000)
	v.SetDefault("delta_scan_depth", 200)
	v.SetDefault("delta_cache_ttl", 30*time.Second)
	v.SetDefault("price_ceiling_usd", 100.0)
	v.SetDefault("synthetic_fallback", true)

	v.SetDefault("runpod_api_key", "")
	v.SetDefault("aws_regions", "")

	v.SetDefault("io_token_usd_rate", 0.003)
	v.SetDefault("uakt_usd_rate", 0.000001)
	v.SetDefault("coingecko_url", "")
	v.SetDefault("rate_cache_ttl", time.Hour)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.FeedBackend {
	case feed.BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis feed backend")
		}
	case feed.BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres feed backend")
		}
	case feed.BackendMemory:
	default:
		return fmt.Errorf("unsupported FEED_BACKEND: %s", c.FeedBackend)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort)
	}
	if c.MinQualityScore < 0 || c.MinQualityScore > 1 {
		return fmt.Errorf("MIN_DATA_QUALITY_SCORE must be between 0 and 1, got %v", c.MinQualityScore)
	}
	if c.ScrapeInterval <= 0 {
		return fmt.Errorf("SCRAPE_INTERVAL must be positive")
	}
	if c.CycleTimeout <= 0 {
		return fmt.Errorf("CYCLE_TIMEOUT must be positive")
	}
	if c.MaxFeedLength <= 0 {
		return fmt.Errorf("MAX_FEED_LENGTH must be positive")
	}
	if c.PriceCeilingUSD <= 0 {
		return fmt.Errorf("PRICE_CEILING_USD must be positive")
	}
	return nil
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// FeedConfig narrows the configuration to what the feed factory needs.
func (c *Config) FeedConfig() feed.Config {
	return feed.Config{
		Backend:     c.FeedBackend,
		RedisURL:    c.RedisURL,
		DatabaseURL: c.DatabaseURL,
	}
}
