package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gpu-yield/price-feed/pkg/config"
	"github.com/gpu-yield/price-feed/pkg/runtime/terminal"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

func main() {
	cli, err := buildCLI(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildCLI(ctx context.Context) (*terminal.CLI, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	feedStore, cacheStore, statusStore, err := buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pricingSvc := pricing.New(feedStore, cacheStore, pricing.Config{
		ScanDepth:   cfg.DeltaScanDepth,
		CacheTTL:    cfg.DeltaCacheTTL,
		MaxPriceUSD: cfg.PriceCeilingUSD,
	})

	return terminal.NewCLI(terminal.Options{
		Pricing: pricingSvc,
		Status:  statusStore,
		Output:  os.Stdout,
	}), nil
}

// buildStores wires the feed, cache and status stores against one shared
// redis client when the feed backend is redis. Other backends fall back to
// in-process cache and status stores, which suits single-node setups.
func buildStores(ctx context.Context, cfg *config.Config) (feed.Store, cache.Store, status.Store, error) {
	backend := strings.ToLower(cfg.FeedBackend)
	if backend == feed.BackendRedis || backend == "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return feed.NewRedisWithClient(client), cache.NewRedis(client), status.NewRedis(client, status.DefaultStatsTTL), nil
	}

	feedStore, err := feed.NewStore(ctx, cfg.FeedConfig())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create feed store: %w", err)
	}
	return feedStore, cache.NewMemory(), status.NewMemory(status.DefaultStatsTTL), nil
}
