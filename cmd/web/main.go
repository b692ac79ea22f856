package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gpu-yield/price-feed/pkg/config"
	"github.com/gpu-yield/price-feed/pkg/server"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Start the GPU price feed API server",
		RunE:  runServer,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	feedStore, cacheStore, statusStore, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}

	pricingSvc := pricing.New(feedStore, cacheStore, pricing.Config{
		ScanDepth:   cfg.DeltaScanDepth,
		CacheTTL:    cfg.DeltaCacheTTL,
		MaxPriceUSD: cfg.PriceCeilingUSD,
	})

	api := server.NewWebAPI(logger, server.Config{
		Addr: cfg.ListenAddr(),
		Dependencies: server.Dependencies{
			Pricing: pricingSvc,
			Feed:    feedStore,
			Status:  statusStore,
		},
	})

	return api.Start()
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
