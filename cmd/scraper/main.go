package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gpu-yield/price-feed/pkg/config"
	"github.com/gpu-yield/price-feed/pkg/providers"
	"github.com/gpu-yield/price-feed/pkg/providers/akash"
	"github.com/gpu-yield/price-feed/pkg/providers/awsspot"
	"github.com/gpu-yield/price-feed/pkg/providers/ionet"
	"github.com/gpu-yield/price-feed/pkg/providers/runpod"
	"github.com/gpu-yield/price-feed/pkg/providers/vastai"
	"github.com/gpu-yield/price-feed/pkg/services/normalizer"
	"github.com/gpu-yield/price-feed/pkg/services/publisher"
	"github.com/gpu-yield/price-feed/pkg/services/quality"
	"github.com/gpu-yield/price-feed/pkg/services/rates"
	"github.com/gpu-yield/price-feed/pkg/services/scraper"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scraper",
		Short: "Run the GPU price scrape loop",
		RunE:  runScraper,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runScraper(cmd *cobra.Command, _ []string) error {
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

	registry := providers.NewRegistry()
	registrations := map[string]providers.Factory{
		providers.SourceVastAI:  vastai.Factory,
		providers.SourceRunPod:  runpod.Factory,
		providers.SourceAkash:   akash.Factory,
		providers.SourceIONet:   ionet.Factory,
		providers.SourceAWSSpot: awsspot.Factory,
	}
	for source, factory := range registrations {
		if err := registry.Register(source, factory); err != nil {
			return fmt.Errorf("failed to register provider %s: %w", source, err)
		}
	}

	client := providers.NewClient(cfg.HTTPTimeout)
	ratesSvc := rates.New(client, cacheStore, cfg.RateCacheTTL)
	if cfg.CoinGeckoURL != "" {
		ratesSvc = ratesSvc.WithEndpoint(cfg.CoinGeckoURL)
	}

	orchestrator, err := scraper.New(scraper.Dependencies{
		Registry: registry,
		ProviderDeps: providers.Deps{
			Client:         client,
			Rates:          ratesSvc,
			RunPodAPIKey:   cfg.RunPodAPIKey,
			UAKTUSDRate:    cfg.UAKTUSDRate,
			IOTokenUSDRate: cfg.IOTokenUSDRate,
			AWSRegions:     cfg.AWSRegions,
		},
		Normalizer: normalizer.New(cfg.PriceCeilingUSD),
		Gate:       quality.NewGate(cfg.MinQualityScore),
		Publisher:  publisher.New(feedStore, cfg.MaxFeedLength),
		Status:     statusStore,
	}, scraper.Config{
		Interval:          cfg.ScrapeInterval,
		CycleTimeout:      cfg.CycleTimeout,
		CleanupInterval:   cfg.CleanupInterval,
		SyntheticFallback: cfg.SyntheticFallback,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(runCtx, cfg.MetricsAddr)
	}

	return orchestrator.Run(runCtx)
}

// serveMetrics exposes the prometheus registry for the scrape loop. The
// listener is best effort: a bind failure is logged, not fatal.
func serveMetrics(ctx context.Context, addr string) {
	router := chi.NewRouter()
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zerolog.Ctx(ctx).Info().Str("addr", addr).Msg("metrics listener started")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zerolog.Ctx(ctx).Error().Err(err).Str("addr", addr).Msg("metrics listener failed")
	}
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
