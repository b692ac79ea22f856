// Package scraper runs the scrape pipeline: it fans out to every
// registered provider on a fixed interval, normalizes and quality gates
// what comes back, publishes the survivors to the price feed and keeps
// rolling statistics about all of it.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/metrics"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
	"github.com/gpu-yield/price-feed/pkg/services/normalizer"
	"github.com/gpu-yield/price-feed/pkg/services/publisher"
	"github.com/gpu-yield/price-feed/pkg/services/quality"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

const (
	DefaultInterval        = 2 * time.Minute
	DefaultCycleTimeout    = 3 * time.Minute
	DefaultCleanupInterval = time.Hour
)

// Config tunes the orchestrator's cadence.
type Config struct {
	// Interval is the spacing between scrape cycle starts.
	Interval time.Duration
	// CycleTimeout bounds one full cycle across all sources.
	CycleTimeout time.Duration
	// CleanupInterval is how often cumulative stats reset.
	CleanupInterval time.Duration
	// Workers caps how many sources are scraped concurrently. Zero means
	// one worker per source.
	Workers int
	// SyntheticFallback publishes a source's synthetic dataset when its
	// live fetch fails and a dataset exists.
	SyntheticFallback bool
}

// Dependencies wires the orchestrator to the rest of the pipeline.
// Registry, Normalizer, Gate and Publisher are required.
type Dependencies struct {
	Registry     providers.Registry
	ProviderDeps providers.Deps
	Normalizer   *normalizer.Normalizer
	Gate         *quality.Gate
	Publisher    *publisher.Publisher
	Status       status.Store
	Results      *providers.ResultCache
	Retry        providers.RetryPolicy
}

type Orchestrator struct {
	providers  map[string]providers.Provider
	sources    []string
	normalizer *normalizer.Normalizer
	gate       *quality.Gate
	publisher  *publisher.Publisher
	status     status.Store
	results    *providers.ResultCache
	retry      providers.RetryPolicy
	cfg        Config

	mu        sync.Mutex
	stats     domain.ScrapeStats
	lastFetch map[string]time.Time
}

func New(deps Dependencies, cfg Config) (*Orchestrator, error) {
	switch {
	case deps.Registry == nil:
		return nil, errors.New("scraper: provider registry is required")
	case deps.Normalizer == nil:
		return nil, errors.New("scraper: normalizer is required")
	case deps.Gate == nil:
		return nil, errors.New("scraper: quality gate is required")
	case deps.Publisher == nil:
		return nil, errors.New("scraper: publisher is required")
	}

	sources := deps.Registry.ListSources()
	if len(sources) == 0 {
		return nil, errors.New("scraper: no providers registered")
	}
	sort.Strings(sources)

	instances := make(map[string]providers.Provider, len(sources))
	for _, source := range sources {
		provider, err := deps.Registry.Create(source, deps.ProviderDeps)
		if err != nil {
			return nil, fmt.Errorf("scraper: creating provider %s: %w", source, err)
		}
		instances[source] = provider
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = DefaultCycleTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = len(sources)
	}

	results := deps.Results
	if results == nil {
		results = providers.NewResultCache(providers.DefaultResultTTL)
	}
	retry := deps.Retry
	if retry.MaxAttempts == 0 {
		retry = providers.DefaultRetryPolicy
	}

	return &Orchestrator{
		providers:  instances,
		sources:    sources,
		normalizer: deps.Normalizer,
		gate:       deps.Gate,
		publisher:  deps.Publisher,
		status:     deps.Status,
		results:    results,
		retry:      retry,
		cfg:        cfg,
		stats:      domain.ScrapeStats{StartedAt: time.Now().UTC()},
		lastFetch:  make(map[string]time.Time),
	}, nil
}

// Run scrapes immediately, then on every interval tick until the context
// is cancelled. Stats reset on the cleanup interval.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Strs("sources", o.sources).
		Dur("interval", o.cfg.Interval).
		Msg("scrape orchestrator started")

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()
	cleanup := time.NewTicker(o.cfg.CleanupInterval)
	defer cleanup.Stop()

	o.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scrape orchestrator stopped")
			return nil
		case <-cleanup.C:
			o.resetStats(ctx)
		case <-ticker.C:
			o.runCycle(ctx)
		}
	}
}

// Stats returns a snapshot of the counters accumulated since the last
// reset.
func (o *Orchestrator) Stats() domain.ScrapeStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

type sourceResult struct {
	source    string
	processed int
	filtered  int
	published int
	synthetic bool
	err       error
}

func (o *Orchestrator) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	started := time.Now()

	cycleCtx, cancel := context.WithTimeout(ctx, o.cfg.CycleTimeout)
	defer cancel()
	logger := zerolog.Ctx(ctx).With().Str("cycle_id", cycleID).Logger()
	cycleCtx = logger.WithContext(cycleCtx)

	logger.Info().Msg("scrape cycle started")

	jobs := make(chan string)
	results := make(chan sourceResult, len(o.sources))
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				results <- o.scrapeSource(cycleCtx, source)
			}
		}()
	}
	for _, source := range o.sources {
		jobs <- source
	}
	close(jobs)
	wg.Wait()
	close(results)

	cycle := domain.CycleStats{CycleID: cycleID, StartedAt: started.UTC()}
	for res := range results {
		cycle.FetchesAttempted++
		if res.err != nil {
			cycle.FetchesFailed++
		} else {
			cycle.FetchesSucceeded++
		}
		cycle.RecordsProcessed += res.processed
		cycle.RecordsFiltered += res.filtered
		cycle.RecordsPublished += res.published
		if res.synthetic {
			cycle.SyntheticSources = append(cycle.SyntheticSources, res.source)
		}
	}
	sort.Strings(cycle.SyntheticSources)
	cycle.Duration = time.Since(started)

	metrics.CycleDuration.Observe(cycle.Duration.Seconds())
	o.accumulate(cycle)
	o.persistStats(ctx)

	logger.Info().
		Int("fetches_succeeded", cycle.FetchesSucceeded).
		Int("fetches_failed", cycle.FetchesFailed).
		Int("records_published", cycle.RecordsPublished).
		Int("records_filtered", cycle.RecordsFiltered).
		Strs("synthetic_sources", cycle.SyntheticSources).
		Dur("duration", cycle.Duration).
		Msg("scrape cycle complete")
}

// scrapeSource runs the full pipeline for one source: fetch, normalize,
// quality gate, publish.
func (o *Orchestrator) scrapeSource(ctx context.Context, source string) sourceResult {
	res := sourceResult{source: source}
	logger := zerolog.Ctx(ctx)

	fetchStarted := time.Now()
	raw, fetchStatus, err := o.fetchOffers(ctx, o.providers[source])
	metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(fetchStarted).Seconds())
	metrics.ScrapesTotal.WithLabelValues(source, fetchStatus).Inc()
	if err != nil {
		res.err = err
		logger.Error().Err(err).Str("source", source).Msg("fetch failed")
		return res
	}
	res.synthetic = fetchStatus == metrics.StatusFallback

	offers := make([]domain.Offer, 0, len(raw))
	for _, r := range raw {
		res.processed++

		offer, err := o.normalizer.Offer(r, source)
		if err != nil {
			res.filtered++
			metrics.RecordsFiltered.WithLabelValues(source, metrics.ReasonInvalid).Inc()
			logger.Debug().Err(err).Str("source", source).Str("gpu", r.GPUName).Msg("offer rejected")
			continue
		}

		score := quality.Score(r)
		if !o.gate.Pass(score) {
			res.filtered++
			metrics.RecordsFiltered.WithLabelValues(source, metrics.ReasonLowQuality).Inc()
			logger.Debug().Str("source", source).Str("gpu", r.GPUName).Float64("score", score).Msg("offer below quality threshold")
			continue
		}
		offer.QualityScore = score

		offers = append(offers, offer)
	}

	if len(offers) == 0 {
		logger.Warn().Str("source", source).Int("processed", res.processed).Msg("no offers survived validation")
		return res
	}

	published, err := o.publisher.Publish(ctx, source, offers)
	res.published = published
	metrics.RecordsPublished.WithLabelValues(source).Add(float64(published))
	if err != nil {
		res.err = err
		logger.Error().Err(err).Str("source", source).Msg("publish failed")
	}
	return res
}

// fetchOffers resolves raw offers for a source: recent results come from
// the cache, live fetches respect the source's rate limit and retry
// policy, and a failed live fetch falls back to the synthetic dataset
// when one exists.
func (o *Orchestrator) fetchOffers(ctx context.Context, provider providers.Provider) ([]domain.RawOffer, string, error) {
	source := provider.Name()

	if cached, ok := o.results.Get(source); ok {
		return cached, metrics.StatusCached, nil
	}

	if err := o.awaitRateLimit(ctx, source, provider.RateLimit()); err != nil {
		return nil, metrics.StatusError, err
	}
	o.markFetched(source)

	offers, err := o.retry.Fetch(ctx, provider)
	if err == nil {
		o.results.Set(source, offers)
		return offers, metrics.StatusLive, nil
	}

	if o.cfg.SyntheticFallback {
		if synthetic := providers.SyntheticOffers(source); len(synthetic) > 0 {
			zerolog.Ctx(ctx).Warn().Err(err).Str("source", source).Msg("live fetch failed, using synthetic dataset")
			return synthetic, metrics.StatusFallback, nil
		}
	}
	return nil, metrics.StatusError, err
}

// awaitRateLimit blocks until the source's minimum fetch spacing has
// passed.
func (o *Orchestrator) awaitRateLimit(ctx context.Context, source string, limit time.Duration) error {
	o.mu.Lock()
	last := o.lastFetch[source]
	o.mu.Unlock()

	wait := limit - time.Since(last)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (o *Orchestrator) markFetched(source string) {
	o.mu.Lock()
	o.lastFetch[source] = time.Now()
	o.mu.Unlock()
}

func (o *Orchestrator) accumulate(cycle domain.CycleStats) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats.CyclesTotal++
	o.stats.FetchesAttempted += int64(cycle.FetchesAttempted)
	o.stats.FetchesSucceeded += int64(cycle.FetchesSucceeded)
	o.stats.FetchesFailed += int64(cycle.FetchesFailed)
	o.stats.RecordsProcessed += int64(cycle.RecordsProcessed)
	o.stats.RecordsFiltered += int64(cycle.RecordsFiltered)
	o.stats.RecordsPublished += int64(cycle.RecordsPublished)
	o.stats.LastCycleID = cycle.CycleID
	o.stats.LastCycleAt = cycle.StartedAt
	o.stats.LastCycleMillis = cycle.Duration.Milliseconds()
	o.stats.LastCycleRecords = cycle.RecordsPublished
}

// resetStats starts a fresh accumulation window and persists the empty
// snapshot so readers do not keep serving stale hourly numbers.
func (o *Orchestrator) resetStats(ctx context.Context) {
	o.mu.Lock()
	o.stats = domain.ScrapeStats{StartedAt: time.Now().UTC()}
	o.mu.Unlock()

	zerolog.Ctx(ctx).Info().Msg("hourly stats reset")
	o.persistStats(ctx)
}

func (o *Orchestrator) persistStats(ctx context.Context) {
	if o.status == nil {
		return
	}
	o.mu.Lock()
	snapshot := o.stats
	o.mu.Unlock()

	if err := o.status.SaveScrapeStats(ctx, snapshot); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to persist scrape stats")
	}
}
