// Package metrics exposes the scrape pipeline's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome labels for ScrapesTotal.
const (
	StatusLive     = "live"
	StatusCached   = "cached"
	StatusFallback = "fallback"
	StatusError    = "error"
)

// Filter reason labels for RecordsFiltered.
const (
	ReasonInvalid    = "invalid"
	ReasonLowQuality = "low_quality"
)

var (
	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpuyield",
		Subsystem: "scraper",
		Name:      "scrapes_total",
		Help:      "Fetch outcomes per source.",
	}, []string{"source", "status"})

	RecordsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpuyield",
		Subsystem: "scraper",
		Name:      "records_published_total",
		Help:      "Offers published to the price feed per source.",
	}, []string{"source"})

	RecordsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpuyield",
		Subsystem: "scraper",
		Name:      "records_filtered_total",
		Help:      "Offers dropped before publishing, by reason.",
	}, []string{"source", "reason"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gpuyield",
		Subsystem: "scraper",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of a full scrape cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gpuyield",
		Subsystem: "scraper",
		Name:      "fetch_duration_seconds",
		Help:      "Wall time of a single source fetch including retries.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source"})
)
