package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MarketsFetchedTotal tracks total markets fetched from the Gamma API.
	MarketsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_feed_markets_fetched_total",
		Help: "Total number of markets fetched from Gamma API",
	})

	// FetchErrorsTotal tracks Gamma API fetch failures.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_feed_fetch_errors_total",
		Help: "Total number of Gamma API fetch failures",
	})

	// FetchDurationSeconds tracks Gamma API fetch latency.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_feed_fetch_duration_seconds",
		Help:    "Duration of Gamma API fetch requests",
		Buckets: prometheus.DefBuckets,
	})

	// MetadataCacheHitsTotal tracks token metadata cache hits.
	MetadataCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_feed_metadata_cache_hits_total",
		Help: "Total number of token metadata cache hits",
	})

	// MetadataCacheMissesTotal tracks token metadata cache misses.
	MetadataCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_feed_metadata_cache_misses_total",
		Help: "Total number of token metadata cache misses",
	})
)
