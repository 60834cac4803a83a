package consensus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OpinionRequestsTotal tracks opinion queries by model.
	OpinionRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_consensus_opinion_requests_total",
		Help: "Total number of opinion queries issued, by model",
	}, []string{"model"})

	// OpinionFailuresTotal tracks failed opinion queries by model and tag.
	OpinionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_consensus_opinion_failures_total",
		Help: "Total number of failed opinion queries, by model and failure tag",
	}, []string{"model", "tag"})

	// AbstainsTotal tracks markets where consensus abstained.
	AbstainsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_consensus_abstains_total",
		Help: "Total number of markets where consensus abstained",
	})

	// AnalysisDurationSeconds tracks per-market consensus latency.
	AnalysisDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_consensus_analysis_duration_seconds",
		Help:    "Duration of per-market consensus analysis",
		Buckets: prometheus.DefBuckets,
	})
)
