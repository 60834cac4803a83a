package sizing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// DecisionsTotal tracks sizing decisions that produced a stake.
	DecisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_sizing_decisions_total",
		Help: "Total number of sizing decisions that produced a stake",
	})

	// RejectionsTotal tracks sizing rejections by reason.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_sizing_rejections_total",
		Help: "Total number of sizing rejections, by reason",
	}, []string{"reason"})

	// StakeFraction observes the distribution of clamped Kelly fractions.
	StakeFraction = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_sizing_stake_fraction",
		Help:    "Distribution of clamped Kelly stake fractions",
		Buckets: []float64{0.005, 0.01, 0.02, 0.03, 0.05, 0.1, 0.25},
	})
)
