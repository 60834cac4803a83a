package cycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CyclesTotal counts cycles by result.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_cycle_cycles_total",
			Help: "Total number of decision cycles, by result",
		},
		[]string{"result"},
	)

	// CycleDurationSeconds tracks end-to-end cycle latency.
	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_cycle_duration_seconds",
		Help:    "Duration of decision cycles in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	// LastCycleTimestamp is the completion time of the last cycle.
	LastCycleTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agent_cycle_last_timestamp_seconds",
		Help: "Unix timestamp of the last completed cycle",
	})
)
