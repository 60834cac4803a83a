package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OrdersTracked is the number of orders in the ledger.
	OrdersTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agent_ledger_orders_tracked",
		Help: "Number of orders currently tracked by the ledger",
	})

	// OrdersPendingConfirm is the number of local orders not yet visible
	// remotely.
	OrdersPendingConfirm = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agent_ledger_orders_pending_confirm",
		Help: "Number of non-terminal orders awaiting remote confirmation",
	})

	// PositionsTracked is the number of positions in the ledger.
	PositionsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agent_ledger_positions_tracked",
		Help: "Number of positions currently tracked by the ledger",
	})

	// ReconcilesTotal counts completed reconciliation passes.
	ReconcilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_ledger_reconciles_total",
		Help: "Total number of successful reconciliation passes",
	})

	// ReconcileErrorsTotal counts failed reconciliation stages.
	ReconcileErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_ledger_reconcile_errors_total",
			Help: "Total number of reconciliation failures, by stage",
		},
		[]string{"stage"},
	)

	// ReconcileDurationSeconds tracks reconciliation pass latency.
	ReconcileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_ledger_reconcile_duration_seconds",
		Help:    "Duration of reconciliation passes in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
