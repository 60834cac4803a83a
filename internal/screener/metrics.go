package screener

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// MarketsScreenedTotal tracks total markets evaluated.
	MarketsScreenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_screener_markets_total",
		Help: "Total number of markets evaluated by the screener",
	})

	// MarketsPassedTotal tracks markets that passed all checks.
	MarketsPassedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_screener_passed_total",
		Help: "Total number of markets that passed screening",
	})

	// MarketsRejectedTotal tracks rejected markets by reason.
	MarketsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_screener_rejected_total",
		Help: "Total number of markets rejected by screening, by reason",
	}, []string{"reason"})
)
