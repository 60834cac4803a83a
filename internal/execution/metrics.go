package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SubmissionsTotal tracks submission attempts by outcome.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_execution_submissions_total",
			Help: "Total number of order submissions, by outcome",
		},
		[]string{"outcome"},
	)

	// FailuresTotal tracks submission failures by error class.
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_execution_failures_total",
			Help: "Total number of submission failures, by error class",
		},
		[]string{"class"},
	)

	// AuthRetriesTotal tracks credential re-derivations triggered by
	// authentication failures.
	AuthRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agent_execution_auth_retries_total",
		Help: "Total number of authentication retries after credential re-derivation",
	})
)
