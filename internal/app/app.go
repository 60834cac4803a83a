// Package app wires the agent together: configuration, wallet identity,
// exchange credentials, storage, the decision pipeline, reconciliation,
// and the HTTP control surface.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/internal/cycle"
	"github.com/mselser95/polymarket-agent/internal/execution"
	"github.com/mselser95/polymarket-agent/internal/ledger"
	"github.com/mselser95/polymarket-agent/pkg/config"
	"github.com/mselser95/polymarket-agent/pkg/healthprobe"
	"github.com/mselser95/polymarket-agent/pkg/httpserver"
	"github.com/mselser95/polymarket-agent/pkg/storage"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	store         storage.Store
	ledger        *ledger.Ledger
	reconciler    *ledger.Reconciler
	coordinator   *cycle.Coordinator
	submitter     *execution.Submitter
	tracker       *wallet.Tracker
	identity      *wallet.Identity
	opts          *Options
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// RunCycleOnStart triggers a decision cycle immediately instead of
	// waiting for the first interval tick.
	RunCycleOnStart bool
}
