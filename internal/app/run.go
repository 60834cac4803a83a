package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/internal/cycle"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("log-level", a.cfg.LogLevel),
		zap.String("signer", a.identity.SignerAddress.Hex()),
		zap.String("funder", a.identity.FunderAddress.Hex()),
		zap.Duration("cycle-interval", a.cfg.CycleInterval))

	a.startComponents()

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start reconciler; its initial pass refreshes the ledger before the
	// first cycle can act on stale state.
	a.wg.Add(1)
	go a.runReconciler()

	// Start wallet tracker
	a.wg.Add(1)
	go a.runTracker()

	// Start the cycle loop
	a.wg.Add(1)
	go a.runCycleLoop()

	if a.opts.RunCycleOnStart {
		a.wg.Add(1)
		go a.runInitialCycle()
	}
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runReconciler() {
	defer a.wg.Done()
	a.reconciler.Run(a.ctx)
}

func (a *App) runTracker() {
	defer a.wg.Done()
	err := a.tracker.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("wallet-tracker-error", zap.Error(err))
	}
}

func (a *App) runCycleLoop() {
	defer a.wg.Done()
	a.coordinator.Run(a.ctx)
}

func (a *App) runInitialCycle() {
	defer a.wg.Done()
	_, err := a.coordinator.RunCycle(a.ctx)
	if err != nil && !errors.Is(err, cycle.ErrCycleInProgress) && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("initial-cycle-failed", zap.Error(err))
	}
}

// RunOnce reconciles, runs a single decision cycle, reconciles again to
// pick up the freshly placed orders, and shuts down. Used by the cycle
// subcommand.
func (a *App) RunOnce() (*cycle.Summary, error) {
	defer func() {
		_ = a.Shutdown()
	}()

	err := a.reconciler.Reconcile(a.ctx)
	if err != nil {
		a.logger.Warn("pre-cycle-reconcile-failed", zap.Error(err))
	}

	summary, err := a.coordinator.RunCycle(a.ctx)
	if err != nil {
		return summary, err
	}

	err = a.reconciler.Reconcile(a.ctx)
	if err != nil {
		a.logger.Warn("post-cycle-reconcile-failed", zap.Error(err))
	}

	return summary, nil
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
