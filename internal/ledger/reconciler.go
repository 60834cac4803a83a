package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// OrderSource reports the orders the exchange currently considers open.
type OrderSource interface {
	GetOpenOrders(ctx context.Context) ([]types.OrderQueryResponse, error)
}

// PositionSource reports the wallet's current positions.
type PositionSource interface {
	GetPositions(ctx context.Context, address string) ([]types.Position, error)
}

// Reconciler periodically folds remote truth into the ledger. Reads are
// retried once on transient failure; a pass that still fails is logged
// and skipped, the next tick tries again from scratch.
type Reconciler struct {
	ledger    *Ledger
	orders    OrderSource
	positions PositionSource
	address   string
	interval  time.Duration
	logger    *zap.Logger
}

// ReconcilerConfig holds reconciler configuration.
type ReconcilerConfig struct {
	Ledger    *Ledger
	Orders    OrderSource
	Positions PositionSource
	Address   string // Funder address positions are fetched for
	Interval  time.Duration
	Logger    *zap.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(cfg *ReconcilerConfig) (*Reconciler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Ledger == nil {
		return nil, errors.New("ledger cannot be nil")
	}

	if cfg.Orders == nil {
		return nil, errors.New("order source cannot be nil")
	}

	if cfg.Positions == nil {
		return nil, errors.New("position source cannot be nil")
	}

	if cfg.Address == "" {
		return nil, errors.New("address cannot be empty")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Reconciler{
		ledger:    cfg.Ledger,
		orders:    cfg.Orders,
		positions: cfg.Positions,
		address:   cfg.Address,
		interval:  interval,
		logger:    cfg.Logger,
	}, nil
}

// Run reconciles on a fixed interval until ctx is cancelled. An initial
// pass runs immediately so the ledger is fresh before the first cycle.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler-started", zap.Duration("interval", r.interval))

	r.reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler-stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// Reconcile runs a single reconciliation pass on demand.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	return r.reconcile(ctx)
}

func (r *Reconciler) reconcile(ctx context.Context) error {
	start := time.Now()

	remote, err := withRetry(ctx, func() ([]types.OrderQueryResponse, error) {
		return r.orders.GetOpenOrders(ctx)
	})
	if err != nil {
		ReconcileErrorsTotal.WithLabelValues("orders").Inc()
		r.logger.Error("open-orders-fetch-failed", zap.Error(err))
		return fmt.Errorf("fetch open orders: %w", err)
	}

	err = r.ledger.MergeRemoteOrders(ctx, remote)
	if err != nil {
		ReconcileErrorsTotal.WithLabelValues("merge").Inc()
		r.logger.Error("order-merge-failed", zap.Error(err))
		return fmt.Errorf("merge orders: %w", err)
	}

	positions, err := withRetry(ctx, func() ([]types.Position, error) {
		return r.positions.GetPositions(ctx, r.address)
	})
	if err != nil {
		ReconcileErrorsTotal.WithLabelValues("positions").Inc()
		r.logger.Error("positions-fetch-failed", zap.Error(err))
		return fmt.Errorf("fetch positions: %w", err)
	}

	err = r.ledger.ReplacePositions(ctx, positions)
	if err != nil {
		ReconcileErrorsTotal.WithLabelValues("merge").Inc()
		r.logger.Error("position-replace-failed", zap.Error(err))
		return fmt.Errorf("replace positions: %w", err)
	}

	ReconcilesTotal.Inc()
	ReconcileDurationSeconds.Observe(time.Since(start).Seconds())
	r.logger.Debug("reconcile-complete",
		zap.Int("remote-orders", len(remote)),
		zap.Int("positions", len(positions)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// withRetry retries a read once after a short pause. Reconciliation is
// periodic, so anything beyond one retry just waits for the next tick.
func withRetry[T any](ctx context.Context, fetch func() (T, error)) (T, error) {
	out, err := fetch()
	if err == nil {
		return out, nil
	}

	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case <-time.After(time.Second):
	}

	return fetch()
}
