// Package ledger is the single writer for order and position state. All
// mutations flow through one Ledger so remote reconciliation and cycle
// writes can never race.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/storage"
	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Ledger holds the local view of orders and positions, backed by a
// storage.Store. Remote truth always wins on merge.
type Ledger struct {
	store  storage.Store
	logger *zap.Logger

	mu        sync.Mutex
	orders    map[string]*types.Order
	positions []types.Position
}

// Config holds ledger configuration.
type Config struct {
	Store  storage.Store
	Logger *zap.Logger
}

// New creates a ledger and loads any persisted state.
func New(ctx context.Context, cfg *Config) (*Ledger, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	l := &Ledger{
		store:  cfg.Store,
		logger: cfg.Logger,
		orders: make(map[string]*types.Order),
	}

	err := l.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}

	return l, nil
}

func (l *Ledger) load(ctx context.Context) error {
	data, ok, err := l.store.Get(ctx, storage.KeyOrders)
	if err != nil {
		return fmt.Errorf("get orders: %w", err)
	}
	if ok {
		err = json.Unmarshal(data, &l.orders)
		if err != nil {
			return fmt.Errorf("parse orders: %w", err)
		}
	}

	data, ok, err = l.store.Get(ctx, storage.KeyPositions)
	if err != nil {
		return fmt.Errorf("get positions: %w", err)
	}
	if ok {
		err = json.Unmarshal(data, &l.positions)
		if err != nil {
			return fmt.Errorf("parse positions: %w", err)
		}
	}

	l.logger.Info("ledger-loaded",
		zap.Int("orders", len(l.orders)),
		zap.Int("positions", len(l.positions)))

	return nil
}

// RecordOrder upserts a locally-originated order. Recording the same
// order twice is a no-op beyond refreshing its fields.
func (l *Ledger) RecordOrder(ctx context.Context, order *types.Order) error {
	if order == nil || order.ID == "" {
		return errors.New("order must have an ID")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stored := *order
	l.orders[order.ID] = &stored
	OrdersTracked.Set(float64(len(l.orders)))

	return l.persistOrders(ctx)
}

// MergeRemoteOrders folds the remote open-order snapshot into the local
// view. Remote status overwrites local status for any shared order;
// remote-only orders are adopted; local non-terminal orders missing from
// the snapshot are flagged pending confirmation rather than guessed at.
// The merge is idempotent: applying the same snapshot twice yields the
// same state.
func (l *Ledger) MergeRemoteOrders(ctx context.Context, remote []types.OrderQueryResponse) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	seen := make(map[string]bool, len(remote))

	for i := range remote {
		r := &remote[i]
		if r.OrderID == "" {
			continue
		}
		seen[r.OrderID] = true

		local, ok := l.orders[r.OrderID]
		if !ok {
			local = &types.Order{
				ID:        r.OrderID,
				MarketID:  r.MarketID,
				TokenID:   r.TokenID,
				Side:      r.Outcome,
				Price:     r.Price,
				Size:      r.Size,
				CreatedAt: now,
			}
			l.orders[r.OrderID] = local
			l.logger.Info("adopted-remote-order",
				zap.String("order-id", r.OrderID),
				zap.String("market-id", r.MarketID))
		}

		status := remoteStatus(r)
		if local.Status != status {
			l.logger.Info("order-status-changed",
				zap.String("order-id", local.ID),
				zap.String("from", string(local.Status)),
				zap.String("to", string(status)))
			local.Status = status
			local.UpdatedAt = now
		}
		local.PendingConfirm = false
	}

	pending := 0
	for id, order := range l.orders {
		if seen[id] || order.Status.Terminal() {
			continue
		}
		if !order.PendingConfirm {
			order.PendingConfirm = true
			order.UpdatedAt = now
			l.logger.Warn("order-missing-remotely",
				zap.String("order-id", id),
				zap.String("status", string(order.Status)))
		}
		pending++
	}

	OrdersTracked.Set(float64(len(l.orders)))
	OrdersPendingConfirm.Set(float64(pending))

	return l.persistOrders(ctx)
}

// ReplacePositions replaces the position snapshot wholesale. Positions
// are derived state and carry no local-only information worth merging.
func (l *Ledger) ReplacePositions(ctx context.Context, positions []types.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make([]types.Position, len(positions))
	copy(l.positions, positions)
	PositionsTracked.Set(float64(len(l.positions)))

	data, err := json.Marshal(l.positions)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	return l.store.Put(ctx, storage.KeyPositions, data)
}

// Orders returns a snapshot of all tracked orders.
func (l *Ledger) Orders() []types.Order {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.Order, 0, len(l.orders))
	for _, order := range l.orders {
		out = append(out, *order)
	}
	return out
}

// Order returns a single tracked order by ID.
func (l *Ledger) Order(id string) (types.Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[id]
	if !ok {
		return types.Order{}, false
	}
	return *order, true
}

// Positions returns a snapshot of the current positions.
func (l *Ledger) Positions() []types.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

func (l *Ledger) persistOrders(ctx context.Context) error {
	data, err := json.Marshal(l.orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}

	return l.store.Put(ctx, storage.KeyOrders, data)
}

// remoteStatus maps a CLOB order-query status to the lifecycle state.
func remoteStatus(r *types.OrderQueryResponse) types.OrderStatus {
	if r.Size > 0 && r.SizeFilled >= r.Size {
		return types.OrderFilled
	}

	switch strings.ToUpper(r.Status) {
	case "LIVE":
		return types.OrderOpen
	case "MATCHED":
		return types.OrderFilled
	case "CANCELED", "CANCELLED":
		return types.OrderCancelled
	case "EXPIRED":
		return types.OrderExpired
	case "REJECTED", "UNMATCHED":
		return types.OrderRejected
	default:
		return types.OrderSubmitted
	}
}
