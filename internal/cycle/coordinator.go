// Package cycle runs the decision loop: fetch the market universe,
// screen it, form a consensus per market, size the stake, and submit.
// Exactly one cycle runs at a time; a cycle that overruns its deadline
// is cut short rather than overlapped.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/storage"
	"github.com/mselser95/polymarket-agent/pkg/types"
)

// ErrCycleInProgress is returned when a trigger arrives while a cycle is
// already running.
var ErrCycleInProgress = errors.New("cycle already in progress")

// MarketSource fetches the active market universe.
type MarketSource interface {
	FetchActiveMarkets(ctx context.Context, limit, offset int, orderBy string) (*types.MarketsResponse, error)
}

// MetadataSource resolves per-token exchange limits.
type MetadataSource interface {
	GetTokenMetadata(ctx context.Context, tokenID string) (*types.TokenMetadata, error)
}

// Screen filters markets down to the tradable candidates.
type Screen interface {
	Filter(markets []types.Market) []types.Market
}

// Analyzer forms a consensus for one market.
type Analyzer interface {
	Analyze(ctx context.Context, market *types.Market) *types.ConsensusResult
}

// Sizer turns a consensus into a stake decision.
type Sizer interface {
	Decide(result *types.ConsensusResult, tokenID string, bankroll float64, meta *types.TokenMetadata) *types.SizingDecision
}

// Submitter places orders and classifies failures.
type Submitter interface {
	Submit(ctx context.Context, decision *types.SizingDecision) (*types.Order, *types.SubmissionError)
	Halted() bool
}

// OrderRecorder persists orders as they are produced.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, order *types.Order) error
}

// BankrollSource resolves the bankroll used for sizing this cycle.
type BankrollSource interface {
	Bankroll(ctx context.Context) (float64, error)
}

// Summary is the outcome of one cycle, persisted for the status API.
type Summary struct {
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	MarketsFetched int            `json:"markets_fetched"`
	Candidates     int            `json:"candidates"`
	Abstained      int            `json:"abstained"`
	SizingRejected int            `json:"sizing_rejected"`
	Submitted      int            `json:"submitted"`
	Failed         map[string]int `json:"failed,omitempty"` // By error class
	Halted         bool           `json:"halted"`
	DeadlineHit    bool           `json:"deadline_hit"`
}

// Coordinator owns the decision loop.
type Coordinator struct {
	markets     MarketSource
	metadata    MetadataSource
	screener    Screen
	analyzer    Analyzer
	sizer       Sizer
	submitter   Submitter
	recorder    OrderRecorder
	bankroll    BankrollSource
	store       storage.Store
	marketLimit int
	interval    time.Duration
	deadline    time.Duration
	onHalt      func()
	logger      *zap.Logger

	runMu sync.Mutex // Held for the duration of a cycle

	mu   sync.Mutex
	last *Summary
}

// Config holds coordinator configuration.
type Config struct {
	Markets     MarketSource
	Metadata    MetadataSource
	Screener    Screen
	Analyzer    Analyzer
	Sizer       Sizer
	Submitter   Submitter
	Recorder    OrderRecorder
	Bankroll    BankrollSource
	Store       storage.Store
	MarketLimit int
	Interval    time.Duration
	Deadline    time.Duration
	OnHalt      func() // Called once when a submission failure is process-fatal
	Logger      *zap.Logger
}

// New creates a coordinator.
func New(cfg *Config) (*Coordinator, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Markets == nil {
		return nil, errors.New("market source cannot be nil")
	}

	if cfg.Metadata == nil {
		return nil, errors.New("metadata source cannot be nil")
	}

	if cfg.Screener == nil {
		return nil, errors.New("screener cannot be nil")
	}

	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}

	if cfg.Sizer == nil {
		return nil, errors.New("sizer cannot be nil")
	}

	if cfg.Submitter == nil {
		return nil, errors.New("submitter cannot be nil")
	}

	if cfg.Recorder == nil {
		return nil, errors.New("order recorder cannot be nil")
	}

	if cfg.Bankroll == nil {
		return nil, errors.New("bankroll source cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	marketLimit := cfg.MarketLimit
	if marketLimit <= 0 {
		marketLimit = 20
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = 5 * time.Minute
	}

	return &Coordinator{
		markets:     cfg.Markets,
		metadata:    cfg.Metadata,
		screener:    cfg.Screener,
		analyzer:    cfg.Analyzer,
		sizer:       cfg.Sizer,
		submitter:   cfg.Submitter,
		recorder:    cfg.Recorder,
		bankroll:    cfg.Bankroll,
		store:       cfg.Store,
		marketLimit: marketLimit,
		interval:    interval,
		deadline:    deadline,
		onHalt:      cfg.OnHalt,
		logger:      cfg.Logger,
	}, nil
}

// Run executes cycles on a fixed interval until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("cycle-loop-started",
		zap.Duration("interval", c.interval),
		zap.Duration("deadline", c.deadline))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cycle-loop-stopped")
			return
		case <-ticker.C:
			_, err := c.RunCycle(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("cycle-failed", zap.Error(err))
			}
		}
	}
}

// LastSummary returns the most recent cycle summary, or nil before the
// first cycle completes.
func (c *Coordinator) LastSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return nil
	}
	out := *c.last
	return &out
}

// RunCycle executes a single cycle. A concurrent call while a cycle is
// running returns ErrCycleInProgress instead of queueing.
func (c *Coordinator) RunCycle(ctx context.Context) (*Summary, error) {
	if !c.runMu.TryLock() {
		CyclesTotal.WithLabelValues("skipped").Inc()
		return nil, ErrCycleInProgress
	}
	defer c.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	summary := &Summary{
		StartedAt: time.Now(),
		Failed:    make(map[string]int),
	}

	err := c.execute(ctx, summary)

	summary.Duration = time.Since(summary.StartedAt)
	summary.DeadlineHit = errors.Is(ctx.Err(), context.DeadlineExceeded)
	c.finish(summary, err)

	return summary, err
}

func (c *Coordinator) execute(ctx context.Context, summary *Summary) error {
	if c.submitter.Halted() {
		summary.Halted = true
		return errors.New("submissions halted")
	}

	resp, err := c.markets.FetchActiveMarkets(ctx, c.marketLimit, 0, "volume24hr")
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}
	summary.MarketsFetched = resp.Count

	candidates := c.screener.Filter(resp.Data)
	summary.Candidates = len(candidates)

	bankroll, err := c.bankroll.Bankroll(ctx)
	if err != nil {
		return fmt.Errorf("resolve bankroll: %w", err)
	}

	c.logger.Info("cycle-started",
		zap.Int("markets", resp.Count),
		zap.Int("candidates", len(candidates)),
		zap.Float64("bankroll", bankroll))

	for i := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		market := &candidates[i]
		fatal := c.evaluate(ctx, market, bankroll, summary)
		if fatal {
			summary.Halted = true
			if c.onHalt != nil {
				c.onHalt()
			}
			return errors.New("submission failure is process-fatal")
		}
	}

	return nil
}

// evaluate runs one market through consensus, sizing, and submission.
// Returns true when a submission failure must halt the process.
func (c *Coordinator) evaluate(ctx context.Context, market *types.Market, bankroll float64, summary *Summary) bool {
	result := c.analyzer.Analyze(ctx, market)
	if result.Direction == types.DirectionAbstain {
		summary.Abstained++
		return false
	}

	token := market.GetTokenByOutcome(string(result.Direction))
	if token == nil {
		c.logger.Warn("missing-outcome-token",
			zap.String("market-id", market.ID),
			zap.String("direction", string(result.Direction)))
		summary.SizingRejected++
		return false
	}

	meta, err := c.metadata.GetTokenMetadata(ctx, token.TokenID)
	if err != nil {
		// Conservative defaults keep the order inside exchange limits.
		c.logger.Warn("metadata-fetch-failed",
			zap.String("token-id", token.TokenID),
			zap.Error(err))
		meta = &types.TokenMetadata{TickSize: 0.01, MinOrderSize: 5.0}
	}

	decision := c.sizer.Decide(result, token.TokenID, bankroll, meta)
	if decision.Rejected() {
		summary.SizingRejected++
		return false
	}

	order, subErr := c.submitter.Submit(ctx, decision)
	if order != nil {
		recordErr := c.recorder.RecordOrder(ctx, order)
		if recordErr != nil {
			c.logger.Error("order-record-failed",
				zap.String("order-id", order.ID),
				zap.Error(recordErr))
		}
	}

	if subErr != nil {
		summary.Failed[string(subErr.Kind)]++
		return subErr.Fatal()
	}

	summary.Submitted++
	return false
}

func (c *Coordinator) finish(summary *Summary, err error) {
	c.mu.Lock()
	c.last = summary
	c.mu.Unlock()

	result := "completed"
	switch {
	case summary.Halted:
		result = "halted"
	case err != nil:
		result = "failed"
	}

	CyclesTotal.WithLabelValues(result).Inc()
	CycleDurationSeconds.Observe(summary.Duration.Seconds())
	LastCycleTimestamp.SetToCurrentTime()

	data, marshalErr := json.Marshal(summary)
	if marshalErr == nil {
		// Best effort; the next cycle overwrites it anyway.
		putErr := c.store.Put(context.Background(), storage.KeyLastCycle, data)
		if putErr != nil {
			c.logger.Warn("summary-persist-failed", zap.Error(putErr))
		}
	}

	c.logger.Info("cycle-finished",
		zap.String("result", result),
		zap.Duration("duration", summary.Duration),
		zap.Int("candidates", summary.Candidates),
		zap.Int("abstained", summary.Abstained),
		zap.Int("sizing-rejected", summary.SizingRejected),
		zap.Int("submitted", summary.Submitted),
		zap.Any("failed", summary.Failed))
}
