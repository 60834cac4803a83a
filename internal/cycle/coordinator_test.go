package cycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/storage"
	"github.com/mselser95/polymarket-agent/pkg/types"
)

type fakeMarkets struct {
	markets []types.Market
	err     error
}

func (f *fakeMarkets) FetchActiveMarkets(_ context.Context, _, _ int, _ string) (*types.MarketsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.MarketsResponse{Data: f.markets, Count: len(f.markets)}, nil
}

type fakeMetadata struct{}

func (f *fakeMetadata) GetTokenMetadata(_ context.Context, _ string) (*types.TokenMetadata, error) {
	return &types.TokenMetadata{TickSize: 0.01, MinOrderSize: 5}, nil
}

type passthroughScreen struct{}

func (passthroughScreen) Filter(markets []types.Market) []types.Market { return markets }

type fakeAnalyzer struct {
	results map[string]*types.ConsensusResult
}

func (f *fakeAnalyzer) Analyze(_ context.Context, market *types.Market) *types.ConsensusResult {
	if r, ok := f.results[market.ID]; ok {
		return r
	}
	return &types.ConsensusResult{MarketID: market.ID, Direction: types.DirectionAbstain}
}

type fakeSizer struct {
	reject string
}

func (f *fakeSizer) Decide(result *types.ConsensusResult, tokenID string, bankroll float64, _ *types.TokenMetadata) *types.SizingDecision {
	return &types.SizingDecision{
		MarketID:     result.MarketID,
		TokenID:      tokenID,
		Direction:    result.Direction,
		Price:        result.MarketPrice,
		Bankroll:     bankroll,
		Fraction:     0.05,
		Amount:       50,
		RejectReason: f.reject,
	}
}

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	delay   time.Duration
	subErr  *types.SubmissionError
	haltSet bool
}

func (f *fakeSubmitter) Submit(_ context.Context, decision *types.SizingDecision) (*types.Order, *types.SubmissionError) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	order := &types.Order{ID: "o-" + decision.MarketID, MarketID: decision.MarketID, Status: types.OrderOpen}
	if f.subErr != nil {
		order.Status = types.OrderFailedLocal
		return order, f.subErr
	}
	return order, nil
}

func (f *fakeSubmitter) Halted() bool { return f.haltSet }

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	mu     sync.Mutex
	orders []types.Order
}

func (f *fakeRecorder) RecordOrder(_ context.Context, order *types.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, *order)
	return nil
}

func market(id string) types.Market {
	return types.Market{
		ID:       id,
		Question: "Will it happen?",
		Active:   true,
		Tokens: []types.Token{
			{TokenID: "tok-" + id + "-yes", Outcome: "Yes"},
			{TokenID: "tok-" + id + "-no", Outcome: "No"},
		},
		YesPrice:  0.40,
		Liquidity: 5000,
	}
}

func yesConsensus(marketID string) *types.ConsensusResult {
	return &types.ConsensusResult{
		MarketID:       marketID,
		Direction:      types.DirectionYes,
		Agreement:      2,
		Respondents:    3,
		AvgProbability: 0.60,
		MarketPrice:    0.40,
		Edge:           0.20,
	}
}

type coordinatorParts struct {
	markets   *fakeMarkets
	analyzer  *fakeAnalyzer
	sizer     *fakeSizer
	submitter *fakeSubmitter
	recorder  *fakeRecorder
}

func newTestCoordinator(t *testing.T, parts *coordinatorParts, opts ...func(*Config)) *Coordinator {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	cfg := &Config{
		Markets:   parts.markets,
		Metadata:  &fakeMetadata{},
		Screener:  passthroughScreen{},
		Analyzer:  parts.analyzer,
		Sizer:     parts.sizer,
		Submitter: parts.submitter,
		Recorder:  parts.recorder,
		Bankroll:  FixedBankroll(1000),
		Store:     storage.NewMemoryStore(zap.NewNop()),
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestRunCycle_SubmitsSizedDecisions(t *testing.T) {
	parts := &coordinatorParts{
		markets: &fakeMarkets{markets: []types.Market{market("m1"), market("m2")}},
		analyzer: &fakeAnalyzer{results: map[string]*types.ConsensusResult{
			"m1": yesConsensus("m1"),
		}},
		sizer:     &fakeSizer{},
		submitter: &fakeSubmitter{},
		recorder:  &fakeRecorder{},
	}
	c := newTestCoordinator(t, parts)

	summary, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.MarketsFetched)
	assert.Equal(t, 2, summary.Candidates)
	assert.Equal(t, 1, summary.Abstained)
	assert.Equal(t, 1, summary.Submitted)
	assert.Zero(t, summary.SizingRejected)
	assert.False(t, summary.Halted)

	require.Len(t, parts.recorder.orders, 1)
	assert.Equal(t, "o-m1", parts.recorder.orders[0].ID)
}

func TestRunCycle_SizingRejectionsCounted(t *testing.T) {
	parts := &coordinatorParts{
		markets: &fakeMarkets{markets: []types.Market{market("m1")}},
		analyzer: &fakeAnalyzer{results: map[string]*types.ConsensusResult{
			"m1": yesConsensus("m1"),
		}},
		sizer:     &fakeSizer{reject: "no_edge"},
		submitter: &fakeSubmitter{},
		recorder:  &fakeRecorder{},
	}
	c := newTestCoordinator(t, parts)

	summary, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SizingRejected)
	assert.Zero(t, summary.Submitted)
	assert.Zero(t, parts.submitter.callCount())
}

func TestRunCycle_FatalFailureHaltsCycle(t *testing.T) {
	parts := &coordinatorParts{
		markets: &fakeMarkets{markets: []types.Market{market("m1"), market("m2"), market("m3")}},
		analyzer: &fakeAnalyzer{results: map[string]*types.ConsensusResult{
			"m1": yesConsensus("m1"),
			"m2": yesConsensus("m2"),
			"m3": yesConsensus("m3"),
		}},
		sizer: &fakeSizer{},
		submitter: &fakeSubmitter{
			subErr: &types.SubmissionError{Kind: types.ErrKindGeoblocked, Message: "geoblocked"},
		},
		recorder: &fakeRecorder{},
	}

	halted := false
	c := newTestCoordinator(t, parts, func(cfg *Config) {
		cfg.OnHalt = func() { halted = true }
	})

	summary, err := c.RunCycle(context.Background())
	require.Error(t, err)

	assert.True(t, summary.Halted)
	assert.True(t, halted)
	// The first fatal failure stops the cycle.
	assert.Equal(t, 1, parts.submitter.callCount())
	assert.Equal(t, 1, summary.Failed[string(types.ErrKindGeoblocked)])
}

func TestRunCycle_NonFatalFailuresContinue(t *testing.T) {
	parts := &coordinatorParts{
		markets: &fakeMarkets{markets: []types.Market{market("m1"), market("m2")}},
		analyzer: &fakeAnalyzer{results: map[string]*types.ConsensusResult{
			"m1": yesConsensus("m1"),
			"m2": yesConsensus("m2"),
		}},
		sizer: &fakeSizer{},
		submitter: &fakeSubmitter{
			subErr: &types.SubmissionError{Kind: types.ErrKindInsufficientBalance, Message: "no balance"},
		},
		recorder: &fakeRecorder{},
	}
	c := newTestCoordinator(t, parts)

	summary, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, parts.submitter.callCount())
	assert.Equal(t, 2, summary.Failed[string(types.ErrKindInsufficientBalance)])
	assert.False(t, summary.Halted)
}

func TestRunCycle_MutualExclusion(t *testing.T) {
	parts := &coordinatorParts{
		markets: &fakeMarkets{markets: []types.Market{market("m1")}},
		analyzer: &fakeAnalyzer{results: map[string]*types.ConsensusResult{
			"m1": yesConsensus("m1"),
		}},
		sizer:     &fakeSizer{},
		submitter: &fakeSubmitter{delay: 200 * time.Millisecond},
		recorder:  &fakeRecorder{},
	}
	c := newTestCoordinator(t, parts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.RunCycle(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	_, err := c.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)

	<-done
	assert.Equal(t, 1, parts.submitter.callCount())
}

func TestRunCycle_HaltedSubmitterSkipsCycle(t *testing.T) {
	parts := &coordinatorParts{
		markets:   &fakeMarkets{markets: []types.Market{market("m1")}},
		analyzer:  &fakeAnalyzer{},
		sizer:     &fakeSizer{},
		submitter: &fakeSubmitter{haltSet: true},
		recorder:  &fakeRecorder{},
	}
	c := newTestCoordinator(t, parts)

	summary, err := c.RunCycle(context.Background())
	require.Error(t, err)
	assert.True(t, summary.Halted)
	assert.Zero(t, parts.submitter.callCount())
}

func TestLastSummary(t *testing.T) {
	parts := &coordinatorParts{
		markets:   &fakeMarkets{},
		analyzer:  &fakeAnalyzer{},
		sizer:     &fakeSizer{},
		submitter: &fakeSubmitter{},
		recorder:  &fakeRecorder{},
	}
	c := newTestCoordinator(t, parts)

	assert.Nil(t, c.LastSummary())

	_, err := c.RunCycle(context.Background())
	require.NoError(t, err)

	last := c.LastSummary()
	require.NotNil(t, last)
	assert.Zero(t, last.MarketsFetched)
}
