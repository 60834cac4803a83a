package consensus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// stubProvider returns a fixed opinion or error, optionally after a delay.
type stubProvider struct {
	name    string
	opinion *types.ModelOpinion
	err     error
	delay   time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) GetOpinion(ctx context.Context, _ *types.Market) (*types.ModelOpinion, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.opinion, nil
}

func opine(name string, p float64) *stubProvider {
	return &stubProvider{
		name:    name,
		opinion: &types.ModelOpinion{Model: name, Probability: p, Confidence: 7},
	}
}

func testMarket(price float64) *types.Market {
	return &types.Market{
		ID:       "mkt-1",
		Question: "Will it happen?",
		YesPrice: price,
		Active:   true,
	}
}

func newAnalyzer(t *testing.T, providers ...OpinionProvider) *Analyzer {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	a, err := New(&Config{
		Providers:    providers,
		Quorum:       2,
		MinAgreement: 2,
		Timeout:      time.Second,
		Logger:       logger,
	})
	require.NoError(t, err)
	return a
}

func TestNew_Validation(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	p := opine("m", 0.5)

	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Providers: []OpinionProvider{p}, Quorum: 1})
	assert.Error(t, err, "nil logger")

	_, err = New(&Config{Quorum: 1, Logger: logger})
	assert.Error(t, err, "empty roster")

	_, err = New(&Config{Providers: []OpinionProvider{p}, Quorum: 2, Logger: logger})
	assert.Error(t, err, "quorum above roster size")
}

func TestAnalyze_ConsensusYes(t *testing.T) {
	a := newAnalyzer(t,
		opine("model-a", 0.65),
		opine("model-b", 0.70),
		opine("model-c", 0.45),
	)

	result := a.Analyze(context.Background(), testMarket(0.40))

	assert.Equal(t, types.DirectionYes, result.Direction)
	assert.InDelta(t, 0.60, result.AvgProbability, 1e-9)
	assert.Equal(t, 2, result.Agreement)
	assert.Equal(t, 3, result.Respondents)
	assert.InDelta(t, 0.20, result.Edge, 1e-9)
}

func TestAnalyze_ConsensusNo(t *testing.T) {
	a := newAnalyzer(t,
		opine("model-a", 0.20),
		opine("model-b", 0.30),
		opine("model-c", 0.40),
	)

	result := a.Analyze(context.Background(), testMarket(0.60))

	assert.Equal(t, types.DirectionNo, result.Direction)
	assert.InDelta(t, 0.30, result.AvgProbability, 1e-9)
	assert.Equal(t, 3, result.Agreement)
	assert.InDelta(t, 0.30, result.Edge, 1e-9)
}

func TestAnalyze_QuorumNotMet(t *testing.T) {
	a := newAnalyzer(t,
		opine("model-a", 0.65),
		&stubProvider{name: "model-b", err: errors.New("boom")},
		&stubProvider{name: "model-c", err: errors.New("boom")},
	)

	result := a.Analyze(context.Background(), testMarket(0.40))

	assert.Equal(t, types.DirectionAbstain, result.Direction)
	assert.Equal(t, 1, result.Respondents)
}

func TestAnalyze_SlowSourceCountsAsFailed(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a, err := New(&Config{
		Providers: []OpinionProvider{
			opine("model-a", 0.70),
			opine("model-b", 0.72),
			&stubProvider{name: "model-c", delay: 5 * time.Second, opinion: &types.ModelOpinion{Model: "model-c", Probability: 0.1, Confidence: 5}},
		},
		Quorum:       2,
		MinAgreement: 2,
		Timeout:      50 * time.Millisecond,
		Logger:       logger,
	})
	require.NoError(t, err)

	start := time.Now()
	result := a.Analyze(context.Background(), testMarket(0.40))

	// The slow source is cut off at its timeout, not awaited.
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, types.DirectionYes, result.Direction)
	assert.Equal(t, 2, result.Respondents)
	assert.InDelta(t, 0.71, result.AvgProbability, 1e-9)

	// The failed opinion carries the timeout tag in the cycle log.
	var tagged bool
	for _, op := range result.Opinions {
		if op.Model == "model-c" {
			tagged = op.Err == types.OpinionErrTimeout
		}
	}
	assert.True(t, tagged)
}

func TestAnalyze_AgreementBelowPolicyAbstains(t *testing.T) {
	// Average clears the price but only one model votes YES of 0.5.
	a := newAnalyzer(t,
		opine("model-a", 0.90),
		opine("model-b", 0.30),
		opine("model-c", 0.35),
	)

	result := a.Analyze(context.Background(), testMarket(0.40))

	require.InDelta(t, 0.5166, result.AvgProbability, 1e-3)
	assert.Equal(t, types.DirectionAbstain, result.Direction)
	assert.Equal(t, 1, result.Agreement)
}

func TestAggregate_EdgeSignedTowardDirection(t *testing.T) {
	opinions := []types.ModelOpinion{
		{Model: "a", Probability: 0.20, Confidence: 5},
		{Model: "b", Probability: 0.30, Confidence: 5},
	}

	result := aggregate(testMarket(0.70), opinions, 2, 2)

	assert.Equal(t, types.DirectionNo, result.Direction)
	assert.Positive(t, result.Edge)
}
