package consensus

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Analyzer queries the provider roster concurrently and aggregates the
// valid responses into a ConsensusResult.
type Analyzer struct {
	providers    []OpinionProvider
	quorum       int
	minAgreement int
	timeout      time.Duration
	logger       *zap.Logger
}

// Config holds analyzer configuration.
type Config struct {
	Providers    []OpinionProvider
	Quorum       int           // Minimum valid responses to proceed
	MinAgreement int           // Minimum votes on the final side to trade
	Timeout      time.Duration // Per-source timeout
	Logger       *zap.Logger
}

// New creates a new analyzer.
func New(cfg *Config) (*Analyzer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if len(cfg.Providers) == 0 {
		return nil, errors.New("provider roster cannot be empty")
	}

	if cfg.Quorum <= 0 || cfg.Quorum > len(cfg.Providers) {
		return nil, errors.New("quorum must be between 1 and the roster size")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Analyzer{
		providers:    cfg.Providers,
		quorum:       cfg.Quorum,
		minAgreement: cfg.MinAgreement,
		timeout:      timeout,
		logger:       cfg.Logger,
	}, nil
}

// Analyze queries all providers concurrently and aggregates. A slow or
// malformed source counts as a failed response for quorum purposes and
// never blocks the others. The result is ABSTAIN when quorum or the
// agreement policy is not met; the caller moves on to the next market.
func (a *Analyzer) Analyze(ctx context.Context, market *types.Market) *types.ConsensusResult {
	start := time.Now()
	defer func() {
		AnalysisDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	opinions := a.collect(ctx, market)

	result := aggregate(market, opinions, a.quorum, a.minAgreement)

	if result.Direction == types.DirectionAbstain {
		AbstainsTotal.Inc()
	}

	a.logger.Info("consensus-complete",
		zap.String("market-id", market.ID),
		zap.String("direction", string(result.Direction)),
		zap.Int("agreement", result.Agreement),
		zap.Int("respondents", result.Respondents),
		zap.Float64("avg-probability", result.AvgProbability),
		zap.Float64("market-price", result.MarketPrice),
		zap.Float64("edge", result.Edge))

	return result
}

// collect fans out to every provider with a per-source timeout.
func (a *Analyzer) collect(ctx context.Context, market *types.Market) []types.ModelOpinion {
	opinions := make([]types.ModelOpinion, len(a.providers))

	var wg sync.WaitGroup
	for i, provider := range a.providers {
		wg.Add(1)
		go func(i int, provider OpinionProvider) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			OpinionRequestsTotal.WithLabelValues(provider.Name()).Inc()

			opinion, err := provider.GetOpinion(srcCtx, market)
			if err != nil {
				tag := types.OpinionErrParse
				if errors.Is(err, context.DeadlineExceeded) || srcCtx.Err() != nil {
					tag = types.OpinionErrTimeout
				}

				OpinionFailuresTotal.WithLabelValues(provider.Name(), string(tag)).Inc()
				a.logger.Warn("opinion-failed",
					zap.String("model", provider.Name()),
					zap.String("market-id", market.ID),
					zap.String("tag", string(tag)),
					zap.Error(err))

				opinions[i] = types.ModelOpinion{Model: provider.Name(), Err: tag}
				return
			}

			a.logger.Debug("opinion-received",
				zap.String("model", provider.Name()),
				zap.String("market-id", market.ID),
				zap.Float64("probability", opinion.Probability),
				zap.Int("confidence", opinion.Confidence))

			opinions[i] = *opinion
		}(i, provider)
	}
	wg.Wait()

	return opinions
}

// aggregate applies the quorum and agreement rules.
//
// The average is taken over all valid respondents, not only agreeing
// ones. Direction compares that average against the market price. A
// vote is the side of 0.5 each model individually lands on; agreement
// counts votes matching the final direction.
func aggregate(market *types.Market, opinions []types.ModelOpinion, quorum, minAgreement int) *types.ConsensusResult {
	result := &types.ConsensusResult{
		MarketID:    market.ID,
		Question:    market.Question,
		Direction:   types.DirectionAbstain,
		MarketPrice: market.YesPrice,
		Opinions:    opinions,
	}

	var sumP, sumC float64
	valid := 0
	yesVotes := 0

	for i := range opinions {
		if !opinions[i].Valid() {
			continue
		}
		valid++
		sumP += opinions[i].Probability
		sumC += float64(opinions[i].Confidence)
		if opinions[i].Probability > 0.5 {
			yesVotes++
		}
	}

	result.Respondents = valid
	if valid < quorum {
		return result
	}

	result.AvgProbability = sumP / float64(valid)
	result.AvgConfidence = sumC / float64(valid)

	direction := types.DirectionNo
	agreement := valid - yesVotes
	edge := market.YesPrice - result.AvgProbability

	if result.AvgProbability > market.YesPrice {
		direction = types.DirectionYes
		agreement = yesVotes
		edge = result.AvgProbability - market.YesPrice
	}

	result.Agreement = agreement
	result.Edge = edge

	if agreement < minAgreement {
		return result
	}

	result.Direction = direction
	return result
}
