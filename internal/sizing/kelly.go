// Package sizing converts a consensus edge into a bounded stake using a
// clamped Kelly rule.
package sizing

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Rejection reasons.
const (
	RejectAbstain      = "abstain"
	RejectNoEdge       = "no_edge"
	RejectBelowMinSize = "below_min_size"
	RejectNoBankroll   = "no_bankroll"
)

// Sizer computes stake sizes. Pure: no network calls, no state beyond
// configuration.
type Sizer struct {
	maxBetFraction float64
	logger         *zap.Logger
}

// Config holds sizer configuration.
type Config struct {
	MaxBetFraction float64 // e.g. 0.05 caps any single stake at 5% of bankroll
	Logger         *zap.Logger
}

// New creates a new sizer.
func New(cfg *Config) (*Sizer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.MaxBetFraction <= 0 || cfg.MaxBetFraction > 1 {
		return nil, errors.New("max bet fraction must be in (0, 1]")
	}

	return &Sizer{
		maxBetFraction: cfg.MaxBetFraction,
		logger:         cfg.Logger,
	}, nil
}

// Decide computes the Kelly stake for a consensus result.
//
// The probability and price are recast to the chosen side: a NO trade
// buys the NO token at (1 - yes price) with win probability
// (1 - average). b = (1-price)/price is the net odds of the side,
// f = (b*p - (1-p)) / b, clamped to [0, maxBetFraction]. A non-positive
// fraction is a rejection; no order is produced.
func (s *Sizer) Decide(result *types.ConsensusResult, tokenID string, bankroll float64, meta *types.TokenMetadata) *types.SizingDecision {
	decision := &types.SizingDecision{
		MarketID:   result.MarketID,
		TokenID:    tokenID,
		Direction:  result.Direction,
		Edge:       result.Edge,
		Confidence: result.AvgConfidence,
		Bankroll:   bankroll,
	}

	if result.Direction == types.DirectionAbstain {
		decision.RejectReason = RejectAbstain
		return decision
	}

	if bankroll <= 0 {
		decision.RejectReason = RejectNoBankroll
		return decision
	}

	p := result.AvgProbability
	price := result.MarketPrice
	if result.Direction == types.DirectionNo {
		p = 1 - result.AvgProbability
		price = 1 - result.MarketPrice
	}

	tickSize := meta.TickSize
	if tickSize <= 0 {
		tickSize = 0.01
	}
	decision.Price = roundToTick(price, tickSize)

	b := (1 - price) / price
	fraction := (b*p - (1 - p)) / b

	if fraction <= 0 {
		decision.RejectReason = RejectNoEdge
		RejectionsTotal.WithLabelValues(RejectNoEdge).Inc()
		s.logger.Debug("sizing-rejected-no-edge",
			zap.String("market-id", result.MarketID),
			zap.Float64("raw-fraction", fraction))
		return decision
	}

	if fraction > s.maxBetFraction {
		fraction = s.maxBetFraction
	}

	decision.Fraction = fraction
	decision.Amount = roundToCents(fraction * bankroll)

	if decision.Amount < meta.MinOrderSize {
		decision.RejectReason = RejectBelowMinSize
		RejectionsTotal.WithLabelValues(RejectBelowMinSize).Inc()
		s.logger.Debug("sizing-rejected-below-min",
			zap.String("market-id", result.MarketID),
			zap.Float64("amount", decision.Amount),
			zap.Float64("min-order-size", meta.MinOrderSize))
		return decision
	}

	DecisionsTotal.Inc()
	StakeFraction.Observe(fraction)

	s.logger.Info("stake-sized",
		zap.String("market-id", result.MarketID),
		zap.String("direction", string(result.Direction)),
		zap.Float64("fraction", fraction),
		zap.Float64("amount", decision.Amount),
		zap.Float64("price", decision.Price))

	return decision
}

// roundToTick rounds a price to the exchange's tick granularity.
func roundToTick(price, tick float64) float64 {
	return math.Round(price/tick) * tick
}

// roundToCents rounds a USD amount down so the stake never exceeds the
// computed fraction of bankroll.
func roundToCents(amount float64) float64 {
	return math.Floor(amount*100) / 100
}
