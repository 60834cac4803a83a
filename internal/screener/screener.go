// Package screener narrows the fetched market universe to candidates
// worth spending opinion-provider calls on.
package screener

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Rejection reasons used as metric labels.
const (
	reasonClosed       = "closed"
	reasonOddsBounds   = "odds_bounds"
	reasonLiquidity    = "liquidity"
	reasonMissingToken = "missing_token"
)

// Screener filters markets on price bounds and liquidity before any
// opinion providers are consulted.
type Screener struct {
	minOdds      float64
	maxOdds      float64
	minLiquidity float64
	logger       *zap.Logger
}

// Config holds screener configuration.
type Config struct {
	MinOdds      float64
	MaxOdds      float64
	MinLiquidity float64
	Logger       *zap.Logger
}

// New creates a new screener.
func New(cfg *Config) (*Screener, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.MinOdds <= 0 || cfg.MaxOdds >= 1 || cfg.MinOdds >= cfg.MaxOdds {
		return nil, errors.New("odds bounds must satisfy 0 < min < max < 1")
	}

	return &Screener{
		minOdds:      cfg.MinOdds,
		maxOdds:      cfg.MaxOdds,
		minLiquidity: cfg.MinLiquidity,
		logger:       cfg.Logger,
	}, nil
}

// Filter returns the markets that pass all screening checks, preserving
// the input order. The input slice is never mutated.
func (s *Screener) Filter(markets []types.Market) []types.Market {
	passed := make([]types.Market, 0, len(markets))

	for i := range markets {
		market := &markets[i]
		MarketsScreenedTotal.Inc()

		reason, ok := s.check(market)
		if !ok {
			MarketsRejectedTotal.WithLabelValues(reason).Inc()
			s.logger.Debug("market-screened-out",
				zap.String("market-id", market.ID),
				zap.String("reason", reason),
				zap.Float64("yes-price", market.YesPrice),
				zap.Float64("liquidity", market.Liquidity))
			continue
		}

		MarketsPassedTotal.Inc()
		passed = append(passed, *market)
	}

	s.logger.Info("screening-complete",
		zap.Int("input", len(markets)),
		zap.Int("passed", len(passed)))

	return passed
}

// check returns the rejection reason for a market, or ok=true.
func (s *Screener) check(market *types.Market) (reason string, ok bool) {
	if market.Closed || !market.Active {
		return reasonClosed, false
	}

	// Near-certain markets leave no room for edge after fees; dead
	// markets have no one to trade against.
	if market.YesPrice < s.minOdds || market.YesPrice > s.maxOdds {
		return reasonOddsBounds, false
	}

	if market.Liquidity < s.minLiquidity {
		return reasonLiquidity, false
	}

	if market.GetTokenByOutcome("YES") == nil || market.GetTokenByOutcome("NO") == nil {
		return reasonMissingToken, false
	}

	return "", true
}
