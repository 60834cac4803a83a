// Package execution turns sizing decisions into exchange orders,
// classifying every failure into the closed submission-error taxonomy.
package execution

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// Local validation bounds: the CLOB rejects limit prices outside
// (0.01, 0.99), so those orders never leave the process.
const (
	minLimitPrice = 0.01
	maxLimitPrice = 0.99
)

// ExchangeClient is the capability the submitter needs from the CLOB
// client.
type ExchangeClient interface {
	SubmitOrder(ctx context.Context, decision *types.SizingDecision) (*types.OrderSubmissionResponse, error)
	RederiveCredentials(ctx context.Context) error
}

// Submitter validates, submits, and classifies. It is the only
// component allowed to call the order-placement endpoint.
type Submitter struct {
	exchange     ExchangeClient
	minOrderSize float64
	logger       *zap.Logger
	halted       atomic.Bool
}

// Config holds submitter configuration.
type Config struct {
	Exchange     ExchangeClient
	MinOrderSize float64
	Logger       *zap.Logger
}

// New creates a new submitter.
func New(cfg *Config) (*Submitter, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Exchange == nil {
		return nil, errors.New("exchange client cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	minOrderSize := cfg.MinOrderSize
	if minOrderSize <= 0 {
		minOrderSize = 1
	}

	return &Submitter{
		exchange:     cfg.Exchange,
		minOrderSize: minOrderSize,
		logger:       cfg.Logger,
	}, nil
}

// Halted reports whether a geoblock has permanently stopped submissions
// for this process.
func (s *Submitter) Halted() bool {
	return s.halted.Load()
}

// Submit turns a sizing decision into an order record. The returned
// order always carries the outcome: a remote ID and initial status on
// success, or FAILED_LOCAL plus a failure class otherwise. The error is
// non-nil for any failure; callers branch on its Kind.
//
// Retry policy: an authentication failure triggers exactly one
// credential re-derivation and one retry of the same order. A geoblock
// halts all further submissions for the process lifetime. Everything
// else is recorded and left for the next cycle to re-evaluate from
// fresh data.
func (s *Submitter) Submit(ctx context.Context, decision *types.SizingDecision) (*types.Order, *types.SubmissionError) {
	now := time.Now()
	order := &types.Order{
		ID:        "local-" + uuid.NewString(),
		MarketID:  decision.MarketID,
		TokenID:   decision.TokenID,
		Side:      string(decision.Direction),
		Price:     decision.Price,
		Size:      decision.Amount,
		Status:    types.OrderFailedLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.halted.Load() {
		return s.fail(order, types.ErrKindGeoblocked, "submissions halted by earlier geoblock")
	}

	// Local validation, before any network call.
	if kind, msg, ok := s.validate(decision); !ok {
		SubmissionsTotal.WithLabelValues("failed_local").Inc()
		return s.fail(order, kind, msg)
	}

	resp, err := s.exchange.SubmitOrder(ctx, decision)
	if err != nil {
		kind := classifyFailure(resp, err)

		if kind == types.ErrKindAuthentication {
			return s.retryAfterRederive(ctx, decision, order, err)
		}

		return s.recordFailure(order, kind, err)
	}

	return s.succeed(order, resp), nil
}

// retryAfterRederive performs the single allowed authentication retry.
func (s *Submitter) retryAfterRederive(ctx context.Context, decision *types.SizingDecision, order *types.Order, cause error) (*types.Order, *types.SubmissionError) {
	AuthRetriesTotal.Inc()
	s.logger.Warn("authentication-failed-rederiving",
		zap.String("market-id", decision.MarketID),
		zap.Error(cause))

	err := s.exchange.RederiveCredentials(ctx)
	if err != nil {
		s.logger.Error("credential-rederivation-failed", zap.Error(err))
		return s.recordFailure(order, types.ErrKindAuthentication, cause)
	}

	resp, err := s.exchange.SubmitOrder(ctx, decision)
	if err != nil {
		// Surfaced, never retried a second time.
		kind := classifyFailure(resp, err)
		return s.recordFailure(order, kind, err)
	}

	return s.succeed(order, resp), nil
}

// validate performs the pre-submission checks.
func (s *Submitter) validate(decision *types.SizingDecision) (kind types.SubmissionErrorKind, msg string, ok bool) {
	if decision.TokenID == "" {
		return types.ErrKindInvalidToken, "empty market token", false
	}

	if decision.Price <= minLimitPrice || decision.Price >= maxLimitPrice {
		return types.ErrKindPriceBounds, "limit price outside (0.01, 0.99)", false
	}

	if decision.Amount < s.minOrderSize {
		return types.ErrKindPriceBounds, "below minimum order size", false
	}

	return "", "", true
}

// classifyFailure classifies an exchange error, preferring the
// structured rejection message when the exchange returned one.
func classifyFailure(resp *types.OrderSubmissionResponse, err error) types.SubmissionErrorKind {
	if resp != nil && resp.ErrorMsg != "" {
		return classify(resp.ErrorMsg)
	}
	return classify(err.Error())
}

func (s *Submitter) succeed(order *types.Order, resp *types.OrderSubmissionResponse) *types.Order {
	order.ID = resp.OrderID
	order.UpdatedAt = time.Now()

	switch resp.Status {
	case "live":
		order.Status = types.OrderOpen
	case "matched":
		order.Status = types.OrderFilled
	default:
		order.Status = types.OrderSubmitted
	}

	SubmissionsTotal.WithLabelValues("submitted").Inc()
	s.logger.Info("order-placed",
		zap.String("order-id", order.ID),
		zap.String("market-id", order.MarketID),
		zap.String("side", order.Side),
		zap.Float64("price", order.Price),
		zap.Float64("size", order.Size),
		zap.String("status", string(order.Status)))

	return order
}

// recordFailure finalizes a failed order and applies the geoblock halt.
func (s *Submitter) recordFailure(order *types.Order, kind types.SubmissionErrorKind, cause error) (*types.Order, *types.SubmissionError) {
	if kind == types.ErrKindGeoblocked {
		s.halted.Store(true)
		s.logger.Error("geoblocked-halting-submissions",
			zap.String("market-id", order.MarketID))
	}

	SubmissionsTotal.WithLabelValues("failed_remote").Inc()
	return s.fail(order, kind, cause.Error())
}

func (s *Submitter) fail(order *types.Order, kind types.SubmissionErrorKind, msg string) (*types.Order, *types.SubmissionError) {
	order.Status = types.OrderFailedLocal
	order.FailureClass = string(kind)
	order.UpdatedAt = time.Now()

	FailuresTotal.WithLabelValues(string(kind)).Inc()
	s.logger.Warn("order-failed",
		zap.String("order-id", order.ID),
		zap.String("market-id", order.MarketID),
		zap.String("class", string(kind)),
		zap.String("message", msg))

	return order, &types.SubmissionError{
		Kind:    kind,
		Message: msg,
		OrderID: order.ID,
	}
}
