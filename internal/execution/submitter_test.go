package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// fakeExchange scripts SubmitOrder outcomes in sequence and counts calls.
type fakeExchange struct {
	submitCalls   int
	rederiveCalls int
	rederiveErr   error
	outcomes      []submitOutcome
}

type submitOutcome struct {
	resp *types.OrderSubmissionResponse
	err  error
}

func (f *fakeExchange) SubmitOrder(_ context.Context, _ *types.SizingDecision) (*types.OrderSubmissionResponse, error) {
	idx := f.submitCalls
	f.submitCalls++
	if idx >= len(f.outcomes) {
		return nil, errors.New("unexpected submit call")
	}
	return f.outcomes[idx].resp, f.outcomes[idx].err
}

func (f *fakeExchange) RederiveCredentials(_ context.Context) error {
	f.rederiveCalls++
	return f.rederiveErr
}

func success(orderID, status string) submitOutcome {
	return submitOutcome{resp: &types.OrderSubmissionResponse{Success: true, OrderID: orderID, Status: status}}
}

func rejection(msg string) submitOutcome {
	return submitOutcome{
		resp: &types.OrderSubmissionResponse{Success: false, ErrorMsg: msg},
		err:  errors.New("order rejected: " + msg),
	}
}

func newTestSubmitter(t *testing.T, ex ExchangeClient) *Submitter {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	s, err := New(&Config{
		Exchange:     ex,
		MinOrderSize: 5,
		Logger:       logger,
	})
	require.NoError(t, err)
	return s
}

func decision(price, amount float64) *types.SizingDecision {
	return &types.SizingDecision{
		MarketID:  "mkt-1",
		TokenID:   "tok-1",
		Direction: types.DirectionYes,
		Price:     price,
		Amount:    amount,
		Bankroll:  1000,
		Fraction:  amount / 1000,
	}
}

func TestSubmit_Success(t *testing.T) {
	ex := &fakeExchange{outcomes: []submitOutcome{success("remote-1", "live")}}
	s := newTestSubmitter(t, ex)

	order, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.Nil(t, subErr)
	assert.Equal(t, "remote-1", order.ID)
	assert.Equal(t, types.OrderOpen, order.Status)
	assert.Equal(t, 1, ex.submitCalls)
}

func TestSubmit_MatchedMapsToFilled(t *testing.T) {
	ex := &fakeExchange{outcomes: []submitOutcome{success("remote-1", "matched")}}
	s := newTestSubmitter(t, ex)

	order, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.Nil(t, subErr)
	assert.Equal(t, types.OrderFilled, order.Status)
}

func TestSubmit_PriceBoundsRejectedLocally(t *testing.T) {
	ex := &fakeExchange{}
	s := newTestSubmitter(t, ex)

	order, subErr := s.Submit(context.Background(), decision(0.995, 50))

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindPriceBounds, subErr.Kind)
	assert.Equal(t, types.OrderFailedLocal, order.Status)
	assert.Equal(t, string(types.ErrKindPriceBounds), order.FailureClass)
	// Never reaches the exchange.
	assert.Zero(t, ex.submitCalls)
}

func TestSubmit_EmptyTokenRejectedLocally(t *testing.T) {
	ex := &fakeExchange{}
	s := newTestSubmitter(t, ex)

	d := decision(0.40, 50)
	d.TokenID = ""

	_, subErr := s.Submit(context.Background(), d)

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindInvalidToken, subErr.Kind)
	assert.Zero(t, ex.submitCalls)
}

func TestSubmit_BelowMinSizeRejectedLocally(t *testing.T) {
	ex := &fakeExchange{}
	s := newTestSubmitter(t, ex)

	_, subErr := s.Submit(context.Background(), decision(0.40, 2))

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindPriceBounds, subErr.Kind)
	assert.Zero(t, ex.submitCalls)
}

func TestSubmit_LocalFailureKeepsPlaceholderID(t *testing.T) {
	ex := &fakeExchange{}
	s := newTestSubmitter(t, ex)

	order, _ := s.Submit(context.Background(), decision(0.995, 50))

	assert.Contains(t, order.ID, "local-")
}

func TestSubmit_InsufficientBalanceNotRetried(t *testing.T) {
	ex := &fakeExchange{outcomes: []submitOutcome{
		rejection("not enough balance / allowance"),
	}}
	s := newTestSubmitter(t, ex)

	_, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindInsufficientBalance, subErr.Kind)
	assert.Equal(t, 1, ex.submitCalls)
	assert.Zero(t, ex.rederiveCalls)
}

func TestSubmit_AuthRetriesExactlyOnce(t *testing.T) {
	ex := &fakeExchange{outcomes: []submitOutcome{
		rejection("Unauthorized: invalid api key"),
		success("remote-2", "live"),
	}}
	s := newTestSubmitter(t, ex)

	order, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.Nil(t, subErr)
	assert.Equal(t, "remote-2", order.ID)
	assert.Equal(t, 2, ex.submitCalls)
	assert.Equal(t, 1, ex.rederiveCalls)
}

func TestSubmit_SecondAuthFailureSurfaced(t *testing.T) {
	ex := &fakeExchange{outcomes: []submitOutcome{
		rejection("Unauthorized: invalid api key"),
		rejection("Unauthorized: invalid api key"),
	}}
	s := newTestSubmitter(t, ex)

	_, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindAuthentication, subErr.Kind)
	// Exactly one re-derivation, exactly one retry.
	assert.Equal(t, 2, ex.submitCalls)
	assert.Equal(t, 1, ex.rederiveCalls)
}

func TestSubmit_RederiveFailureSurfacesOriginalError(t *testing.T) {
	ex := &fakeExchange{
		outcomes:    []submitOutcome{rejection("Unauthorized: invalid api key")},
		rederiveErr: errors.New("derive api creds: boom"),
	}
	s := newTestSubmitter(t, ex)

	_, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindAuthentication, subErr.Kind)
	assert.Equal(t, 1, ex.submitCalls)
}

func TestSubmit_GeoblockHaltsProcess(t *testing.T) {
	ex := &fakeExchange{outcomes: []submitOutcome{
		rejection("order placement geoblocked for this region"),
	}}
	s := newTestSubmitter(t, ex)

	_, subErr := s.Submit(context.Background(), decision(0.40, 50))

	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindGeoblocked, subErr.Kind)
	assert.True(t, subErr.Fatal())
	assert.True(t, s.Halted())

	// No further submission attempts reach the exchange.
	_, subErr = s.Submit(context.Background(), decision(0.50, 50))
	require.NotNil(t, subErr)
	assert.Equal(t, types.ErrKindGeoblocked, subErr.Kind)
	assert.Equal(t, 1, ex.submitCalls)
}
