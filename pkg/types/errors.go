package types

import "fmt"

// SubmissionErrorKind is the closed classification of order submission
// failures. Callers branch on the kind, never on message text.
type SubmissionErrorKind string

const (
	ErrKindAuthentication      SubmissionErrorKind = "authentication"
	ErrKindInsufficientBalance SubmissionErrorKind = "insufficient_balance"
	ErrKindInvalidToken        SubmissionErrorKind = "invalid_token"
	ErrKindPriceBounds         SubmissionErrorKind = "price_bounds"
	ErrKindSignatureMismatch   SubmissionErrorKind = "signature_mismatch"
	ErrKindGeoblocked          SubmissionErrorKind = "geoblocked"
	ErrKindUnknown             SubmissionErrorKind = "unknown"
)

// SubmissionError is a classified order submission failure.
type SubmissionError struct {
	Kind    SubmissionErrorKind
	Message string
	OrderID string // Local placeholder or remote ID, if any
}

func (e *SubmissionError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("order %s failed: %s (%s)", e.OrderID, e.Message, e.Kind)
	}
	return fmt.Sprintf("order failed: %s (%s)", e.Message, e.Kind)
}

// Fatal reports whether the failure must terminate the process.
// Only geoblocking is fatal: the exchange rejects placement from this
// network origin and every further submission would fail the same way.
func (e *SubmissionError) Fatal() bool {
	return e.Kind == ErrKindGeoblocked
}

// Known Polymarket CLOB API error codes observed in rejection bodies.
const (
	ErrCodeInvalidMinTickSize = "INVALID_ORDER_MIN_TICK_SIZE"
	ErrCodeNotEnoughBalance   = "INVALID_ORDER_NOT_ENOUGH_BALANCE"
	ErrCodeMarketNotReady     = "MARKET_NOT_READY"
)
