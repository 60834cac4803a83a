package types

import "time"

// OrderStatus is the lifecycle state of an order.
// SUBMITTED -> OPEN -> {FILLED | CANCELLED | REJECTED | EXPIRED}.
// FAILED_LOCAL is terminal and reached without ever leaving SUBMITTED.
type OrderStatus string

const (
	OrderSubmitted   OrderStatus = "SUBMITTED"
	OrderOpen        OrderStatus = "OPEN"
	OrderFilled      OrderStatus = "FILLED"
	OrderCancelled   OrderStatus = "CANCELLED"
	OrderRejected    OrderStatus = "REJECTED"
	OrderExpired     OrderStatus = "EXPIRED"
	OrderFailedLocal OrderStatus = "FAILED_LOCAL"
)

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderFilled, OrderCancelled, OrderRejected, OrderExpired, OrderFailedLocal:
		return true
	}
	return false
}

// Order is a session-originated or remotely-reported order.
// Created locally; once the exchange accepts it, the remote system owns
// the authoritative status.
type Order struct {
	ID             string      `json:"id"` // Remote ID, or local placeholder on failure
	MarketID       string      `json:"market_id"`
	TokenID        string      `json:"token_id"`
	Side           string      `json:"side"` // YES or NO
	Price          float64     `json:"price"`
	Size           float64     `json:"size"`
	Status         OrderStatus `json:"status"`
	FailureClass   string      `json:"failure_class,omitempty"` // Set for FAILED_LOCAL / rejected submissions
	PendingConfirm bool        `json:"pending_confirm"`         // Known locally, not yet visible remotely
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Position is the net holding in one market/side, derived entirely from
// remote truth on each reconciliation pass.
type Position struct {
	MarketID string  `json:"market_id"`
	Slug     string  `json:"slug,omitempty"`
	Side     string  `json:"side"`
	Size     float64 `json:"size"`
	AvgCost  float64 `json:"avg_cost"`
	Value    float64 `json:"value"`
}
