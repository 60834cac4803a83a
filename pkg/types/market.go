package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// Market represents a Polymarket market from the Gamma API.
// Markets are refreshed each cycle and never mutated in place; the next
// fetch supersedes the previous snapshot.
type Market struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Slug      string    `json:"slug"`
	Closed    bool      `json:"closed"`
	Active    bool      `json:"active"`
	Tokens    []Token   `json:"-"` // Populated from outcomes + clobTokenIds
	EndDate   time.Time `json:"endDate"`
	YesPrice  float64   `json:"-"` // First entry of outcomePrices
	Liquidity float64   `json:"-"`

	Outcomes      string `json:"outcomes"`      // JSON string: "[\"Yes\", \"No\"]"
	ClobTokens    string `json:"clobTokenIds"`  // JSON string: "[\"token1\", \"token2\"]"
	OutcomePrices string `json:"outcomePrices"` // JSON string: "[\"0.62\", \"0.38\"]"
	LiquidityRaw  string `json:"liquidity"`     // Numeric string
}

// UnmarshalJSON parses the stringified Gamma API fields (outcomes,
// clobTokenIds, outcomePrices, liquidity) into their typed counterparts.
func (m *Market) UnmarshalJSON(data []byte) error {
	type Alias Market
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if m.Outcomes != "" && m.ClobTokens != "" {
		var outcomes []string
		var tokenIDs []string

		if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err == nil {
			if err := json.Unmarshal([]byte(m.ClobTokens), &tokenIDs); err == nil {
				m.Tokens = make([]Token, 0, len(outcomes))
				for i, outcome := range outcomes {
					if i < len(tokenIDs) {
						m.Tokens = append(m.Tokens, Token{
							TokenID: tokenIDs[i],
							Outcome: outcome,
						})
					}
				}
			}
		}
	}

	if m.OutcomePrices != "" {
		var prices []string
		if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil && len(prices) > 0 {
			if p, err := strconv.ParseFloat(prices[0], 64); err == nil {
				m.YesPrice = p
			}
		}
	}

	if m.LiquidityRaw != "" {
		if l, err := strconv.ParseFloat(m.LiquidityRaw, 64); err == nil {
			m.Liquidity = l
		}
	}

	return nil
}

// Token represents a market outcome token (YES or NO).
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price,omitempty"`
}

// GetTokenByOutcome returns the token for a specific outcome.
// Case-insensitive matching (accepts YES/Yes, NO/No).
func (m *Market) GetTokenByOutcome(outcome string) *Token {
	for i := range m.Tokens {
		tokenOutcome := m.Tokens[i].Outcome
		if tokenOutcome == outcome ||
			(outcome == "YES" && tokenOutcome == "Yes") ||
			(outcome == "NO" && tokenOutcome == "No") {
			return &m.Tokens[i]
		}
	}
	return nil
}

// MarketsResponse wraps a page of markets fetched from the Gamma API.
type MarketsResponse struct {
	Data   []Market `json:"data"`
	Count  int      `json:"count"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// TokenMetadata holds the exchange's granularity limits for a token.
type TokenMetadata struct {
	TickSize     float64
	MinOrderSize float64
}
