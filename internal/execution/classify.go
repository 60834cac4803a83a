package execution

import (
	"strings"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

// classify maps an exchange failure to the closed error taxonomy by
// signal content, not status code. The CLOB reports most rejections as
// HTTP 400 with the reason only in the body.
func classify(message string) types.SubmissionErrorKind {
	m := strings.ToLower(message)

	switch {
	case contains(m, "geoblock", "restricted territory", "blocked region", "unavailable in your region"):
		return types.ErrKindGeoblocked

	case contains(m, "unauthorized", "invalid api key", "api key not found", "credential", "apikey", "invalid auth"):
		return types.ErrKindAuthentication

	case contains(m, strings.ToLower(types.ErrCodeNotEnoughBalance), "not enough balance", "insufficient balance", "insufficient funds", "allowance"):
		return types.ErrKindInsufficientBalance

	case contains(m, strings.ToLower(types.ErrCodeMarketNotReady), "invalid token", "token id", "market is closed", "market not found", "asset not found"):
		return types.ErrKindInvalidToken

	case contains(m, strings.ToLower(types.ErrCodeInvalidMinTickSize), "tick size", "price out of range", "invalid price", "min size", "minimum size"):
		return types.ErrKindPriceBounds

	case contains(m, "invalid signature", "signature mismatch", "wrong signature type", "sig type"):
		return types.ErrKindSignatureMismatch

	default:
		return types.ErrKindUnknown
	}
}

func contains(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
