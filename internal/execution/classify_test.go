package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    types.SubmissionErrorKind
	}{
		{
			name:    "geoblock",
			message: "order placement geoblocked",
			want:    types.ErrKindGeoblocked,
		},
		{
			name:    "restricted territory",
			message: "trading is unavailable in your region",
			want:    types.ErrKindGeoblocked,
		},
		{
			name:    "unauthorized",
			message: "Unauthorized",
			want:    types.ErrKindAuthentication,
		},
		{
			name:    "bad api key",
			message: "invalid api key provided",
			want:    types.ErrKindAuthentication,
		},
		{
			name:    "balance code",
			message: types.ErrCodeNotEnoughBalance,
			want:    types.ErrKindInsufficientBalance,
		},
		{
			name:    "balance prose",
			message: "not enough balance / allowance",
			want:    types.ErrKindInsufficientBalance,
		},
		{
			name:    "market not ready",
			message: types.ErrCodeMarketNotReady,
			want:    types.ErrKindInvalidToken,
		},
		{
			name:    "closed market",
			message: "market is closed",
			want:    types.ErrKindInvalidToken,
		},
		{
			name:    "tick size code",
			message: types.ErrCodeInvalidMinTickSize,
			want:    types.ErrKindPriceBounds,
		},
		{
			name:    "price out of range",
			message: "price out of range for this market",
			want:    types.ErrKindPriceBounds,
		},
		{
			name:    "signature mismatch",
			message: "invalid signature for order",
			want:    types.ErrKindSignatureMismatch,
		},
		{
			name:    "anything else",
			message: "internal server error",
			want:    types.ErrKindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.message))
		})
	}
}
