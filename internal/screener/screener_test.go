package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/types"
)

func testMarket(id string, price, liquidity float64) types.Market {
	return types.Market{
		ID:        id,
		Question:  "Will it happen?",
		Slug:      "will-it-happen-" + id,
		Active:    true,
		YesPrice:  price,
		Liquidity: liquidity,
		Tokens: []types.Token{
			{TokenID: "tok-yes-" + id, Outcome: "Yes"},
			{TokenID: "tok-no-" + id, Outcome: "No"},
		},
	}
}

func newTestScreener(t *testing.T) *Screener {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	s, err := New(&Config{
		MinOdds:      0.05,
		MaxOdds:      0.95,
		MinLiquidity: 1000,
		Logger:       logger,
	})
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "nil logger", cfg: &Config{MinOdds: 0.05, MaxOdds: 0.95}},
		{name: "min at zero", cfg: &Config{MinOdds: 0, MaxOdds: 0.95, Logger: logger}},
		{name: "max at one", cfg: &Config{MinOdds: 0.05, MaxOdds: 1, Logger: logger}},
		{name: "inverted bounds", cfg: &Config{MinOdds: 0.9, MaxOdds: 0.1, Logger: logger}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		market types.Market
		pass   bool
	}{
		{name: "mid price passes", market: testMarket("a", 0.50, 5000), pass: true},
		{name: "at min odds passes", market: testMarket("b", 0.05, 5000), pass: true},
		{name: "at max odds passes", market: testMarket("c", 0.95, 5000), pass: true},
		{name: "below min odds rejected", market: testMarket("d", 0.03, 5000), pass: false},
		{name: "above max odds rejected", market: testMarket("e", 0.97, 5000), pass: false},
		{name: "thin liquidity rejected", market: testMarket("f", 0.50, 999), pass: false},
		{name: "at min liquidity passes", market: testMarket("g", 0.50, 1000), pass: true},
	}

	s := newTestScreener(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Filter([]types.Market{tt.market})
			if tt.pass {
				assert.Len(t, out, 1)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestFilter_ClosedAndInactive(t *testing.T) {
	s := newTestScreener(t)

	closed := testMarket("a", 0.5, 5000)
	closed.Closed = true

	inactive := testMarket("b", 0.5, 5000)
	inactive.Active = false

	assert.Empty(t, s.Filter([]types.Market{closed, inactive}))
}

func TestFilter_MissingTokens(t *testing.T) {
	s := newTestScreener(t)

	m := testMarket("a", 0.5, 5000)
	m.Tokens = m.Tokens[:1] // YES only

	assert.Empty(t, s.Filter([]types.Market{m}))
}

func TestFilter_PreservesOrder(t *testing.T) {
	s := newTestScreener(t)

	in := []types.Market{
		testMarket("first", 0.30, 5000),
		testMarket("skip", 0.99, 5000),
		testMarket("second", 0.60, 5000),
		testMarket("third", 0.10, 2000),
	}

	out := s.Filter(in)
	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
	assert.Equal(t, "third", out[2].ID)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	s := newTestScreener(t)

	in := []types.Market{
		testMarket("a", 0.99, 5000),
		testMarket("b", 0.50, 5000),
	}

	_ = s.Filter(in)
	assert.Equal(t, "a", in[0].ID)
	assert.Equal(t, "b", in[1].ID)
}

func TestFilter_EmptyInput(t *testing.T) {
	s := newTestScreener(t)
	assert.Empty(t, s.Filter(nil))
}
