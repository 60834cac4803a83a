package cycle

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

// FixedBankroll sizes every cycle against a configured dollar amount.
type FixedBankroll float64

// Bankroll returns the fixed amount.
func (f FixedBankroll) Bankroll(_ context.Context) (float64, error) {
	return float64(f), nil
}

// BalanceReader reads on-chain balances for an address.
type BalanceReader interface {
	GetBalances(ctx context.Context, address common.Address) (*wallet.Balances, error)
}

type walletBankroll struct {
	reader  BalanceReader
	address common.Address
}

// NewWalletBankroll resolves the bankroll from the funder's on-chain
// USDC balance at the start of each cycle.
func NewWalletBankroll(reader BalanceReader, address common.Address) BankrollSource {
	return &walletBankroll{reader: reader, address: address}
}

func (w *walletBankroll) Bankroll(ctx context.Context) (float64, error) {
	balances, err := w.reader.GetBalances(ctx, w.address)
	if err != nil {
		return 0, fmt.Errorf("read wallet balances: %w", err)
	}

	return balances.USDCFloat(), nil
}
