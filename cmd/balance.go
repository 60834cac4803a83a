package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/config"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show wallet balances and CTF Exchange allowance",
	Long: `Reads the funder wallet's MATIC and USDC balances from the Polygon
RPC endpoint, plus the USDC allowance granted to the CTF Exchange.

The USDC balance is what the agent uses as bankroll when BANKROLL is
not set.`,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	identity, err := wallet.ResolveIdentity(&wallet.IdentityConfig{
		PrivateKey:    cfg.PrivateKey,
		SignerAddress: cfg.SignerAddress,
		FunderAddress: cfg.FunderAddress,
		Override:      cfg.SignatureTypeOverride,
	})
	if err != nil {
		return fmt.Errorf("resolve wallet identity: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	walletClient, err := wallet.NewClient(cfg.PolygonRPCURL, cfg.PolymarketDataURL, logger)
	if err != nil {
		return fmt.Errorf("create wallet client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balances, err := walletClient.GetBalances(ctx, identity.FunderAddress)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	fmt.Printf("Wallet %s\n\n", identity.FunderAddress.Hex())
	fmt.Printf("MATIC:           %.4f\n", balances.MATICFloat())
	fmt.Printf("USDC:            $%.2f\n", balances.USDCFloat())
	fmt.Printf("USDC allowance:  $%.2f (CTF Exchange)\n", balances.AllowanceFloat())

	return nil
}
