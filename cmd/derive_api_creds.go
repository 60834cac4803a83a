package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-agent/internal/exchange"
	"github.com/mselser95/polymarket-agent/pkg/config"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var deriveAPICredsCmd = &cobra.Command{
	Use:   "derive-api-creds",
	Short: "Derive API credentials using L1 authentication (private key)",
	Long: `Uses your private key to derive Polymarket API credentials via L1
authentication. This creates or retrieves the API KEY, SECRET, and
PASSPHRASE needed for trading.

The credentials will be printed - save them to your .env file:
  POLYMARKET_API_KEY=...
  POLYMARKET_SECRET=...
  POLYMARKET_PASSPHRASE=...`,
	RunE: runDeriveAPICreds,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(deriveAPICredsCmd)
}

func runDeriveAPICreds(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("=== Deriving Polymarket API Credentials ===\n\n")
	fmt.Printf("EOA Address: %s\n", identity.SignerAddress.Hex())
	if identity.FunderAddress != identity.SignerAddress {
		fmt.Printf("Funder Address: %s\n", identity.FunderAddress.Hex())
	}
	fmt.Printf("\n")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	creds, err := exchange.DeriveAPICreds(ctx, cfg.PolymarketClobURL, identity)
	if err != nil {
		return fmt.Errorf("derive api creds: %w", err)
	}

	fmt.Printf("=== API Credentials Derived ===\n\n")
	fmt.Printf("POLYMARKET_API_KEY=%s\n", creds.Key)
	fmt.Printf("POLYMARKET_SECRET=%s\n", creds.Secret)
	fmt.Printf("POLYMARKET_PASSPHRASE=%s\n\n", creds.Passphrase)
	fmt.Printf("Save these to your .env file. They are cryptographically\n")
	fmt.Printf("linked to your private key.\n")

	return nil
}
