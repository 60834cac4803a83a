package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/pkg/config"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List the wallet's current positions",
	Long: `Fetches the funder wallet's positions from the Polymarket data API
and prints them with size, average cost, and current value.

Examples:
  # Table output
  polymarket-agent positions

  # JSON output
  polymarket-agent positions --format json`,
	RunE: runListPositions,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.Flags().String("format", "table", "Output format: table, json")
}

func runListPositions(cmd *cobra.Command, args []string) error {
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

	positions, err := walletClient.GetPositions(ctx, identity.FunderAddress.Hex())
	if err != nil {
		return fmt.Errorf("get positions: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(positions)
	}

	if len(positions) == 0 {
		fmt.Println("No positions found")
		return nil
	}

	fmt.Printf("Positions for %s (%d)\n\n", identity.FunderAddress.Hex(), len(positions))

	var totalValue float64
	for _, p := range positions {
		name := p.Slug
		if name == "" {
			name = p.MarketID
		}
		fmt.Printf("%s (%s)\n", name, p.Side)
		fmt.Printf("   Size: %.2f tokens @ $%.4f avg cost\n", p.Size, p.AvgCost)
		fmt.Printf("   Value: $%.2f\n\n", p.Value)
		totalValue += p.Value
	}

	fmt.Printf("Total position value: $%.2f\n", totalValue)

	return nil
}
