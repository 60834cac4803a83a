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

	"github.com/mselser95/polymarket-agent/internal/exchange"
	"github.com/mselser95/polymarket-agent/pkg/config"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List open orders on the exchange",
	Long: `Fetches the account's open orders from the CLOB API.

Uses the configured API credentials when present, deriving them from
the wallet key otherwise.`,
	RunE: runListOrders,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.Flags().String("format", "table", "Output format: table, json")
}

func runListOrders(cmd *cobra.Command, args []string) error {
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

	var creds *exchange.APICredentials
	if cfg.APIKey != "" {
		creds = &exchange.APICredentials{
			Key:        cfg.APIKey,
			Secret:     cfg.Secret,
			Passphrase: cfg.Passphrase,
		}
	}

	client, err := exchange.NewClient(&exchange.ClientConfig{
		BaseURL:     cfg.PolymarketClobURL,
		Identity:    identity,
		Credentials: creds,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create clob client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if creds == nil {
		err = client.RederiveCredentials(ctx)
		if err != nil {
			return fmt.Errorf("derive api credentials: %w", err)
		}
	}

	orders, err := client.GetOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("get open orders: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(orders)
	}

	if len(orders) == 0 {
		fmt.Println("No open orders")
		return nil
	}

	fmt.Printf("Open orders (%d)\n\n", len(orders))
	for _, o := range orders {
		fmt.Printf("%s  %s %s\n", o.OrderID, o.Side, o.Outcome)
		fmt.Printf("   Market: %s\n", o.MarketID)
		fmt.Printf("   Price: $%.4f  Size: %.2f  Filled: %.2f\n", o.Price, o.Size, o.SizeFilled)
		fmt.Printf("   Status: %s  Created: %s\n\n", o.Status, o.CreatedAt)
	}

	return nil
}
