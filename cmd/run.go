package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-agent/internal/app"
	"github.com/mselser95/polymarket-agent/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading agent",
	Long: `Starts the Polymarket trading agent, which will:
1. Screen active markets from the Gamma API
2. Collect probability estimates from the configured model panel
3. Submit Kelly-sized limit orders where the consensus disagrees with the price
4. Reconcile orders and positions against the exchange

Use --cycle-on-start to run the first decision cycle immediately
instead of waiting for the first interval tick.`,
	RunE: runAgent,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("cycle-on-start", false, "Run a decision cycle immediately at startup")
}

func runAgent(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logs, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cycleOnStart, _ := cmd.Flags().GetBool("cycle-on-start")

	application, err := app.New(cfg, logger, logs, &app.Options{
		RunCycleOnStart: cycleOnStart,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
