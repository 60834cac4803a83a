package cmd

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-agent/internal/app"
	"github.com/mselser95/polymarket-agent/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a single decision cycle and exit",
	Long: `Runs one decision cycle: screen markets, collect model opinions,
size stakes, submit orders, and reconcile the ledger. Prints the cycle
summary and exits.

Useful for cron-driven deployments and for dry-running configuration
changes before starting the long-lived agent.`,
	RunE: runSingleCycle,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cycleCmd)
}

func runSingleCycle(cmd *cobra.Command, args []string) error {
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

	application, err := app.New(cfg, logger, logs, nil)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	summary, err := application.RunOnce()
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	fmt.Printf("Cycle finished in %s\n", summary.Duration.Round(time.Millisecond))
	fmt.Printf("  Markets fetched:  %d\n", summary.MarketsFetched)
	fmt.Printf("  Candidates:       %d\n", summary.Candidates)
	fmt.Printf("  Abstained:        %d\n", summary.Abstained)
	fmt.Printf("  Sizing rejected:  %d\n", summary.SizingRejected)
	fmt.Printf("  Submitted:        %d\n", summary.Submitted)
	for class, count := range summary.Failed {
		fmt.Printf("  Failed (%s): %d\n", class, count)
	}
	if summary.Halted {
		fmt.Println("  SUBMISSIONS HALTED")
	}

	return nil
}
