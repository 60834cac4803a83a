package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-agent",
	Short: "Autonomous Polymarket trading agent",
	Long: `Autonomous Polymarket trading agent that screens active markets,
asks a panel of language models for independent probability estimates,
trades only when the panel agrees it disagrees with the market price,
and sizes each stake with a capped Kelly fraction.

The agent runs decision cycles on a fixed interval and continuously
reconciles its order and position ledger against the exchange.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
