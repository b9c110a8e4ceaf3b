package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "Paper-trading position ledger for automated agents",
	Long: `Papertrade executes buy and sell orders for a trading agent and keeps
a durable, auditable position ledger per trading identity.

It provides tools for:
  - Placing market buy/sell orders against a broker gateway
  - Maintaining an append-only, crash-safe trade ledger
  - Projecting and replaying positions for audit
  - Querying the SQLite audit journal
  - Inspecting broker account summaries`,
	SilenceUsage: true,
}

var (
	flagConfig   string
	flagIdentity string
	flagDate     string
	flagDebug    bool
)

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&flagIdentity, "identity", "", "trading identity (overrides config and SIGNATURE)")
	rootCmd.PersistentFlags().StringVar(&flagDate, "date", "", "logical trading date YYYY-MM-DD (overrides config and TODAY_DATE)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}
