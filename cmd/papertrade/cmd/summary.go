package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"papertrade/gateway"
	"papertrade/ledger"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show broker account and local position summary",
	Long: `Fetch the broker account summary and print it alongside the local
ledger's latest position snapshot. Useful for spotting local/remote
drift before trading.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

type summaryOutput struct {
	Account  gateway.AccountSummary `json:"account"`
	Position ledger.PositionState   `json:"local_position"`
	Sequence uint64                 `json:"sequence_id"`
}

func runSummary(cmd *cobra.Command, args []string) error {
	coord, _, cleanup, err := newCoordinator()
	if err != nil {
		return err
	}
	defer cleanup()

	sum, err := coord.AccountSummary(context.Background())
	if err != nil {
		return err
	}

	return printJSON(summaryOutput{
		Account:  sum.Account,
		Position: sum.Position,
		Sequence: sum.Sequence,
	})
}
