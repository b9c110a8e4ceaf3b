package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"papertrade/gateway"
	"papertrade/ledger"
	"papertrade/market"
	"papertrade/trade"
)

var buyCmd = &cobra.Command{
	Use:   "buy SYMBOL AMOUNT",
	Short: "Buy shares at market",
	Long: `Execute a market buy order and commit it to the position ledger.

Example:
  papertrade buy AAPL 10 --date 2025-06-02`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(market.Buy, args)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell SYMBOL AMOUNT",
	Short: "Sell shares at market",
	Long: `Execute a market sell order and commit it to the position ledger.
The sale is rejected unless both the local ledger and the broker account
hold enough shares.

Example:
  papertrade sell AAPL 4 --date 2025-06-02`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(market.Sell, args)
	},
}

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)
}

type tradeOutput struct {
	Position    ledger.PositionState `json:"position"`
	Sequence    uint64               `json:"sequence_id"`
	ActualPrice market.Price         `json:"actual_price"`
	Execution   gateway.Execution    `json:"execution_details"`
}

func runTrade(action market.Action, args []string) error {
	symbol := args[0]
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("amount %q: must be a whole number of shares", args[1])
	}

	coord, _, cleanup, err := newCoordinator()
	if err != nil {
		return err
	}
	defer cleanup()

	var res trade.Result
	if action == market.Buy {
		res, err = coord.Buy(context.Background(), symbol, amount)
	} else {
		res, err = coord.Sell(context.Background(), symbol, amount)
	}
	if err != nil {
		return err
	}

	return printJSON(tradeOutput{
		Position:    res.Position,
		Sequence:    res.Sequence,
		ActualPrice: res.ActualPrice,
		Execution:   res.Execution,
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
