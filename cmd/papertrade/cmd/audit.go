package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"papertrade/journal"
	"papertrade/ledger"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Verify and query the trade ledger",
	Long: `Audit the position ledger and its SQLite mirror.

Subcommands:
  verify - Replay the ledger and check it against the latest snapshot
  trades - List audit journal rows for the identity or a date

Examples:
  papertrade audit verify --identity agent-001
  papertrade audit trades --day 2025-06-02`,
}

var auditTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recorded trades from the audit journal",
	Args:  cobra.NoArgs,
	RunE:  runAuditTrades,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay the ledger and verify the recorded snapshots",
	Args:  cobra.NoArgs,
	RunE:  runAuditVerify,
}

var auditDay string

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTradesCmd)

	auditTradesCmd.Flags().StringVar(&auditDay, "day", "", "list trades for a date (YYYY-MM-DD) instead of the identity")
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := ledger.NewStore(cfg.DataDir, decimal.NewFromFloat(cfg.InitialCash), nil)
	proj := ledger.NewProjector(store)

	if err := proj.Verify(cfg.Identity); err != nil {
		return fmt.Errorf("ledger verification failed: %w", err)
	}

	_, seq, err := store.ReadLatest(cfg.Identity)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Ledger verified for %s: %d records, replay matches snapshot\n", cfg.Identity, seq)
	return nil
}

func runAuditTrades(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return fmt.Errorf("no journal_path configured; the audit journal is disabled")
	}

	jnl, err := journal.NewSQLite(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open audit journal: %w", err)
	}
	defer jnl.Close()

	var entries []journal.Entry
	if auditDay != "" {
		entries, err = jnl.ListByDate(auditDay)
	} else {
		entries, err = jnl.ListByIdentity(cfg.Identity)
	}
	if err != nil {
		return fmt.Errorf("query audit journal: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("no recorded trades")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s #%d %s %s %-5s x%-6d fill %-10s commission %-8s cash %s (%s)\n",
			e.Identity, e.Sequence, e.TradeDate, e.Action, e.Symbol,
			e.RequestedAmount, e.FillPrice, e.Commission, e.ResultingCash, e.Status)
	}
	return nil
}
