package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"

	"papertrade/config"
	"papertrade/gate"
	"papertrade/gateway/sim"
	"papertrade/journal"
	"papertrade/ledger"
	"papertrade/market"
	"papertrade/pkg/logger"
	"papertrade/pricing"
	"papertrade/trade"
)

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if flagIdentity != "" {
		cfg.Identity = flagIdentity
	}
	if flagDate != "" {
		cfg.TradeDate = flagDate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCoordinator wires the full trading stack from configuration. The
// returned cleanup must run after the command finishes.
func newCoordinator() (*trade.Coordinator, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Mode != config.ModeSim {
		return nil, nil, nil, fmt.Errorf("gateway mode %q is not wired into this build; the broker protocol is external (set mode: sim or USE_IB_PAPER=false)", cfg.Mode)
	}

	log, err := logger.New(flagDebug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}

	book, err := pricing.LoadCSV(cfg.PriceFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load reference prices: %w", err)
	}

	store := ledger.NewStore(cfg.DataDir, decimal.NewFromFloat(cfg.InitialCash), log)

	// Seed the paper broker from the local ledger so remote cross-checks
	// behave like a real account that executed our history.
	latest, _, err := store.ReadLatest(cfg.Identity)
	if err != nil {
		return nil, nil, nil, err
	}
	quote := func(symbol string) (market.Price, bool) {
		p, perr := book.Open(cfg.TradeDate, symbol)
		return p, perr == nil
	}
	simOpts := []sim.Option{sim.WithCash(latest.Cash)}
	for _, symbol := range latest.Symbols() {
		if qty := latest.Share(symbol); qty > 0 {
			simOpts = append(simOpts, sim.WithPosition(symbol, qty))
		}
	}
	gw := sim.New(quote, simOpts...)

	opts := []trade.Option{
		trade.WithLogger(log),
		trade.WithTradeFlag(config.NewStateFile(filepath.Join(cfg.DataDir, cfg.Identity, "state.json"))),
	}

	cleanup := func() { _ = log.Sync() }
	if cfg.JournalPath != "" {
		jnl, err := journal.NewSQLite(cfg.JournalPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open audit journal: %w", err)
		}
		opts = append(opts, trade.WithAuditor(jnl))
		cleanup = func() {
			_ = jnl.Close()
			_ = log.Sync()
		}
	}

	coord := trade.New(cfg.Identity, cfg.TradeDate, store, ledger.NewProjector(store), gate.New(cfg.DataDir), gw, book, opts...)
	return coord, cfg, cleanup, nil
}
