// Package trade orchestrates one buy or sell request end to end:
// validate against the local ledger, execute at the broker, reconcile
// the fill, and commit exactly one new ledger record, all while holding
// the identity's concurrency gate.
//
// The advisory cash check deliberately uses the reference open price
// while settlement uses the broker fill price, so cash can go slightly
// negative after a buy that filled above the estimate. Broker execution
// is ground truth and is recorded as-is.
package trade

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"papertrade/gate"
	"papertrade/gateway"
	"papertrade/ledger"
	"papertrade/market"
	"papertrade/pkg/id"
	"papertrade/pricing"
)

// Ledger is the append side of the position log. *ledger.Store
// satisfies it.
type Ledger interface {
	Append(identity string, rec ledger.TradeRecord) error
}

// Projection supplies the current position. *ledger.Projector satisfies
// it; a replay-based projection can be swapped in without touching the
// coordinator.
type Projection interface {
	Project(identity string) (ledger.PositionState, uint64, error)
}

// Auditor mirrors committed records into a secondary queryable store.
// Mirror failures never fail the trade; the ledger is the source of
// truth.
type Auditor interface {
	Record(identity string, rec ledger.TradeRecord) error
}

// TradeFlag signals the agent's outer loop that a trade occurred.
type TradeFlag interface {
	MarkTraded() error
}

type Coordinator struct {
	identity  string
	tradeDate string

	store   Ledger
	proj    Projection
	gate    *gate.Gate
	gw      gateway.Gateway
	prices  pricing.Source
	auditor Auditor
	flag    TradeFlag
	log     *zap.Logger
}

type Option func(*Coordinator)

func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

func WithAuditor(a Auditor) Option {
	return func(c *Coordinator) { c.auditor = a }
}

func WithTradeFlag(f TradeFlag) Option {
	return func(c *Coordinator) { c.flag = f }
}

func New(identity, tradeDate string, store Ledger, proj Projection, g *gate.Gate, gw gateway.Gateway, prices pricing.Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		identity:  identity,
		tradeDate: tradeDate,
		store:     store,
		proj:      proj,
		gate:      g,
		gw:        gw,
		prices:    prices,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of a committed trade.
type Result struct {
	RequestID   string
	Sequence    uint64
	ActualPrice market.Price
	Execution   gateway.Execution
	Position    ledger.PositionState
}

// Summary combines the broker's account view with the local ledger view.
type Summary struct {
	Account  gateway.AccountSummary
	Position ledger.PositionState
	Sequence uint64
}

func (c *Coordinator) Buy(ctx context.Context, symbol string, amount market.Quantity) (Result, error) {
	return c.execute(ctx, market.Buy, symbol, amount)
}

func (c *Coordinator) Sell(ctx context.Context, symbol string, amount market.Quantity) (Result, error) {
	return c.execute(ctx, market.Sell, symbol, amount)
}

// execute is the single state machine behind Buy and Sell. The two
// differ only in the sign of the position delta, the cash-vs-holdings
// precondition, and the sell-side broker cross-check.
func (c *Coordinator) execute(ctx context.Context, action market.Action, symbol string, amount market.Quantity) (Result, error) {
	reqID := id.New()
	log := c.log.With(
		zap.String("request_id", reqID),
		zap.String("identity", c.identity),
		zap.String("trade_date", c.tradeDate),
		zap.String("action", action.String()),
		zap.String("symbol", symbol),
		zap.Int64("amount", amount),
	)

	log.Debug("trade request", zap.Stringer("state", StateValidating))
	if amount <= 0 {
		return Result{}, fmt.Errorf("%w: amount must be a positive share count, got %d", ErrInvalidArgument, amount)
	}
	if symbol == "" || symbol == market.CashSymbol {
		return Result{}, fmt.Errorf("%w: %q is not a tradable symbol", ErrInvalidArgument, symbol)
	}

	// The gate stays held through commit or abort: read-validate-append
	// must be one critical section per identity.
	lease, err := c.gate.Acquire(c.identity)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	defer func() {
		if rerr := lease.Release(); rerr != nil {
			log.Warn("gate release failed", zap.Error(rerr))
		}
	}()

	state, seq, err := c.proj.Project(c.identity)
	if err != nil {
		return Result{}, err
	}

	refPrice, err := c.prices.Open(c.tradeDate, symbol)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s on %s", ErrPriceUnavailable, symbol, c.tradeDate)
	}

	switch action {
	case market.Buy:
		// Advisory only: estimates with the reference price, settles
		// with the fill price.
		required := market.Notional(refPrice, amount)
		if state.Cash.LessThan(required) {
			return Result{}, &FundsError{
				Symbol:    symbol,
				TradeDate: c.tradeDate,
				Required:  required,
				Available: state.Cash,
			}
		}
	case market.Sell:
		if held := state.Share(symbol); held < amount {
			return Result{}, &SharesError{
				Symbol:    symbol,
				TradeDate: c.tradeDate,
				Have:      held,
				Want:      amount,
			}
		}
	}

	log.Debug("trade request", zap.Stringer("state", StateConnecting))
	sess, err := c.gw.Connect(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("gateway disconnect failed", zap.Error(cerr))
		}
	}()

	if action == market.Sell {
		// Guard against local/remote drift, e.g. a prior trade that
		// executed at the broker but never committed here.
		remote, err := sess.RemotePosition(ctx, symbol)
		if err != nil {
			return Result{}, fmt.Errorf("%w: query remote position: %w", ErrConnection, err)
		}
		if remote < amount {
			return Result{}, &SharesError{
				Symbol:    symbol,
				TradeDate: c.tradeDate,
				Have:      remote,
				Want:      amount,
				Remote:    true,
			}
		}
	}

	log.Debug("trade request", zap.Stringer("state", StateExecuting))
	exec, err := sess.SubmitMarketOrder(ctx, gateway.OrderRequest{
		Symbol:   symbol,
		Quantity: amount,
		Action:   action,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s on %s: %w", ErrExecution, symbol, c.tradeDate, err)
	}
	if !exec.Success {
		return Result{}, &ExecutionError{Symbol: symbol, TradeDate: c.tradeDate, Execution: exec}
	}

	log.Debug("trade request", zap.Stringer("state", StateReconciling))
	actualPrice := exec.FillPrice
	if actualPrice.IsZero() {
		actualPrice = refPrice
	}
	newState, err := state.Apply(action, symbol, amount, actualPrice, exec.Commission)
	if err != nil {
		// Preconditions held under the gate, so this indicates a bug.
		return Result{}, fmt.Errorf("%w: reconcile fill: %w", ErrUnexpected, err)
	}

	log.Debug("trade request", zap.Stringer("state", StateCommitting))
	rec := ledger.TradeRecord{
		Sequence:        seq + 1,
		TradeDate:       c.tradeDate,
		Action:          action,
		Symbol:          symbol,
		RequestedAmount: amount,
		ExternalOrderID: exec.OrderID,
		FillPrice:       actualPrice,
		Commission:      exec.Commission,
		Resulting:       newState,
		GatewayResult:   ledger.GatewayResult{Status: exec.Status, Error: exec.Err},
	}
	if err := c.store.Append(c.identity, rec); err != nil {
		cf := &CommitFailedError{
			Identity:  c.identity,
			Symbol:    symbol,
			TradeDate: c.tradeDate,
			Execution: exec,
			Err:       err,
		}
		log.Error("trade executed at broker but ledger commit failed; manual reconciliation required",
			zap.String("order_id", exec.OrderID),
			zap.String("fill_price", actualPrice.String()),
			zap.Error(err))
		return Result{}, cf
	}

	if c.auditor != nil {
		if err := c.auditor.Record(c.identity, rec); err != nil {
			log.Warn("audit mirror failed", zap.Uint64("sequence", rec.Sequence), zap.Error(err))
		}
	}
	if c.flag != nil {
		if err := c.flag.MarkTraded(); err != nil {
			log.Warn("trade flag update failed", zap.Error(err))
		}
	}

	log.Info("trade committed",
		zap.Stringer("state", StateDone),
		zap.Uint64("sequence", rec.Sequence),
		zap.String("order_id", exec.OrderID),
		zap.String("fill_price", actualPrice.String()))

	return Result{
		RequestID:   reqID,
		Sequence:    rec.Sequence,
		ActualPrice: actualPrice,
		Execution:   exec,
		Position:    newState,
	}, nil
}

// AccountSummary returns the broker account values alongside the local
// ledger's latest snapshot. Read-only: no gate is taken, so it may
// observe either side of an in-flight commit.
func (c *Coordinator) AccountSummary(ctx context.Context) (Summary, error) {
	sess, err := c.gw.Connect(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			c.log.Warn("gateway disconnect failed", zap.Error(cerr))
		}
	}()

	acct, err := sess.AccountSummary(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: account summary: %w", ErrConnection, err)
	}

	pos, seq, err := c.proj.Project(c.identity)
	if err != nil {
		return Summary{}, err
	}

	return Summary{Account: acct, Position: pos, Sequence: seq}, nil
}
