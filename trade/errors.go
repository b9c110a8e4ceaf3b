package trade

import (
	"errors"
	"fmt"

	"papertrade/gateway"
	"papertrade/ledger"
	"papertrade/market"
)

// Sentinel errors for every way an operation can abort. Validation and
// precondition failures happen before any broker call and leave no side
// effects; connection and execution failures abort after session cleanup
// with nothing written locally.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPriceUnavailable   = errors.New("reference price unavailable")
	ErrInsufficientFunds  = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrConnection         = errors.New("gateway connection failed")
	ErrExecution          = errors.New("order execution failed")
	ErrPersistence        = ledger.ErrPersistence
	ErrUnexpected         = errors.New("unexpected trading failure")
)

// FundsError reports an advisory cash check failure, with enough context
// to diagnose without re-reading the ledger.
type FundsError struct {
	Symbol    string
	TradeDate string
	Required  market.Cash
	Available market.Cash
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("%v: buying %s on %s needs %s, have %s",
		ErrInsufficientFunds, e.Symbol, e.TradeDate, e.Required, e.Available)
}

func (e *FundsError) Unwrap() error { return ErrInsufficientFunds }

// SharesError reports a holdings check failure. Remote marks the broker
// cross-check: the local ledger had enough shares but the broker account
// did not, which usually means a prior trade executed remotely without
// committing locally.
type SharesError struct {
	Symbol    string
	TradeDate string
	Have      market.Quantity
	Want      market.Quantity
	Remote    bool
}

func (e *SharesError) Error() string {
	side := "local ledger"
	if e.Remote {
		side = "broker account"
	}
	return fmt.Sprintf("%v: selling %d %s on %s but %s holds %d",
		ErrInsufficientShares, e.Want, e.Symbol, e.TradeDate, side, e.Have)
}

func (e *SharesError) Unwrap() error { return ErrInsufficientShares }

// ExecutionError carries the broker's rejection details.
type ExecutionError struct {
	Symbol    string
	TradeDate string
	Execution gateway.Execution
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%v: %s on %s: %s (status %s)",
		ErrExecution, e.Symbol, e.TradeDate, e.Execution.Err, e.Execution.Status)
}

func (e *ExecutionError) Unwrap() error { return ErrExecution }

// CommitFailedError is the one irreconcilable outcome: the broker
// executed the order but the local append failed. The execution details
// are preserved so an operator can reconcile the ledger by hand; callers
// must not treat this as a clean abort.
type CommitFailedError struct {
	Identity  string
	Symbol    string
	TradeDate string
	Execution gateway.Execution
	Err       error
}

func (e *CommitFailedError) Error() string {
	return fmt.Sprintf(
		"trade EXECUTED at broker but NOT recorded locally (identity %s, %s on %s, order %s): %v",
		e.Identity, e.Symbol, e.TradeDate, e.Execution.OrderID, e.Err)
}

func (e *CommitFailedError) Unwrap() error { return e.Err }
