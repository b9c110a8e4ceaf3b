// Package market defines the money and quantity vocabulary shared by the
// ledger, gateway and coordinator packages. Cash and prices are exact
// decimals; share counts are whole integers.
package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CashSymbol is the reserved position key holding the cash balance.
// It can never be traded as an asset symbol.
const CashSymbol = "CASH"

type (
	Cash     = decimal.Decimal
	Price    = decimal.Decimal
	Quantity = int64
)

// Action is the side of a market order.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

func (a Action) Valid() bool {
	return a == Buy || a == Sell
}

// Sign is +1 for a buy and -1 for a sell, the direction the position
// quantity moves.
func (a Action) Sign() int64 {
	if a == Sell {
		return -1
	}
	return 1
}

func (a Action) String() string { return string(a) }

// ParseAction normalizes a wire/CLI action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("unknown action %q (want BUY|SELL)", s)
}

// Notional returns price * quantity as cash.
func Notional(p Price, q Quantity) Cash {
	return p.Mul(decimal.NewFromInt(q))
}
