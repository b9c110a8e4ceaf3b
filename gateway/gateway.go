// Package gateway defines the exchange-side contract the coordinator
// trades through. The broker itself is an external collaborator; this
// package only fixes the connect/submit/query/disconnect surface.
package gateway

import (
	"context"

	"papertrade/market"
)

// Gateway opens broker sessions. Connect failures are retryable: nothing
// has been committed anywhere.
type Gateway interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is one open broker connection. Close must be called exactly
// once per successful Connect, on every path. Submit is bounded-time:
// implementations poll or wait internally and always return a definite
// outcome.
type Session interface {
	RemotePosition(ctx context.Context, symbol string) (market.Quantity, error)
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (Execution, error)
	AccountSummary(ctx context.Context) (AccountSummary, error)
	Close() error
}

type OrderRequest struct {
	Symbol   string
	Quantity market.Quantity
	Action   market.Action
}

// Execution is the broker's definite answer to one market order.
// Success false with a populated Err is a rejection, not a transport
// error. A zero FillPrice means the broker did not report one; the
// coordinator falls back to the reference price.
type Execution struct {
	Success    bool         `json:"success"`
	OrderID    string       `json:"order_id,omitempty"`
	Status     string       `json:"status,omitempty"`
	FillPrice  market.Price `json:"fill_price"`
	Commission market.Cash  `json:"commission"`
	Err        string       `json:"error,omitempty"`
}

type AccountSummary struct {
	NetLiquidation     market.Cash
	CashBalance        market.Cash
	BuyingPower        market.Cash
	GrossPositionValue market.Cash
	Positions          []PositionLine
}

type PositionLine struct {
	Symbol   string
	Quantity market.Quantity
	AvgCost  market.Price
}
