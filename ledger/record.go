package ledger

import (
	"fmt"

	"papertrade/market"
)

// GatewayResult preserves the broker's raw view of an execution for audit.
type GatewayResult struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TradeRecord is one immutable ledger entry. Each record carries the full
// resulting snapshot, so the current position is always resolvable from
// the single highest-sequence line. Records are only ever appended; the
// sequence id, assigned as previous+1 under the identity's gate, is the
// sole ordering authority.
type TradeRecord struct {
	Sequence        uint64          `json:"sequence_id"`
	TradeDate       string          `json:"trade_date"`
	Action          market.Action   `json:"action"`
	Symbol          string          `json:"symbol"`
	RequestedAmount market.Quantity `json:"requested_amount"`
	ExternalOrderID string          `json:"external_order_id,omitempty"`
	FillPrice       market.Price    `json:"fill_price"`
	Commission      market.Cash     `json:"commission"`
	Resulting       PositionState   `json:"resulting_position"`
	GatewayResult   GatewayResult   `json:"gateway_result"`
}

// Validate checks the structural invariants a record must satisfy before
// it may be appended.
func (r TradeRecord) Validate() error {
	if r.Sequence == 0 {
		return fmt.Errorf("record: sequence must be >= 1")
	}
	if !r.Action.Valid() {
		return fmt.Errorf("record: unknown action %q", r.Action)
	}
	if r.Symbol == "" || r.Symbol == market.CashSymbol {
		return fmt.Errorf("record: invalid symbol %q", r.Symbol)
	}
	if r.RequestedAmount <= 0 {
		return fmt.Errorf("record: requested amount must be positive, got %d", r.RequestedAmount)
	}
	if r.TradeDate == "" {
		return fmt.Errorf("record: trade date is required")
	}
	return nil
}
