package ledger

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"papertrade/market"
)

// PositionState is the full holdings snapshot after a trade: one cash
// balance plus integer share counts per symbol. On the wire it is a flat
// map with the reserved CASH key, so every ledger line is self-contained.
type PositionState struct {
	Cash   market.Cash
	Shares map[string]market.Quantity
}

// NewPositionState returns the empty state for an identity with no ledger
// yet: all cash, no holdings.
func NewPositionState(initialCash market.Cash) PositionState {
	return PositionState{
		Cash:   initialCash,
		Shares: map[string]market.Quantity{},
	}
}

// Share returns the held quantity for symbol, zero if none.
func (p PositionState) Share(symbol string) market.Quantity {
	return p.Shares[symbol]
}

// Symbols returns the held symbols in stable order. Zero-quantity
// entries left behind by a full sell are included.
func (p PositionState) Symbols() []string {
	out := make([]string, 0, len(p.Shares))
	for s := range p.Shares {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (p PositionState) Clone() PositionState {
	shares := make(map[string]market.Quantity, len(p.Shares))
	for s, q := range p.Shares {
		shares[s] = q
	}
	return PositionState{Cash: p.Cash, Shares: shares}
}

// Apply returns the state after executing one fill. Buys debit cash by
// price*qty; sells credit the proceeds net of commission and reduce the
// holding, which must stay non-negative. Cash is allowed to go negative
// on a buy: the broker fill is ground truth and is recorded as-is.
func (p PositionState) Apply(action market.Action, symbol string, qty market.Quantity, price market.Price, commission market.Cash) (PositionState, error) {
	if !action.Valid() {
		return PositionState{}, fmt.Errorf("apply: unknown action %q", action)
	}
	if symbol == market.CashSymbol {
		return PositionState{}, fmt.Errorf("apply: %q is not a tradable symbol", symbol)
	}
	if qty <= 0 {
		return PositionState{}, fmt.Errorf("apply: quantity must be positive, got %d", qty)
	}

	next := p.Clone()
	notional := market.Notional(price, qty)

	switch action {
	case market.Buy:
		next.Cash = next.Cash.Sub(notional)
		next.Shares[symbol] += qty
	case market.Sell:
		held := next.Shares[symbol]
		if held < qty {
			return PositionState{}, fmt.Errorf("apply: sell %d %s exceeds holding %d", qty, symbol, held)
		}
		next.Shares[symbol] = held - qty
		next.Cash = next.Cash.Add(notional).Sub(commission)
	}
	return next, nil
}

// Equal compares cash exactly and share maps entry-for-entry, treating a
// missing symbol and a zero holding as the same thing.
func (p PositionState) Equal(o PositionState) bool {
	if !p.Cash.Equal(o.Cash) {
		return false
	}
	for s, q := range p.Shares {
		if o.Shares[s] != q {
			return false
		}
	}
	for s, q := range o.Shares {
		if p.Shares[s] != q {
			return false
		}
	}
	return true
}

func (p PositionState) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Shares)+1)
	m[market.CashSymbol] = p.Cash
	for s, q := range p.Shares {
		m[s] = q
	}
	return json.Marshal(m)
}

func (p *PositionState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Cash = decimal.Zero
	p.Shares = make(map[string]market.Quantity, len(raw))

	for sym, val := range raw {
		if sym == market.CashSymbol {
			var c market.Cash
			if err := json.Unmarshal(val, &c); err != nil {
				return fmt.Errorf("position cash: %w", err)
			}
			p.Cash = c
			continue
		}
		var q market.Quantity
		if err := json.Unmarshal(val, &q); err != nil {
			return fmt.Errorf("position %s: %w", sym, err)
		}
		if q < 0 {
			return fmt.Errorf("position %s: negative holding %d", sym, q)
		}
		p.Shares[sym] = q
	}
	return nil
}
