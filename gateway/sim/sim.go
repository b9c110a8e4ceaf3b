// Package sim is an in-process paper-fill gateway. It fills market
// orders at a quoted price with optional slippage and a flat commission,
// and tracks the broker-side account so the coordinator's remote
// cross-checks work exactly as they would against a real broker.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"papertrade/gateway"
	"papertrade/market"
	"papertrade/pkg/id"
)

// QuoteFunc supplies the current market price for a symbol. A false
// return rejects the order (no market).
type QuoteFunc func(symbol string) (market.Price, bool)

type Gateway struct {
	mu         sync.Mutex
	quote      QuoteFunc
	slippage   decimal.Decimal // fractional, applied against the taker
	commission market.Cash     // flat per order
	cash       market.Cash
	positions  map[string]market.Quantity

	connectErr error
	rejectWith string
}

type Option func(*Gateway)

// WithSlippage worsens fills by the given fraction: buys fill above the
// quote, sells below.
func WithSlippage(frac decimal.Decimal) Option {
	return func(g *Gateway) { g.slippage = frac }
}

func WithCommission(c market.Cash) Option {
	return func(g *Gateway) { g.commission = c }
}

func WithCash(c market.Cash) Option {
	return func(g *Gateway) { g.cash = c }
}

// WithPosition seeds a broker-side holding, e.g. to mirror an existing
// local ledger at startup.
func WithPosition(symbol string, qty market.Quantity) Option {
	return func(g *Gateway) { g.positions[symbol] = qty }
}

// WithConnectError makes every Connect fail, for exercising the
// coordinator's connection abort path.
func WithConnectError(err error) Option {
	return func(g *Gateway) { g.connectErr = err }
}

// WithRejection makes every order come back rejected with the given
// reason.
func WithRejection(reason string) Option {
	return func(g *Gateway) { g.rejectWith = reason }
}

func New(quote QuoteFunc, opts ...Option) *Gateway {
	g := &Gateway{
		quote:     quote,
		slippage:  decimal.Zero,
		positions: make(map[string]market.Quantity),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Connect(ctx context.Context) (gateway.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.connectErr != nil {
		return nil, g.connectErr
	}
	return &session{g: g}, nil
}

// Position reports the broker-side holding, for tests and seeding.
func (g *Gateway) Position(symbol string) market.Quantity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.positions[symbol]
}

type session struct {
	g *Gateway

	mu     sync.Mutex
	closed bool
}

func (s *session) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sim session already closed")
	}
	return nil
}

func (s *session) RemotePosition(ctx context.Context, symbol string) (market.Quantity, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.g.Position(symbol), nil
}

func (s *session) SubmitMarketOrder(ctx context.Context, req gateway.OrderRequest) (gateway.Execution, error) {
	if err := s.guard(); err != nil {
		return gateway.Execution{}, err
	}
	if err := ctx.Err(); err != nil {
		return gateway.Execution{}, err
	}
	if !req.Action.Valid() || req.Quantity <= 0 {
		return gateway.Execution{}, fmt.Errorf("sim: bad order request %+v", req)
	}

	g := s.g
	g.mu.Lock()
	defer g.mu.Unlock()

	orderID := id.New()

	if g.rejectWith != "" {
		return gateway.Execution{
			Success: false,
			OrderID: orderID,
			Status:  "Rejected",
			Err:     g.rejectWith,
		}, nil
	}

	quote, ok := g.quote(req.Symbol)
	if !ok {
		return gateway.Execution{
			Success: false,
			OrderID: orderID,
			Status:  "Rejected",
			Err:     fmt.Sprintf("no market for %s", req.Symbol),
		}, nil
	}
	if req.Action == market.Sell && g.positions[req.Symbol] < req.Quantity {
		return gateway.Execution{
			Success: false,
			OrderID: orderID,
			Status:  "Rejected",
			Err:     fmt.Sprintf("short sale of %s not permitted", req.Symbol),
		}, nil
	}

	// Buys pay up by the slippage fraction, sells give it back.
	fill := quote
	if !g.slippage.IsZero() {
		adj := quote.Mul(g.slippage)
		if req.Action == market.Buy {
			fill = quote.Add(adj)
		} else {
			fill = quote.Sub(adj)
		}
	}

	notional := market.Notional(fill, req.Quantity)
	if req.Action == market.Buy {
		g.positions[req.Symbol] += req.Quantity
		g.cash = g.cash.Sub(notional).Sub(g.commission)
	} else {
		g.positions[req.Symbol] -= req.Quantity
		g.cash = g.cash.Add(notional).Sub(g.commission)
	}

	return gateway.Execution{
		Success:    true,
		OrderID:    orderID,
		Status:     "Filled",
		FillPrice:  fill,
		Commission: g.commission,
	}, nil
}

func (s *session) AccountSummary(ctx context.Context) (gateway.AccountSummary, error) {
	if err := s.guard(); err != nil {
		return gateway.AccountSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return gateway.AccountSummary{}, err
	}

	g := s.g
	g.mu.Lock()
	defer g.mu.Unlock()

	sum := gateway.AccountSummary{CashBalance: g.cash}
	gross := decimal.Zero
	for sym, qty := range g.positions {
		if qty == 0 {
			continue
		}
		line := gateway.PositionLine{Symbol: sym, Quantity: qty}
		if quote, ok := g.quote(sym); ok {
			line.AvgCost = quote
			gross = gross.Add(market.Notional(quote, qty))
		}
		sum.Positions = append(sum.Positions, line)
	}
	sum.GrossPositionValue = gross
	sum.NetLiquidation = g.cash.Add(gross)
	sum.BuyingPower = g.cash
	return sum, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sim session closed twice")
	}
	s.closed = true
	return nil
}
