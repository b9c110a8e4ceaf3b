package ledger

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/market"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestApplyBuy(t *testing.T) {
	t.Parallel()

	state := NewPositionState(dec(t, "10000"))
	next, err := state.Apply(market.Buy, "XYZ", 10, dec(t, "50"), decimal.Zero)
	require.NoError(t, err)

	assert.True(t, next.Cash.Equal(dec(t, "9500")), "cash %s", next.Cash)
	assert.Equal(t, int64(10), next.Share("XYZ"))

	// original untouched
	assert.True(t, state.Cash.Equal(dec(t, "10000")))
	assert.Equal(t, int64(0), state.Share("XYZ"))
}

func TestApplySellWithCommission(t *testing.T) {
	t.Parallel()

	state := NewPositionState(dec(t, "9500"))
	state.Shares["XYZ"] = 10

	next, err := state.Apply(market.Sell, "XYZ", 4, dec(t, "55"), dec(t, "1"))
	require.NoError(t, err)

	// 9500 + 4*55 - 1
	assert.True(t, next.Cash.Equal(dec(t, "9719")), "cash %s", next.Cash)
	assert.Equal(t, int64(6), next.Share("XYZ"))
}

func TestApplyBuyMayGoNegative(t *testing.T) {
	t.Parallel()

	// Settlement uses the fill price; the advisory check happened
	// earlier at the reference price, so negative cash is recorded.
	state := NewPositionState(dec(t, "100"))
	next, err := state.Apply(market.Buy, "XYZ", 10, dec(t, "10.50"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, next.Cash.Equal(dec(t, "-5")), "cash %s", next.Cash)
}

func TestApplyRejectsOversell(t *testing.T) {
	t.Parallel()

	state := NewPositionState(dec(t, "1000"))
	state.Shares["XYZ"] = 3

	_, err := state.Apply(market.Sell, "XYZ", 4, dec(t, "55"), decimal.Zero)
	assert.Error(t, err)

	_, err = state.Apply(market.Sell, "ABC", 1, dec(t, "55"), decimal.Zero)
	assert.Error(t, err)
}

func TestApplyRejectsBadInput(t *testing.T) {
	t.Parallel()

	state := NewPositionState(dec(t, "1000"))

	_, err := state.Apply(market.Buy, "XYZ", 0, dec(t, "55"), decimal.Zero)
	assert.Error(t, err)

	_, err = state.Apply(market.Buy, market.CashSymbol, 1, dec(t, "55"), decimal.Zero)
	assert.Error(t, err)

	_, err = state.Apply(market.Action("HOLD"), "XYZ", 1, dec(t, "55"), decimal.Zero)
	assert.Error(t, err)
}

func TestPositionJSONShape(t *testing.T) {
	t.Parallel()

	state := NewPositionState(dec(t, "9500"))
	state.Shares["XYZ"] = 10

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "CASH")
	assert.Contains(t, raw, "XYZ")

	var back PositionState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Cash.Equal(state.Cash))
	assert.Equal(t, int64(10), back.Share("XYZ"))
}

func TestPositionJSONRejectsNegativeHolding(t *testing.T) {
	t.Parallel()

	var p PositionState
	err := json.Unmarshal([]byte(`{"CASH":"100","XYZ":-3}`), &p)
	assert.Error(t, err)
}

func TestPositionEqualTreatsZeroAsMissing(t *testing.T) {
	t.Parallel()

	a := NewPositionState(dec(t, "100"))
	a.Shares["XYZ"] = 0

	b := NewPositionState(dec(t, "100"))
	assert.True(t, a.Equal(b))

	b.Shares["XYZ"] = 1
	assert.False(t, a.Equal(b))
}
