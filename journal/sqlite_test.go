package journal

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/ledger"
	"papertrade/market"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func testRecord(seq uint64) ledger.TradeRecord {
	state := ledger.NewPositionState(decimal.NewFromInt(9500))
	state.Shares["XYZ"] = 10
	return ledger.TradeRecord{
		Sequence:        seq,
		TradeDate:       "2025-06-02",
		Action:          market.Buy,
		Symbol:          "XYZ",
		RequestedAmount: 10,
		ExternalOrderID: "ORD-7",
		FillPrice:       decimal.NewFromInt(50),
		Commission:      decimal.RequireFromString("1.25"),
		Resulting:       state,
		GatewayResult:   ledger.GatewayResult{Status: "Filled"},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='trade_records'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "trade_records", name)
}

func TestSQLiteRecordRoundtrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	require.NoError(t, j.Record("alice", testRecord(1)))
	require.NoError(t, j.Record("alice", testRecord(2)))
	require.NoError(t, j.Record("bob", testRecord(1)))

	entries, err := j.ListByIdentity("alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "alice", e.Identity)
	assert.Equal(t, uint64(1), e.Sequence)
	assert.Equal(t, market.Buy, e.Action)
	assert.Equal(t, "XYZ", e.Symbol)
	assert.Equal(t, int64(10), e.RequestedAmount)
	assert.Equal(t, "ORD-7", e.ExternalOrderID)
	assert.Equal(t, "50", e.FillPrice.String())
	assert.Equal(t, "1.25", e.Commission.String())
	assert.Equal(t, "9500", e.ResultingCash.String())
	assert.Equal(t, "Filled", e.Status)
}

func TestSQLiteListByDate(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	rec := testRecord(1)
	require.NoError(t, j.Record("alice", rec))

	other := testRecord(2)
	other.TradeDate = "2025-06-03"
	require.NoError(t, j.Record("alice", other))

	entries, err := j.ListByDate("2025-06-02")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].Sequence)
}

func TestSQLiteRejectsDuplicateSequence(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)

	require.NoError(t, j.Record("alice", testRecord(1)))
	assert.Error(t, j.Record("alice", testRecord(1)))

	// Same sequence under a different identity is fine.
	assert.NoError(t, j.Record("carol", testRecord(1)))
}
