package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"papertrade/ledger"
	"papertrade/market"
)

// Entry is one flattened audit row.
type Entry struct {
	Identity        string
	Sequence        uint64
	TradeDate       string
	Action          market.Action
	Symbol          string
	RequestedAmount market.Quantity
	ExternalOrderID string
	FillPrice       market.Price
	Commission      market.Cash
	ResultingCash   market.Cash
	Status          string
}

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Record mirrors one committed ledger record. Re-recording the same
// (identity, sequence) fails on the primary key, which catches mirror
// double-writes.
func (j *SQLite) Record(identity string, rec ledger.TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trade_records
		(identity, sequence_id, trade_date, action, symbol, requested_amount,
		 external_order_id, fill_price, commission, resulting_cash, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity, rec.Sequence, rec.TradeDate, rec.Action.String(), rec.Symbol,
		rec.RequestedAmount, rec.ExternalOrderID, rec.FillPrice.String(),
		rec.Commission.String(), rec.Resulting.Cash.String(), rec.GatewayResult.Status,
	)
	return err
}

// ListByIdentity returns all audit rows for one identity in sequence
// order.
func (j *SQLite) ListByIdentity(identity string) ([]Entry, error) {
	return j.list(`
		SELECT identity, sequence_id, trade_date, action, symbol, requested_amount,
		       external_order_id, fill_price, commission, resulting_cash, status
		FROM trade_records WHERE identity = ? ORDER BY sequence_id`, identity)
}

// ListByDate returns all audit rows for one trading date across
// identities.
func (j *SQLite) ListByDate(date string) ([]Entry, error) {
	return j.list(`
		SELECT identity, sequence_id, trade_date, action, symbol, requested_amount,
		       external_order_id, fill_price, commission, resulting_cash, status
		FROM trade_records WHERE trade_date = ? ORDER BY identity, sequence_id`, date)
}

func (j *SQLite) list(query string, arg any) ([]Entry, error) {
	rows, err := j.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                       Entry
			action                  string
			fill, commission, cashS string
		)
		if err := rows.Scan(&e.Identity, &e.Sequence, &e.TradeDate, &action, &e.Symbol,
			&e.RequestedAmount, &e.ExternalOrderID, &fill, &commission, &cashS, &e.Status); err != nil {
			return nil, err
		}
		e.Action = market.Action(action)
		if e.FillPrice, err = decimal.NewFromString(fill); err != nil {
			return nil, fmt.Errorf("audit row %s/%d: bad fill price %q: %w", e.Identity, e.Sequence, fill, err)
		}
		if e.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, fmt.Errorf("audit row %s/%d: bad commission %q: %w", e.Identity, e.Sequence, commission, err)
		}
		if e.ResultingCash, err = decimal.NewFromString(cashS); err != nil {
			return nil, fmt.Errorf("audit row %s/%d: bad cash %q: %w", e.Identity, e.Sequence, cashS, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
