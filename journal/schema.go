// Package journal mirrors committed ledger records into SQLite so they
// can be queried by identity and date without scanning JSONL files. The
// mirror is best-effort and derived; the ledger remains the source of
// truth.
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trade_records (
	identity TEXT NOT NULL,
	sequence_id INTEGER NOT NULL,
	trade_date TEXT NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	requested_amount INTEGER NOT NULL,
	external_order_id TEXT,
	fill_price TEXT NOT NULL,
	commission TEXT NOT NULL,
	resulting_cash TEXT NOT NULL,
	status TEXT,
	PRIMARY KEY (identity, sequence_id)
);

CREATE INDEX IF NOT EXISTS idx_trade_records_date ON trade_records(trade_date);
`
