// Package ledger implements the durable append-only trade log and the
// position projections derived from it. Each trading identity owns one
// JSONL file; every line is a complete TradeRecord with a full position
// snapshot.
package ledger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"papertrade/market"
)

// ErrPersistence marks ledger I/O failures. When it surfaces after a
// broker execution the trade is real but unrecorded; the caller must not
// treat it as a clean abort.
var ErrPersistence = errors.New("ledger persistence failure")

const recordFile = "position.jsonl"

// maxRecordLine bounds a single serialized record. A line past this is
// corrupt, not a big position.
const maxRecordLine = 1 << 20

// Store reads and appends per-identity trade records. It guarantees that
// a single append is written and flushed as one unit; serializing
// concurrent appends for the same identity is the caller's job (the
// coordinator holds the identity gate across read-validate-append).
type Store struct {
	dir         string
	initialCash market.Cash
	log         *zap.Logger
}

func NewStore(dir string, initialCash market.Cash, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, initialCash: initialCash, log: log}
}

// InitialCash is the cash balance an identity starts with before any
// record exists.
func (s *Store) InitialCash() market.Cash { return s.initialCash }

// Dir returns the base data directory, one subdirectory per identity.
func (s *Store) Dir() string { return s.dir }

func (s *Store) recordPath(identity string) string {
	return filepath.Join(s.dir, identity, recordFile)
}

// ReadLatest returns the snapshot and sequence of the highest-sequence
// record for identity. A missing ledger is a well-defined empty state:
// all initial cash at sequence zero. Lines that fail to parse (a torn
// tail from a crashed writer) are skipped with a warning rather than
// failing the read; sequence order, not file order, decides the winner.
func (s *Store) ReadLatest(identity string) (PositionState, uint64, error) {
	f, err := os.Open(s.recordPath(identity))
	if err != nil {
		if os.IsNotExist(err) {
			return NewPositionState(s.initialCash), 0, nil
		}
		return PositionState{}, 0, fmt.Errorf("read ledger for %s: %w: %w", identity, ErrPersistence, err)
	}
	defer f.Close()

	var (
		latest  PositionState
		seq     uint64
		skipped int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxRecordLine)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec TradeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if rec.Sequence > seq {
			seq = rec.Sequence
			latest = rec.Resulting
		}
	}
	if err := sc.Err(); err != nil {
		return PositionState{}, 0, fmt.Errorf("scan ledger for %s: %w: %w", identity, ErrPersistence, err)
	}
	if skipped > 0 {
		s.log.Warn("skipped unreadable ledger lines",
			zap.String("identity", identity),
			zap.Int("lines", skipped))
	}
	if seq == 0 {
		return NewPositionState(s.initialCash), 0, nil
	}
	return latest, seq, nil
}

// Records returns every parseable record for identity, in file order.
// Used by the replay/audit path, never by the trading hot path.
func (s *Store) Records(identity string) ([]TradeRecord, error) {
	f, err := os.Open(s.recordPath(identity))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger for %s: %w: %w", identity, ErrPersistence, err)
	}
	defer f.Close()

	var recs []TradeRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxRecordLine)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec TradeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ledger for %s: %w: %w", identity, ErrPersistence, err)
	}
	return recs, nil
}

// Append durably persists one record: a single fully-serialized line,
// fsynced before returning. On any error the record must be treated as
// not committed.
func (s *Store) Append(identity string, rec TradeRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("append for %s: %w", identity, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w: %w", identity, ErrPersistence, err)
	}
	data = append(data, '\n')

	dir := filepath.Join(s.dir, identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir for %s: %w: %w", identity, ErrPersistence, err)
	}

	f, err := os.OpenFile(s.recordPath(identity), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for %s: %w: %w", identity, ErrPersistence, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write record %d for %s: %w: %w", rec.Sequence, identity, ErrPersistence, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync record %d for %s: %w: %w", rec.Sequence, identity, ErrPersistence, err)
	}

	s.log.Debug("ledger record appended",
		zap.String("identity", identity),
		zap.Uint64("sequence", rec.Sequence),
		zap.String("action", rec.Action.String()),
		zap.String("symbol", rec.Symbol))
	return nil
}
