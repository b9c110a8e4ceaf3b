package ledger

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrSequenceGap       = errors.New("ledger sequence gap")
	ErrDuplicateSequence = errors.New("duplicate ledger sequence")
	ErrReplayMismatch    = errors.New("replay does not match recorded snapshot")
)

// Projector derives the current position from the ledger. Project is the
// hot path and only reads the latest snapshot; Replay recomputes state
// from scratch and exists for audit and repair. Keeping this behind its
// own type lets a replay-based projection be swapped in without touching
// the coordinator.
type Projector struct {
	store *Store
}

func NewProjector(store *Store) *Projector {
	return &Projector{store: store}
}

// Project returns the current position and sequence for identity.
func (p *Projector) Project(identity string) (PositionState, uint64, error) {
	return p.store.ReadLatest(identity)
}

// Replay folds every record in sequence order, recomputing holdings from
// the configured initial cash. The sequence must be 1..n with no gaps or
// duplicates.
func (p *Projector) Replay(identity string) (PositionState, error) {
	recs, err := p.store.Records(identity)
	if err != nil {
		return PositionState{}, err
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Sequence < recs[j].Sequence })

	state := NewPositionState(p.store.InitialCash())
	for i, rec := range recs {
		want := uint64(i + 1)
		switch {
		case rec.Sequence < want:
			return PositionState{}, fmt.Errorf("%w: sequence %d seen twice for %s", ErrDuplicateSequence, rec.Sequence, identity)
		case rec.Sequence > want:
			return PositionState{}, fmt.Errorf("%w: expected %d, found %d for %s", ErrSequenceGap, want, rec.Sequence, identity)
		}
		state, err = state.Apply(rec.Action, rec.Symbol, rec.RequestedAmount, rec.FillPrice, rec.Commission)
		if err != nil {
			return PositionState{}, fmt.Errorf("replay %s sequence %d: %w", identity, rec.Sequence, err)
		}
	}
	return state, nil
}

// Verify replays the ledger and compares the result against the latest
// recorded snapshot. A mismatch means a record was written with a
// snapshot that disagrees with its own action history.
func (p *Projector) Verify(identity string) error {
	replayed, err := p.Replay(identity)
	if err != nil {
		return err
	}
	latest, seq, err := p.store.ReadLatest(identity)
	if err != nil {
		return err
	}
	if seq == 0 {
		return nil
	}
	if !replayed.Equal(latest) {
		return fmt.Errorf("%w: identity %s at sequence %d", ErrReplayMismatch, identity, seq)
	}
	return nil
}
