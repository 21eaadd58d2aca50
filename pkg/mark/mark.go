package mark

import (
	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/childchange"
)

// Tiebreak decides, for an attach whose position among other concurrent
// attaches at the same index is ambiguous, which side of existing content
// it lands on. Default is Left: a new attach lands to the left of
// concurrent attaches already anchored at the same index. Right is
// opt-in, and is inverted by rollback inverses so a reinstated cell sits
// consistently with where the original attach was (spec §4.3, §9).
type Tiebreak int

const (
	Left Tiebreak = iota
	Right
)

// Mark is one run-length-encoded unit covering Count contiguous cells, per
// spec §3.
type Mark struct {
	// Count is how many cells this mark covers. Always > 0 for a mark
	// that is part of a Changeset (invariant 1); helper constructors may
	// return a zero-count mark as a sentinel meaning "nothing here",
	// filtered out before insertion into a Changeset.
	Count int

	// Cell is set only on marks whose input cells are empty at the point
	// this mark applies (invariant 4), and names those cells when they
	// have a known identity: Pin and Tombstone always carry one; a revive
	// Insert, a MoveIn into known cells, and an AttachAndDetach whose
	// attach targets known cells carry one too. A brand-new Insert or
	// MoveIn has empty input cells but no prior identity, so its Cell is
	// nil. NoOp/Remove/MoveOut applied to populated cells never carry one.
	Cell *cell.Ref

	// Changes is the opaque child modification this mark carries. Per
	// invariant 3, non-nil Changes implies Count == 1.
	Changes childchange.Change

	// Effect is the mark's variant payload.
	Effect Effect

	// Tiebreak only matters for attach-like effects; it is ignored
	// otherwise.
	Tiebreak Tiebreak
}

// IsEmptyInput reports whether this mark applies to cells that are empty
// going in, per invariant 4. This depends on the effect kind, not on
// whether a Cell reference happens to be present: a brand-new Insert has
// empty input cells with no prior identity (Cell == nil) just as much as a
// revive does (Cell != nil).
func (m Mark) IsEmptyInput() bool {
	switch m.Effect.(type) {
	case AttachAndDetachEffect, TombstoneEffect, PinEffect, InsertEffect, MoveInEffect:
		return true
	default:
		return false
	}
}

// Validate checks the structural invariants this single mark must hold
// (spec §3 invariants 1, 3, 4). It never checks cross-mark invariants
// (merge-adjacency, invariant 2; move-endpoint pairing, invariant 5) —
// those are Changeset-level checks.
func (m Mark) Validate() error {
	if m.Count <= 0 {
		return errPrecondition("mark has non-positive count")
	}
	if m.Changes != nil && m.Count != 1 {
		return errPrecondition("mark carries a child change but count != 1")
	}
	switch eff := m.Effect.(type) {
	case AttachAndDetachEffect:
		if !IsAttachLike(eff.Attach) {
			return errPrecondition("AttachAndDetach inner attach is not attach-like")
		}
		if !IsDetachLike(eff.Detach) {
			return errPrecondition("AttachAndDetach inner detach is not detach-like")
		}
		// Cell is optional here: present if the cells AttachAndDetach's
		// inner attach targets were previously known (a revive-shaped
		// attach), absent if the attach originates brand-new content.
	case TombstoneEffect, PinEffect:
		if m.Cell == nil {
			return errPrecondition("Tombstone/Pin mark must carry a cell reference to known empty cells")
		}
	case InsertEffect, MoveInEffect:
		// Cell is optional: nil for a brand-new attach (per spec §3, "a
		// cell created by an attach that is never later detached has no
		// cell ID... until someone detaches it"), set when reattaching
		// into a previously-known empty cell (a revive).
	default:
		if m.Cell != nil {
			return errPrecondition("populated-cell mark unexpectedly carries a cell reference")
		}
	}
	return nil
}

// errPrecondition is a tiny local alias kept dependency-free of
// pkg/fielderrors (which itself may want to import pkg/mark for debug
// formatting); operators that want the typed error wrap this.
type preconditionError string

func (e preconditionError) Error() string { return string(e) }

func errPrecondition(msg string) error { return preconditionError(msg) }

// NewNoOp builds a NoOp mark over count populated cells, optionally carrying
// a single child change (count must be 1 in that case).
func NewNoOp(count int, changes childchange.Change) Mark {
	return Mark{Count: count, Effect: NoOpEffect{}, Changes: changes}
}

// NewTombstone builds a Tombstone mark witnessing count empty cells.
func NewTombstone(count int, ref cell.Ref) Mark {
	return Mark{Count: count, Effect: TombstoneEffect{}, Cell: &ref}
}
