// Package mark implements the mark model: spec §3's tagged union of mark
// effects plus the envelope fields every mark carries, and the merge/split
// rules of spec §4.1.
package mark

import "github.com/kasuganosora/seqfield/pkg/revision"

// Kind discriminates the effect variants. There are eight, matching the
// "tagged union over ~8 effect variants" design note (spec §9): NoOp,
// Insert, Remove, MoveOut, MoveIn, AttachAndDetach, Tombstone, Pin.
//
// Revive is not a distinct Kind: it is an Insert effect whose mark carries
// a non-nil Cell (attaching back into a cell with a known prior
// identity) rather than a brand-new one. This mirrors how spec §3 defines
// CellID presence ("optional cellId... present iff the mark's input cells
// are empty") as an envelope field shared by every attach-like effect,
// not a property of a separate variant.
type Kind int

const (
	NoOp Kind = iota
	Insert
	Remove
	MoveOut
	MoveIn
	AttachAndDetach
	Tombstone
	Pin
)

func (k Kind) String() string {
	switch k {
	case NoOp:
		return "NoOp"
	case Insert:
		return "Insert"
	case Remove:
		return "Remove"
	case MoveOut:
		return "MoveOut"
	case MoveIn:
		return "MoveIn"
	case AttachAndDetach:
		return "AttachAndDetach"
	case Tombstone:
		return "Tombstone"
	case Pin:
		return "Pin"
	default:
		return "Unknown"
	}
}

// Effect is the per-mark payload. Every concrete effect type below
// implements it; callers type-switch on Kind() to recover the concrete
// type (Go has no closed sum types, so this is the idiomatic substitute —
// see spec §9's "sum type plus an envelope record" design note).
type Effect interface {
	Kind() Kind
	// clone deep-copies the effect so split/merge never alias atom-ID
	// pointer fields (FinalEndpoint, IDOverride) between results.
	clone() Effect
}

// NoOpEffect skips the covered cells, or carries only a child
// modification.
type NoOpEffect struct{}

func (NoOpEffect) Kind() Kind   { return NoOp }
func (e NoOpEffect) clone() Effect { return e }

// InsertEffect attaches new content to a range of cells. ID is the atom ID
// of the attach; for a run of Count cells it names atoms
// ID.Local..ID.Local+Count-1.
type InsertEffect struct {
	ID revision.AtomID
}

func (InsertEffect) Kind() Kind      { return Insert }
func (e InsertEffect) clone() Effect { return e }

// RemoveEffect detaches content from populated cells. IDOverride, when
// set, is the atom ID this detach must re-use because it is known to be
// the inverse of an earlier detach (spec §3, "id override").
type RemoveEffect struct {
	ID         revision.AtomID
	IDOverride *revision.AtomID
}

func (RemoveEffect) Kind() Kind { return Remove }
func (e RemoveEffect) clone() Effect {
	if e.IDOverride != nil {
		ov := *e.IDOverride
		e.IDOverride = &ov
	}
	return e
}

// MoveOutEffect detaches content that is reattached elsewhere by a paired
// MoveInEffect carrying the same atom ID. FinalEndpoint, when the move has
// been chained across multiple compositions, names the atom ID of the
// move's ultimate destination (spec §4.4, "move endpoint chaining").
type MoveOutEffect struct {
	ID            revision.AtomID
	FinalEndpoint *revision.AtomID
	IDOverride    *revision.AtomID
}

func (MoveOutEffect) Kind() Kind { return MoveOut }
func (e MoveOutEffect) clone() Effect {
	if e.FinalEndpoint != nil {
		fe := *e.FinalEndpoint
		e.FinalEndpoint = &fe
	}
	if e.IDOverride != nil {
		ov := *e.IDOverride
		e.IDOverride = &ov
	}
	return e
}

// MoveInEffect attaches content detached by a paired MoveOutEffect.
type MoveInEffect struct {
	ID            revision.AtomID
	FinalEndpoint *revision.AtomID
}

func (MoveInEffect) Kind() Kind { return MoveIn }
func (e MoveInEffect) clone() Effect {
	if e.FinalEndpoint != nil {
		fe := *e.FinalEndpoint
		e.FinalEndpoint = &fe
	}
	return e
}

// AttachAndDetachEffect is a transient: an attach immediately followed by
// a detach on the same cells, produced when composing an insert with a
// remove of the same content. Attach must be Insert or MoveIn-shaped;
// Detach must be Remove or MoveOut-shaped.
type AttachAndDetachEffect struct {
	Attach Effect
	Detach Effect
}

func (AttachAndDetachEffect) Kind() Kind { return AttachAndDetach }
func (e AttachAndDetachEffect) clone() Effect {
	e.Attach = e.Attach.clone()
	e.Detach = e.Detach.clone()
	return e
}

// TombstoneEffect is a pure witness that the covered cells exist and are
// empty; it carries no side effect and exists only to preserve lineage
// ordering information across compositions.
type TombstoneEffect struct{}

func (TombstoneEffect) Kind() Kind   { return Tombstone }
func (e TombstoneEffect) clone() Effect { return e }

// PinEffect is a revive whose outcome is not yet known: if, by the time it
// is resolved, the target cell turns out to be populated, it collapses to
// NoOp (keeping only its child change); if the target is still empty, it
// re-detaches via ID (spec §4.5's Pin row, and glossary).
type PinEffect struct {
	ID revision.AtomID
}

func (PinEffect) Kind() Kind   { return Pin }
func (e PinEffect) clone() Effect { return e }

// IsAttachLike reports whether an effect's input cells are empty (the
// attach side of spec §3 invariant 4): Insert, MoveIn, and Pin attach-like
// (Pin's target cells are nominally empty-or-populated, treated as
// empty-input for alignment purposes until resolved), and the Attach half
// of an AttachAndDetach.
func IsAttachLike(e Effect) bool {
	switch e.Kind() {
	case Insert, MoveIn, Pin:
		return true
	default:
		return false
	}
}

// IsDetachLike reports whether an effect's output cells are empty: Remove
// and MoveOut, and the Detach half of an AttachAndDetach.
func IsDetachLike(e Effect) bool {
	switch e.Kind() {
	case Remove, MoveOut:
		return true
	default:
		return false
	}
}
