// Package revision defines the opaque revision and atom identifiers that
// name every attach/detach event in the change algebra. The core never
// compares revisions structurally — it always goes through a Metadata,
// which the caller supplies.
package revision

import "fmt"

// Revision is an opaque, comparable identifier minted by a caller outside
// this module (see cmd/fieldctl for a uuid-backed minter). The core treats
// it as an opaque key: it may be hashed and compared for equality, but its
// relative order is only ever obtained from a Metadata.
type Revision any

// LocalID is a per-revision dense identifier. Local IDs are assigned by the
// editor in increasing order within a single revision and are stable once
// minted.
type LocalID int64

// AtomID names a single attach or detach event: the pair (revision,
// localID). Two atom IDs are adjacent when they share a revision and the
// second's LocalID equals the first's LocalID plus a given count.
type AtomID struct {
	Revision Revision
	Local    LocalID
}

// String renders an atom ID for debug output and log fields.
func (a AtomID) String() string {
	return fmt.Sprintf("%v@%d", a.Revision, a.Local)
}

// Plus returns the atom ID offset by n local IDs within the same revision.
func (a AtomID) Plus(n LocalID) AtomID {
	return AtomID{Revision: a.Revision, Local: a.Local + n}
}

// AdjacentTo reports whether b immediately follows a, i.e. they share a
// revision and b.Local == a.Local + count.
func (a AtomID) AdjacentTo(b AtomID, count int) bool {
	return a.Revision == b.Revision && a.Local+LocalID(count) == b.Local
}

// Equal reports structural equality of two atom IDs.
func (a AtomID) Equal(b AtomID) bool {
	return a.Revision == b.Revision && a.Local == b.Local
}

// Info is the per-revision metadata a Metadata hands back: whether
// the revision is a rollback of another, and its position in the total
// order (used as a fast path by Compare implementations and by the
// cell-order oracle's fallback rule).
type Info struct {
	RollbackOf *Revision
	Index      int
}

// Metadata is the small trait the core requires from its caller: a lookup
// from revision to Info, and a total-order comparator. No globals — every
// operator call takes one of these explicitly.
type Metadata interface {
	// Info returns the recorded metadata for r, or ok=false if r is
	// unknown. No operator raises fielderrors.ErrMetadataMissing for an
	// unknown revision: the cell-order oracle treats it as giving no
	// order information (its Order reports ok=false).
	Info(r Revision) (info Info, ok bool)

	// Compare returns <0, 0, >0 as a sorts before, equals, or sorts after
	// b, consistently with revision-minting order. It must be a total
	// order over every revision the operators encounter in a given call.
	Compare(a, b Revision) int
}

// Table is a straightforward Metadata backed by an explicit ordered list of
// revisions, suitable for the editor demo and for tests. Real deployments
// typically back Metadata with a persisted revision log instead; the core
// is agnostic to how Metadata is implemented.
type Table struct {
	order map[Revision]int
	info  map[Revision]Info
	seq   []Revision
}

// NewTable builds a Table from revisions listed in their total order
// (oldest first).
func NewTable(ordered ...Revision) *Table {
	t := &Table{
		order: make(map[Revision]int, len(ordered)),
		info:  make(map[Revision]Info, len(ordered)),
		seq:   append([]Revision(nil), ordered...),
	}
	for i, r := range ordered {
		t.order[r] = i
		t.info[r] = Info{Index: i}
	}
	return t
}

// Append records a new revision as the newest in the order.
func (t *Table) Append(r Revision) {
	idx := len(t.seq)
	t.seq = append(t.seq, r)
	t.order[r] = idx
	t.info[r] = Info{Index: idx}
}

// MarkRollback records that r is a rollback of source; r must already be
// present (via Append) before calling this.
func (t *Table) MarkRollback(r Revision, source Revision) {
	info := t.info[r]
	src := source
	info.RollbackOf = &src
	t.info[r] = info
}

func (t *Table) Info(r Revision) (Info, bool) {
	info, ok := t.info[r]
	return info, ok
}

func (t *Table) Compare(a, b Revision) int {
	ia, oka := t.order[a]
	ib, okb := t.order[b]
	if !oka || !okb {
		panic(fmt.Sprintf("revision.Table: Compare called with unknown revision (a known=%v, b known=%v)", oka, okb))
	}
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

// Len reports how many revisions are recorded, mostly useful in tests.
func (t *Table) Len() int { return len(t.seq) }
