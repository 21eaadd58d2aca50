// Package cell models the identity of empty slots in a field: cell IDs,
// lineage records, and the adjacent-cells hint, per spec §3.
package cell

import "github.com/kasuganosora/seqfield/pkg/revision"

// ID is the stable identity a cell acquires the moment it is emptied: the
// atom ID of the detach that emptied it. A cell created by an attach that
// is never later detached has no ID until someone detaches it — callers
// represent "no ID yet" with a nil *ID on the mark, not a zero ID.
type ID struct {
	Revision revision.Revision
	Local    revision.LocalID
}

// Atom converts a cell ID to the atom ID of the detach that created it.
func (c ID) Atom() revision.AtomID {
	return revision.AtomID{Revision: c.Revision, Local: c.Local}
}

// FromAtom builds a cell ID from the atom ID of the detach that emptied it.
func FromAtom(a revision.AtomID) ID {
	return ID{Revision: a.Revision, Local: a.Local}
}

// Equal reports structural equality.
func (c ID) Equal(o ID) bool {
	return c.Revision == o.Revision && c.Local == o.Local
}

// Plus offsets a cell ID by n cells within the same detach's run.
func (c ID) Plus(n int) ID {
	return ID{Revision: c.Revision, Local: c.Local + revision.LocalID(n)}
}

// LineageRecord states "among the Count cells named by (Revision,
// ID+0..ID+Count-1), this cell sits at Offset" (0 <= Offset <= Count).
// Multiple records coexist on one cell reference when the cell has been
// observed across several revisions; the cell-order oracle walks the set
// looking for a shared anchor revision between two references.
type LineageRecord struct {
	Revision revision.Revision
	ID       revision.LocalID
	Count    int
	Offset   int
}

// covers reports whether localID names one of the Count cells this record
// anchors (used when merging/splitting lineage during mark split).
func (l LineageRecord) covers(id revision.LocalID) bool {
	return id >= l.ID && id < l.ID+revision.LocalID(l.Count)
}

// AdjacentHint optionally records the contiguous run of cell IDs named by
// the revision that produced a cell reference, enabling O(1) merging of
// same-revision references without consulting lineage.
type AdjacentHint struct {
	Revision revision.Revision
	ID       revision.LocalID
	Count    int
}

// Ref is everything a mark needs to describe an empty cell it refers to:
// the cell's stable ID plus whatever lineage/adjacency metadata has been
// accumulated about its position relative to other empty cells.
type Ref struct {
	ID       ID
	Lineage  []LineageRecord
	Adjacent *AdjacentHint
}

// Clone deep-copies a Ref so that splitting/merging marks never aliases
// lineage slices between the resulting marks (ownership rule in spec §3).
func (r Ref) Clone() Ref {
	out := Ref{ID: r.ID}
	if len(r.Lineage) > 0 {
		out.Lineage = append([]LineageRecord(nil), r.Lineage...)
	}
	if r.Adjacent != nil {
		h := *r.Adjacent
		out.Adjacent = &h
	}
	return out
}

// WithOffset returns a copy of the ref naming the cell n positions after
// this one, adjusting any lineage records and the adjacency hint that
// cover the shifted-to position. Used by splitMark.
func (r Ref) WithOffset(n int) Ref {
	out := Ref{ID: r.ID.Plus(n)}
	for _, lr := range r.Lineage {
		shifted := lr
		if lr.covers(r.ID.Local) {
			// The lineage record anchors cells named by a single
			// detach event; an offset within the same cell-ID run
			// shifts the offset and ID together so the record still
			// names the correct absolute cell.
			shifted.Offset += n
		}
		out.Lineage = append(out.Lineage, shifted)
	}
	if r.Adjacent != nil && n < r.Adjacent.Count {
		h := AdjacentHint{Revision: r.Adjacent.Revision, ID: r.Adjacent.ID + revision.LocalID(n), Count: r.Adjacent.Count - n}
		out.Adjacent = &h
	}
	return out
}

// MergeLineage unions two lineage record sets for a Tombstone produced
// when an aligned pair yields no effect but both sides carried ordering
// information that must be preserved (spec §4.4 "tombstone preservation").
func MergeLineage(a, b []LineageRecord) []LineageRecord {
	if len(a) == 0 {
		return append([]LineageRecord(nil), b...)
	}
	if len(b) == 0 {
		return append([]LineageRecord(nil), a...)
	}
	seen := make(map[LineageRecord]bool, len(a)+len(b))
	out := make([]LineageRecord, 0, len(a)+len(b))
	for _, lr := range a {
		if !seen[lr] {
			seen[lr] = true
			out = append(out, lr)
		}
	}
	for _, lr := range b {
		if !seen[lr] {
			seen[lr] = true
			out = append(out, lr)
		}
	}
	return out
}

// AdjacentRefs reports whether two refs are adjacent in the same-revision
// sense the mark-merge rule requires: same revision, second's cell ID
// immediately follows the first's run of count cells, and (when present)
// lineage is identical on both sides.
func AdjacentRefs(a, b Ref, count int) bool {
	if a.ID.Revision != b.ID.Revision {
		return false
	}
	if a.ID.Local+revision.LocalID(count) != b.ID.Local {
		return false
	}
	return lineageEqual(a.Lineage, b.Lineage) && adjacentHintEqual(a.Adjacent, b.Adjacent, count)
}

func lineageEqual(a, b []LineageRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func adjacentHintEqual(a, b *AdjacentHint, count int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Revision == b.Revision && a.ID+revision.LocalID(count) == b.ID
}
