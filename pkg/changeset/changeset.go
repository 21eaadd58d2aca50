// Package changeset implements the RLE mark list (spec §3's Changeset),
// its append-time merging factory, and the two-queue alignment walk that
// compose and rebase share (spec §4.1, §4.2).
package changeset

import (
	"fmt"

	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
)

// Changeset is an ordered list of marks forming the RLE sequence over a
// single field, per spec §3. The zero value is the empty changeset.
type Changeset struct {
	Marks []mark.Mark
}

// Empty returns the changeset with no marks.
func Empty() Changeset { return Changeset{} }

// IsEmpty reports whether the changeset has no marks (equivalently, its
// normalized form under compose/rebase's equality-after-normalization is
// the identity element).
func (c Changeset) IsEmpty() bool { return len(c.Marks) == 0 }

// CellCount sums the Count of every mark; useful for sanity-checking that
// two changesets being composed/rebased cover the same field length where
// that is expected to hold (the operators themselves never assume this —
// compose and rebase explicitly handle changesets of different lengths
// when one change only touches a prefix of the other's field).
func (c Changeset) CellCount() int {
	n := 0
	for _, m := range c.Marks {
		n += m.Count
	}
	return n
}

// Clone copies the changeset's mark slice, so replacing or appending
// marks in the copy does not affect the original. Each Mark is copied by
// value: its Cell pointer, its effect's pointer fields and its child
// change are shared with the original, not deep-copied (marks are conceptually
// immutable in the public API, but Clone exists so internal builders can
// reuse the type without violating that from inside this package either).
func (c Changeset) Clone() Changeset {
	out := Changeset{Marks: make([]mark.Mark, len(c.Marks))}
	copy(out.Marks, c.Marks)
	return out
}

// Validate checks every per-mark structural invariant (spec §3 invariants
// 1, 3, 4) and the cross-mark merge invariant (2): no two adjacent marks
// should have merged under TryMerge. It does not check invariant 5
// (move-endpoint pairing), which can only be checked with the
// cross-field manager's global view across changesets.
func (c Changeset) Validate() error {
	for i, m := range c.Marks {
		if err := m.Validate(); err != nil {
			return err
		}
		if i > 0 {
			if _, merges := mark.TryMerge(c.Marks[i-1], m); merges {
				return preconditionErrorf("changeset invariant 2 violated: marks %d and %d should have merged", i-1, i)
			}
		}
	}
	return nil
}

type preconditionError string

func (e preconditionError) Error() string { return string(e) }

func preconditionErrorf(format string, args ...any) error {
	return preconditionError(fmt.Sprintf(format, args...))
}

// TaggedChange pairs a Changeset with the revision it was minted for (or
// is about to be rebased/composed into) and, for an inverse, the
// revision it is a rollback of — spec §6.
type TaggedChange struct {
	Change     Changeset
	Revision   *revision.Revision
	RollbackOf *revision.Revision
}

// Tag wraps a changeset as a TaggedChange carrying the given revision.
func Tag(c Changeset, r revision.Revision) TaggedChange {
	return TaggedChange{Change: c, Revision: &r}
}

// TagRollback wraps a changeset as a TaggedChange carrying the given
// revision, recording that it is a rollback of source.
func TagRollback(c Changeset, r, source revision.Revision) TaggedChange {
	return TaggedChange{Change: c, Revision: &r, RollbackOf: &source}
}
