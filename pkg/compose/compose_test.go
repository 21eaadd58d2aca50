package compose_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/compose"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagged(rev revision.Revision, marks ...mark.Mark) changeset.TaggedChange {
	return changeset.Tag(changeset.Changeset{Marks: marks}, rev)
}

func TestComposeEmptyListReturnsEmpty(t *testing.T) {
	out := compose.Compose(nil, revision.NewTable(), nil)
	assert.True(t, out.IsEmpty())
}

func TestComposeSingletonListReturnsSameChange(t *testing.T) {
	md := revision.NewTable("r1")
	tc := tagged("r1", mark.Mark{Count: 2, Effect: mark.NoOpEffect{}})
	out := compose.Compose([]changeset.TaggedChange{tc}, md, nil)
	assert.Equal(t, tc.Change.Marks, out.Marks)
}

// Transient insert+remove: insert(0,2,id:0) ∘ remove(0,2) yields a single
// AttachAndDetach(Insert, Remove) of count 2 (spec §8 concrete scenario).
func TestComposeInsertThenRemoveYieldsAttachAndDetach(t *testing.T) {
	md := revision.NewTable("rI", "rR")
	base := tagged("rI", mark.Mark{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "rI", Local: 0}}})
	next := tagged("rR", mark.Mark{Count: 2, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "rR", Local: 0}}})
	out := compose.Two(base, next, md, nil)
	require.Len(t, out.Marks, 1)
	assert.Equal(t, mark.AttachAndDetach, out.Marks[0].Effect.Kind())
	assert.Equal(t, 2, out.Marks[0].Count)
	ad := out.Marks[0].Effect.(mark.AttachAndDetachEffect)
	assert.Equal(t, mark.Insert, ad.Attach.Kind())
	assert.Equal(t, mark.Remove, ad.Detach.Kind())
}

// Remove across inserts: three inserts of 2 nodes followed by
// remove(1,4) yields five output marks alternating retained inserts and
// AttachAndDetach(Insert, Remove) of the covered sub-runs.
func TestComposeRemoveAcrossInserts(t *testing.T) {
	md := revision.NewTable("rI1", "rI2", "rI3", "rR")
	base := changeset.Tag(changeset.Changeset{Marks: []mark.Mark{
		{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "rI1", Local: 0}}},
		{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "rI2", Local: 0}}},
		{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "rI3", Local: 0}}},
	}}, "rI1")
	next := tagged("rR",
		mark.Mark{Count: 1, Effect: mark.NoOpEffect{}},
		mark.Mark{Count: 4, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "rR", Local: 0}}},
		mark.Mark{Count: 1, Effect: mark.NoOpEffect{}},
	)
	out := compose.Two(base, next, md, nil)
	require.Len(t, out.Marks, 5)
	assert.Equal(t, mark.Insert, out.Marks[0].Effect.Kind())
	assert.Equal(t, 1, out.Marks[0].Count)
	assert.Equal(t, mark.AttachAndDetach, out.Marks[1].Effect.Kind())
	assert.Equal(t, 1, out.Marks[1].Count)
	assert.Equal(t, mark.AttachAndDetach, out.Marks[2].Effect.Kind())
	assert.Equal(t, 2, out.Marks[2].Count)
	assert.Equal(t, mark.AttachAndDetach, out.Marks[3].Effect.Kind())
	assert.Equal(t, 1, out.Marks[3].Count)
	assert.Equal(t, mark.Insert, out.Marks[4].Effect.Kind())
	assert.Equal(t, 1, out.Marks[4].Count)
}

func TestComposeNoOpThenRemoveYieldsRemove(t *testing.T) {
	md := revision.NewTable("r0", "rR")
	base := tagged("r0", mark.Mark{Count: 1, Effect: mark.NoOpEffect{}})
	next := tagged("rR", mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "rR", Local: 0}}})
	out := compose.Two(base, next, md, nil)
	require.Len(t, out.Marks, 1)
	assert.Equal(t, mark.Remove, out.Marks[0].Effect.Kind())
}

// Remove ∘ Revive of the exact detached cell, with no rollback tag,
// leaves a tombstone witness rather than collapsing to NoOp (spec §4.4).
func TestComposeRemoveThenReviveWithoutRollbackYieldsTombstone(t *testing.T) {
	md := revision.NewTable("rA", "rB")
	removeID := revision.AtomID{Revision: "rA", Local: 0}
	base := tagged("rA", mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: removeID}})
	ref := cell.Ref{ID: cell.FromAtom(removeID)}
	next := tagged("rB", mark.Mark{Count: 1, Cell: &ref, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "rB", Local: 0}}})
	out := compose.Two(base, next, md, nil)
	require.Len(t, out.Marks, 1)
	assert.Equal(t, mark.Tombstone, out.Marks[0].Effect.Kind())
}

// TestComposeIsAssociative is spec §8's associativity law: composing three
// changes left-to-right or right-to-left must agree. a inserts, b is an
// untouched no-op, c removes the same cells a inserted — both groupings
// collapse to the single transient AttachAndDetach(Insert, Remove).
func TestComposeIsAssociative(t *testing.T) {
	md := revision.NewTable("r1", "r2", "r3")
	a := tagged("r1", mark.Mark{Count: 3, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}})
	b := tagged("r2", mark.Mark{Count: 3, Effect: mark.NoOpEffect{}})
	c := tagged("r3", mark.Mark{Count: 3, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "r3", Local: 0}}})

	ab := compose.Two(a, b, md, nil)
	leftFirst := compose.Two(changeset.Tag(ab, "r1"), c, md, nil)

	bc := compose.Two(b, c, md, nil)
	rightFirst := compose.Two(a, changeset.Tag(bc, "r2"), md, nil)

	require.Len(t, leftFirst.Marks, 1)
	assert.Equal(t, leftFirst.Marks, rightFirst.Marks)
	assert.Equal(t, mark.AttachAndDetach, leftFirst.Marks[0].Effect.Kind())
	ad := leftFirst.Marks[0].Effect.(mark.AttachAndDetachEffect)
	assert.Equal(t, mark.Insert, ad.Attach.Kind())
	assert.Equal(t, mark.Remove, ad.Detach.Kind())
}

func TestComposeChildChangesAreComposed(t *testing.T) {
	md := revision.NewTable("r0", "r1")
	base := tagged("r0", mark.Mark{Count: 1, Effect: mark.NoOpEffect{}, Changes: "a"})
	next := tagged("r1", mark.Mark{Count: 1, Effect: mark.NoOpEffect{}, Changes: "b"})
	called := false
	out := compose.Two(base, next, md, func(a, b any) any {
		called = true
		return a.(string) + b.(string)
	})
	require.Len(t, out.Marks, 1)
	assert.True(t, called)
	assert.Equal(t, "ab", out.Marks[0].Changes)
}
