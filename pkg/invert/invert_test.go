package invert_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/invert"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagged(rev revision.Revision, marks ...mark.Mark) changeset.TaggedChange {
	return changeset.Tag(changeset.Changeset{Marks: marks}, rev)
}

func TestInvertInsertProducesRemoveWithIDOverride(t *testing.T) {
	tc := tagged("r1", mark.Mark{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}})
	out := invert.Invert(tc, false, "r2", nil)
	require.Len(t, out.Marks, 1)
	rm := out.Marks[0].Effect.(mark.RemoveEffect)
	require.NotNil(t, rm.IDOverride)
	assert.Equal(t, revision.AtomID{Revision: "r1", Local: 0}, *rm.IDOverride)
}

func TestInvertRemoveProducesInsertTargetingDetachedCells(t *testing.T) {
	did := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 3, Effect: mark.RemoveEffect{ID: did}})
	out := invert.Invert(tc, false, "r2", nil)
	require.Len(t, out.Marks, 1)
	require.NotNil(t, out.Marks[0].Cell)
	assert.Equal(t, cell.FromAtom(did), out.Marks[0].Cell.ID)
	assert.Equal(t, mark.Insert, out.Marks[0].Effect.Kind())
}

func TestInvertMoveOutProducesMoveInTargetingEmptiedCells(t *testing.T) {
	mid := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.MoveOutEffect{ID: mid}})
	out := invert.Invert(tc, false, "r2", nil)
	require.Len(t, out.Marks, 1)
	in := out.Marks[0].Effect.(mark.MoveInEffect)
	assert.Equal(t, mid, in.ID)
	require.NotNil(t, out.Marks[0].Cell)
	assert.Equal(t, cell.FromAtom(mid), out.Marks[0].Cell.ID)
}

func TestInvertMoveInProducesMoveOutWithIDOverride(t *testing.T) {
	mid := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.MoveInEffect{ID: mid}})
	out := invert.Invert(tc, false, "r2", nil)
	require.Len(t, out.Marks, 1)
	mo := out.Marks[0].Effect.(mark.MoveOutEffect)
	assert.Equal(t, mid, mo.ID)
	require.NotNil(t, mo.IDOverride)
	assert.Equal(t, mid, *mo.IDOverride)
}

func TestInvertTombstoneIsIdempotent(t *testing.T) {
	ref := cell.Ref{ID: cell.ID{Revision: "r0", Local: 0}}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.TombstoneEffect{}, Cell: &ref})
	out := invert.Invert(tc, false, "r2", nil)
	require.Len(t, out.Marks, 1)
	assert.Equal(t, mark.Tombstone, out.Marks[0].Effect.Kind())
}

func TestInvertRollbackInvertsTiebreak(t *testing.T) {
	did := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: did}, Tiebreak: mark.Left})
	out := invert.Invert(tc, true, "r2", nil)
	require.Len(t, out.Marks, 1)
	assert.Equal(t, mark.Right, out.Marks[0].Tiebreak)
}

func TestInvertPinRedetachesRecordedCell(t *testing.T) {
	ref := cell.Ref{ID: cell.ID{Revision: "r0", Local: 0}}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.PinEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}, Cell: &ref})
	out := invert.Invert(tc, false, "r2", nil)
	require.Len(t, out.Marks, 1)
	assert.Equal(t, mark.Remove, out.Marks[0].Effect.Kind())
	rm := out.Marks[0].Effect.(mark.RemoveEffect)
	require.NotNil(t, rm.IDOverride)
	assert.Equal(t, ref.ID.Atom(), *rm.IDOverride)
}
