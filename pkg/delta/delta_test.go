package delta_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/compose"
	"github.com/kasuganosora/seqfield/pkg/delta"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagged(rev revision.Revision, marks ...mark.Mark) changeset.TaggedChange {
	return changeset.Tag(changeset.Changeset{Marks: marks}, rev)
}

func TestIntoDeltaInsertProducesBuildAndAttach(t *testing.T) {
	id := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 2, Effect: mark.InsertEffect{ID: id}})
	d := delta.IntoDelta(tc, nil)
	require.Len(t, d.Local, 1)
	require.NotNil(t, d.Local[0].Attach)
	assert.Equal(t, id, *d.Local[0].Attach)
	assert.True(t, d.Build[id])
	assert.True(t, d.Build[id.Plus(1)])
}

func TestIntoDeltaRemoveProducesDetach(t *testing.T) {
	id := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: id}})
	d := delta.IntoDelta(tc, nil)
	require.Len(t, d.Local, 1)
	require.NotNil(t, d.Local[0].Detach)
	assert.Equal(t, id, *d.Local[0].Detach)
}

func TestIntoDeltaTombstoneProducesNoDelta(t *testing.T) {
	ref := cell.Ref{ID: cell.ID{Revision: "r0", Local: 0}}
	tc := tagged("r1", mark.Mark{Count: 1, Cell: &ref, Effect: mark.TombstoneEffect{}})
	d := delta.IntoDelta(tc, nil)
	assert.Empty(t, d.Local)
}

func TestIntoDeltaMoveProducesMatchingAttachDetach(t *testing.T) {
	id := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1",
		mark.Mark{Count: 1, Effect: mark.MoveOutEffect{ID: id}},
		mark.Mark{Count: 1, Effect: mark.MoveInEffect{ID: id}},
	)
	d := delta.IntoDelta(tc, nil)
	require.Len(t, d.Local, 2)
	assert.Equal(t, id, *d.Local[0].Detach)
	assert.Equal(t, id, *d.Local[1].Attach)
}

func TestIntoDeltaMoveWithDifferentFinalEndpointEmitsRename(t *testing.T) {
	id := revision.AtomID{Revision: "r1", Local: 0}
	final := revision.AtomID{Revision: "r2", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.MoveOutEffect{ID: id, FinalEndpoint: &final}})
	d := delta.IntoDelta(tc, nil)
	require.Len(t, d.Renames, 1)
	assert.Equal(t, id, d.Renames[0].OldID)
	assert.Equal(t, final, d.Renames[0].NewID)
}

func TestIntoDeltaAttachAndDetachOfInsertEmitsBuildAndRename(t *testing.T) {
	attachID := revision.AtomID{Revision: "r1", Local: 0}
	detachID := revision.AtomID{Revision: "r2", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.AttachAndDetachEffect{
		Attach: mark.InsertEffect{ID: attachID},
		Detach: mark.RemoveEffect{ID: detachID},
	}})
	d := delta.IntoDelta(tc, nil)
	assert.True(t, d.Build[attachID])
	require.Len(t, d.Renames, 1)
	assert.Equal(t, attachID, d.Renames[0].OldID)
	assert.Equal(t, detachID, d.Renames[0].NewID)
}

// TestIntoDeltaResolvesMultiHopFinalEndpointChain exercises the
// crossfield.Resolve wiring directly: a MoveOut whose finalEndpoint names
// a second MoveOut, which in turn names the true destination, must
// rename straight to the true destination rather than stopping at the
// intermediate hop.
func TestIntoDeltaResolvesMultiHopFinalEndpointChain(t *testing.T) {
	first := revision.AtomID{Revision: "r1", Local: 0}
	mid := revision.AtomID{Revision: "r2", Local: 0}
	last := revision.AtomID{Revision: "r3", Local: 0}
	tc := tagged("r1",
		mark.Mark{Count: 1, Effect: mark.MoveOutEffect{ID: first, FinalEndpoint: &mid}},
		mark.Mark{Count: 1, Effect: mark.MoveOutEffect{ID: mid, FinalEndpoint: &last}},
	)
	d := delta.IntoDelta(tc, nil)
	require.Len(t, d.Renames, 2)
	assert.Equal(t, first, d.Renames[0].OldID)
	assert.Equal(t, last, d.Renames[0].NewID)
	assert.Equal(t, mid, d.Renames[1].OldID)
	assert.Equal(t, last, d.Renames[1].NewID)
}

// TestIntoDeltaIsCommutativeOverDisjointComposedChanges is spec §8's
// delta-commutativity law: projecting compose([a, b]) must carry the same
// build/detach information as projecting a and b separately and merging,
// when a and b touch disjoint cells. a inserts at the first cell, b
// removes the second.
func TestIntoDeltaIsCommutativeOverDisjointComposedChanges(t *testing.T) {
	md := revision.NewTable("rA", "rB")
	insertID := revision.AtomID{Revision: "rA", Local: 0}
	removeID := revision.AtomID{Revision: "rB", Local: 0}
	a := tagged("rA",
		mark.Mark{Count: 1, Effect: mark.InsertEffect{ID: insertID}},
		mark.Mark{Count: 1, Effect: mark.NoOpEffect{}},
	)
	b := tagged("rB",
		mark.Mark{Count: 1, Effect: mark.NoOpEffect{}},
		mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: removeID}, Changes: "edit"},
	)

	composed := compose.Two(a, b, md, nil)
	composedDelta := delta.IntoDelta(changeset.Tag(composed, "rA"), func(c any) any { return c })

	aDelta := delta.IntoDelta(a, func(c any) any { return c })
	bDelta := delta.IntoDelta(b, func(c any) any { return c })

	mergedBuild := map[revision.AtomID]bool{}
	for id, v := range aDelta.Build {
		mergedBuild[id] = v
	}
	for id, v := range bDelta.Build {
		mergedBuild[id] = v
	}
	mergedGlobal := map[revision.AtomID]any{}
	for id, v := range aDelta.Global {
		mergedGlobal[id] = v
	}
	for id, v := range bDelta.Global {
		mergedGlobal[id] = v
	}

	assert.Equal(t, mergedBuild, composedDelta.Build)
	assert.Equal(t, mergedGlobal, composedDelta.Global)
}

func TestIntoDeltaChildChangeGoesToGlobalOnRemove(t *testing.T) {
	id := revision.AtomID{Revision: "r1", Local: 0}
	tc := tagged("r1", mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: id}, Changes: "edit"})
	d := delta.IntoDelta(tc, func(c any) any { return c })
	assert.Equal(t, "edit", d.Global[id])
}
