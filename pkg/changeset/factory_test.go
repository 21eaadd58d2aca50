package changeset_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryMergesAdjacentMarksOnPush(t *testing.T) {
	f := changeset.NewFactory()
	f.Push(mark.Mark{Count: 1, Effect: mark.NoOpEffect{}})
	f.Push(mark.Mark{Count: 1, Effect: mark.NoOpEffect{}})
	f.Push(mark.Mark{Count: 1, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}})
	out := f.Finish()
	require.Len(t, out.Marks, 2)
	assert.Equal(t, 2, out.Marks[0].Count)
}

func TestFactoryDropsZeroCountMarks(t *testing.T) {
	f := changeset.NewFactory()
	f.Push(mark.Mark{Count: 0, Effect: mark.NoOpEffect{}})
	f.Push(mark.Mark{Count: 1, Effect: mark.NoOpEffect{}})
	out := f.Finish()
	assert.Len(t, out.Marks, 1)
}

func TestDropRedundantTombstonesKeepsUniqueWitnesses(t *testing.T) {
	refA := cell.Ref{ID: cell.ID{Revision: "r1", Local: 0}}
	refB := cell.Ref{ID: cell.ID{Revision: "r1", Local: 1}}
	c := changeset.Changeset{Marks: []mark.Mark{
		{Count: 1, Effect: mark.TombstoneEffect{}, Cell: &refA},
		{Count: 1, Effect: mark.RemoveEffect{ID: refB.ID.Atom()}, Cell: nil},
	}}
	// Manually mark refB as also witnessed by a tombstone: build a
	// changeset where the tombstone for refA has no later non-tombstone
	// reference and so must survive, while one for refB's cell would be
	// dropped because a later Remove mark names that same cell.
	withDupe := changeset.Changeset{Marks: []mark.Mark{
		{Count: 1, Effect: mark.TombstoneEffect{}, Cell: &refB},
		{Count: 1, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "rX", Local: 0}}, Cell: &refB},
	}}
	out := changeset.DropRedundantTombstones(withDupe)
	require.Len(t, out.Marks, 1, "the tombstone witnessing refB should be dropped since Remove also references refB")
	assert.Equal(t, mark.Tombstone, func() mark.Kind {
		for _, m := range changeset.DropRedundantTombstones(c).Marks {
			if m.Effect.Kind() == mark.Tombstone {
				return m.Effect.Kind()
			}
		}
		return mark.NoOp
	}())
}
