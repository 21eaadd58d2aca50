package mark_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, m mark.Mark, k int) {
	t.Helper()
	first, second := mark.Split(m, k)
	assert.Equal(t, k, first.Count)
	assert.Equal(t, m.Count-k, second.Count)
	merged, ok := mark.TryMerge(first, second)
	require.True(t, ok, "split halves must remerge")
	assert.Equal(t, m.Count, merged.Count)
	assert.Equal(t, m.Effect.Kind(), merged.Effect.Kind())
}

func TestSplitMergeRoundTripInsert(t *testing.T) {
	ref := cell.Ref{ID: cell.ID{Revision: "r1", Local: 0}}
	m := mark.Mark{Count: 5, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "rI", Local: 0}}, Cell: &ref}
	for k := 1; k < 5; k++ {
		roundTrip(t, m, k)
	}
}

func TestSplitMergeRoundTripRemoveWithIDOverride(t *testing.T) {
	ov := revision.AtomID{Revision: "rOrig", Local: 10}
	m := mark.Mark{Count: 4, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "rR", Local: 0}, IDOverride: &ov}}
	for k := 1; k < 4; k++ {
		roundTrip(t, m, k)
	}
}

func TestSplitMergeRoundTripMoveOutWithFinalEndpoint(t *testing.T) {
	fe := revision.AtomID{Revision: "rDest", Local: 100}
	m := mark.Mark{Count: 3, Effect: mark.MoveOutEffect{ID: revision.AtomID{Revision: "rM", Local: 0}, FinalEndpoint: &fe}}
	for k := 1; k < 3; k++ {
		roundTrip(t, m, k)
	}
}

func TestSplitPanicsOnOutOfRangeK(t *testing.T) {
	m := mark.Mark{Count: 2, Effect: mark.NoOpEffect{}}
	assert.Panics(t, func() { mark.Split(m, 0) })
	assert.Panics(t, func() { mark.Split(m, 2) })
}

func TestSplitOffsetsFinalEndpointForSecondHalf(t *testing.T) {
	fe := revision.AtomID{Revision: "rDest", Local: 100}
	m := mark.Mark{Count: 3, Effect: mark.MoveOutEffect{ID: revision.AtomID{Revision: "rM", Local: 0}, FinalEndpoint: &fe}}
	_, second := mark.Split(m, 1)
	got := second.Effect.(mark.MoveOutEffect).FinalEndpoint
	require.NotNil(t, got)
	assert.Equal(t, revision.AtomID{Revision: "rDest", Local: 101}, *got)
}
