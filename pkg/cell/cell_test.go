package cell_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
)

func TestRefCloneIsIndependent(t *testing.T) {
	orig := cell.Ref{
		ID:      cell.ID{Revision: "r1", Local: 0},
		Lineage: []cell.LineageRecord{{Revision: "rA", ID: 0, Count: 4, Offset: 1}},
	}
	clone := orig.Clone()
	clone.Lineage[0].Offset = 99
	assert.Equal(t, 1, orig.Lineage[0].Offset, "clone must not alias the original slice")
}

func TestWithOffsetShiftsLineage(t *testing.T) {
	r := cell.Ref{
		ID:      cell.ID{Revision: "r1", Local: 0},
		Lineage: []cell.LineageRecord{{Revision: "rA", ID: 0, Count: 4, Offset: 1}},
	}
	shifted := r.WithOffset(2)
	assert.Equal(t, revision.LocalID(2), shifted.ID.Local)
	assert.Equal(t, 3, shifted.Lineage[0].Offset)
}

func TestAdjacentRefs(t *testing.T) {
	a := cell.Ref{ID: cell.ID{Revision: "r1", Local: 0}}
	b := cell.Ref{ID: cell.ID{Revision: "r1", Local: 3}}
	assert.True(t, cell.AdjacentRefs(a, b, 3))
	assert.False(t, cell.AdjacentRefs(a, b, 2))

	c := cell.Ref{ID: cell.ID{Revision: "r2", Local: 3}}
	assert.False(t, cell.AdjacentRefs(a, c, 3))
}

func TestMergeLineageDedupes(t *testing.T) {
	a := []cell.LineageRecord{{Revision: "rA", ID: 0, Count: 2, Offset: 0}}
	b := []cell.LineageRecord{{Revision: "rA", ID: 0, Count: 2, Offset: 0}, {Revision: "rB", ID: 5, Count: 1, Offset: 0}}
	merged := cell.MergeLineage(a, b)
	assert.Len(t, merged, 2)
}
