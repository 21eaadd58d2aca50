package oracle_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/oracle"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
)

func TestOrderSameCellIsSame(t *testing.T) {
	o := oracle.New(oracle.ModeTombstone, revision.NewTable("a"))
	ref := cell.Ref{ID: cell.ID{Revision: "a", Local: 0}}
	ord, ok := o.Order(ref, ref)
	assert.True(t, ok)
	assert.Equal(t, oracle.Same, ord)
}

func TestOrderByTombstoneSequence(t *testing.T) {
	md := revision.NewTable("a")
	o := oracle.New(oracle.ModeTombstone, md)
	refA := cell.Ref{ID: cell.ID{Revision: "a", Local: 0}}
	refB := cell.Ref{ID: cell.ID{Revision: "a", Local: 1}}
	o.Index([]cell.Ref{refA, refB})

	ord, ok := o.Order(refA, refB)
	assert.True(t, ok)
	assert.Equal(t, oracle.Before, ord)

	ord, ok = o.Order(refB, refA)
	assert.True(t, ok)
	assert.Equal(t, oracle.After, ord)
}

func TestOrderByLineageSharedAnchor(t *testing.T) {
	md := revision.NewTable("a")
	o := oracle.New(oracle.ModeLineage, md)
	refA := cell.Ref{
		ID:      cell.ID{Revision: "a", Local: 0},
		Lineage: []cell.LineageRecord{{Revision: "base", ID: 0, Count: 2, Offset: 0}},
	}
	refB := cell.Ref{
		ID:      cell.ID{Revision: "a", Local: 1},
		Lineage: []cell.LineageRecord{{Revision: "base", ID: 0, Count: 2, Offset: 1}},
	}
	ord, ok := o.Order(refA, refB)
	assert.True(t, ok)
	assert.Equal(t, oracle.Before, ord)
}

func TestOrderFallsBackToRevisionOrder(t *testing.T) {
	md := revision.NewTable("r1", "r2")
	o := oracle.New(oracle.ModeLineage, md)
	refA := cell.Ref{ID: cell.ID{Revision: "r1", Local: 0}}
	refB := cell.Ref{ID: cell.ID{Revision: "r2", Local: 0}}
	ord, ok := o.Order(refA, refB)
	assert.True(t, ok)
	assert.Equal(t, oracle.Before, ord)
}

func TestOrderUnresolvedReturnsNotOk(t *testing.T) {
	md := revision.NewTable("a")
	o := oracle.New(oracle.ModeLineage, md)
	refA := cell.Ref{ID: cell.ID{Revision: "unknown1", Local: 0}}
	refB := cell.Ref{ID: cell.ID{Revision: "unknown2", Local: 0}}
	_, ok := o.Order(refA, refB)
	assert.False(t, ok)
}

func TestTiebreakOrderDefaultsLeftBeforeRight(t *testing.T) {
	assert.Equal(t, oracle.Before, oracle.TiebreakOrder(mark.Left, mark.Right))
	assert.Equal(t, oracle.After, oracle.TiebreakOrder(mark.Right, mark.Left))
	assert.Equal(t, oracle.Same, oracle.TiebreakOrder(mark.Left, mark.Left))
}

func TestSortRefsOrdersByTombstoneSequence(t *testing.T) {
	md := revision.NewTable("a")
	o := oracle.New(oracle.ModeTombstone, md)
	refA := cell.Ref{ID: cell.ID{Revision: "a", Local: 0}}
	refB := cell.Ref{ID: cell.ID{Revision: "a", Local: 1}}
	o.Index([]cell.Ref{refA, refB})
	sorted := oracle.SortRefs(o, []cell.Ref{refB, refA})
	assert.Equal(t, refA.ID, sorted[0].ID)
	assert.Equal(t, refB.ID, sorted[1].ID)
}
