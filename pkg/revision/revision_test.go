package revision_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomIDAdjacency(t *testing.T) {
	a := revision.AtomID{Revision: "r1", Local: 0}
	b := revision.AtomID{Revision: "r1", Local: 3}
	assert.True(t, a.AdjacentTo(b, 3))
	assert.False(t, a.AdjacentTo(b, 2))

	c := revision.AtomID{Revision: "r2", Local: 3}
	assert.False(t, a.AdjacentTo(c, 3), "different revisions are never adjacent")
}

func TestAtomIDPlus(t *testing.T) {
	a := revision.AtomID{Revision: "r1", Local: 5}
	assert.Equal(t, revision.AtomID{Revision: "r1", Local: 8}, a.Plus(3))
}

func TestTableOrderAndRollback(t *testing.T) {
	tbl := revision.NewTable("r0", "r1", "r2")
	assert.Equal(t, -1, tbl.Compare("r0", "r1"))
	assert.Equal(t, 1, tbl.Compare("r2", "r1"))
	assert.Equal(t, 0, tbl.Compare("r1", "r1"))

	tbl.Append("r3")
	tbl.MarkRollback("r3", "r1")
	info, ok := tbl.Info("r3")
	require.True(t, ok)
	require.NotNil(t, info.RollbackOf)
	assert.Equal(t, revision.Revision("r1"), *info.RollbackOf)
}

func TestTableUnknownRevisionPanics(t *testing.T) {
	tbl := revision.NewTable("r0")
	assert.Panics(t, func() {
		tbl.Compare("r0", "unknown")
	})
}
