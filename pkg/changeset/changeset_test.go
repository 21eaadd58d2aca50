package changeset_test

import (
	"testing"

	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyChangesetIsEmpty(t *testing.T) {
	assert.True(t, changeset.Empty().IsEmpty())
}

func TestCellCountSumsMarks(t *testing.T) {
	c := changeset.Changeset{Marks: []mark.Mark{
		{Count: 2, Effect: mark.NoOpEffect{}},
		{Count: 3, Effect: mark.RemoveEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}},
	}}
	assert.Equal(t, 5, c.CellCount())
}

func TestValidateCatchesUnmergedAdjacentMarks(t *testing.T) {
	c := changeset.Changeset{Marks: []mark.Mark{
		{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}},
		{Count: 1, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "r1", Local: 2}}},
	}}
	assert.Error(t, c.Validate(), "these two marks should have been merged into one")
}

func TestValidatePassesOnMergedChangeset(t *testing.T) {
	f := changeset.NewFactory()
	f.Push(mark.Mark{Count: 2, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "r1", Local: 0}}})
	f.Push(mark.Mark{Count: 1, Effect: mark.InsertEffect{ID: revision.AtomID{Revision: "r1", Local: 2}}})
	c := f.Finish()
	require.Len(t, c.Marks, 1)
	assert.NoError(t, c.Validate())
}

func TestCloneDoesNotAliasMarks(t *testing.T) {
	c := changeset.Changeset{Marks: []mark.Mark{{Count: 1, Effect: mark.NoOpEffect{}}}}
	clone := c.Clone()
	clone.Marks[0] = mark.Mark{Count: 5, Effect: mark.NoOpEffect{}}
	assert.Equal(t, 1, c.Marks[0].Count)
}
