// Package editor implements the minimal surface the core exposes for
// building changes (spec §6): insert, remove, move, revive, modify. It is
// a thin collaborator — every method just appends a correctly-shaped mark
// via changeset.Factory, minting local IDs in increasing order within the
// revision being built, per spec §3's Local ID definition.
package editor

import (
	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/childchange"
	"github.com/kasuganosora/seqfield/pkg/fielderrors"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
)

// Editor accumulates marks for a single field across one revision. Every
// position argument is a gap: the number of untouched cells between the
// end of the previous edit (or the start of the field, for the first
// edit) and this one, emitted as a NoOp mark. The editor does not track
// absolute indices or the field's length, so callers issuing several
// edits compute each gap themselves (the factory handles merging).
type Editor struct {
	revision revision.Revision
	next     revision.LocalID
	body     *changeset.Factory
}

// New starts an editor for revision r.
func New(r revision.Revision) *Editor {
	return &Editor{revision: r, body: changeset.NewFactory()}
}

// mintID allocates count consecutive local IDs and returns the atom ID of
// the first.
func (e *Editor) mintID(count int) revision.AtomID {
	id := revision.AtomID{Revision: e.revision, Local: e.next}
	e.next += revision.LocalID(count)
	return id
}

// gap emits a NoOp mark of count cells so that index-based edits compose
// into a single changeset covering the whole field rather than only the
// edited ranges; skip covers untouched cells between this edit and the
// previous one.
func (e *Editor) gap(skip int) {
	if skip > 0 {
		e.body.Push(mark.NewNoOp(skip, nil))
	}
}

// Insert attaches count brand-new nodes after precedingGap untouched
// cells, named by a single atom ID whose local IDs run id.Local..id.Local+count-1.
func (e *Editor) Insert(precedingGap, count int, tiebreak mark.Tiebreak) revision.AtomID {
	if count <= 0 {
		fielderrors.Panic(fielderrors.NewErrPrecondition("editor.Insert: count must be positive"))
	}
	e.gap(precedingGap)
	id := e.mintID(count)
	e.body.Push(mark.Mark{Count: count, Effect: mark.InsertEffect{ID: id}, Tiebreak: tiebreak})
	return id
}

// Remove detaches count populated cells that follow precedingGap
// untouched cells.
func (e *Editor) Remove(precedingGap, count int) revision.AtomID {
	if count <= 0 {
		fielderrors.Panic(fielderrors.NewErrPrecondition("editor.Remove: count must be positive"))
	}
	e.gap(precedingGap)
	id := e.mintID(count)
	e.body.Push(mark.Mark{Count: count, Effect: mark.RemoveEffect{ID: id}})
	return id
}

// Move detaches count cells at the source gap and reattaches them at the
// destination gap, sharing a single atom ID between the MoveOut and
// MoveIn marks (spec §3 invariant 5). Source and destination must be
// expressed in the editor's own emission order — callers typically build
// moves through two editor instances or pre-split their index math, since
// a single linear Editor cannot represent "detach here, attach earlier in
// the same pass" without re-deriving gaps. The result is a MoveOut mark,
// a NoOp mark for a non-zero destination gap, then a MoveIn mark.
func (e *Editor) Move(precedingGapSrc, count, precedingGapDst int) revision.AtomID {
	if count <= 0 {
		fielderrors.Panic(fielderrors.NewErrPrecondition("editor.Move: count must be positive"))
	}
	id := e.mintID(count)
	e.gap(precedingGapSrc)
	e.body.Push(mark.Mark{Count: count, Effect: mark.MoveOutEffect{ID: id}})
	e.gap(precedingGapDst)
	e.body.Push(mark.Mark{Count: count, Effect: mark.MoveInEffect{ID: id}})
	return id
}

// Revive reattaches count cells previously known by cellID, optionally
// choosing the right-of-concurrent-attaches tiebreak (used by rollback
// inverses so a reinstated cell sits where the original attach was).
func (e *Editor) Revive(precedingGap, count int, cellID cell.ID, tiebreak mark.Tiebreak) revision.AtomID {
	if count <= 0 {
		fielderrors.Panic(fielderrors.NewErrPrecondition("editor.Revive: count must be positive"))
	}
	e.gap(precedingGap)
	id := e.mintID(count)
	ref := cell.Ref{ID: cellID}
	e.body.Push(mark.Mark{Count: count, Cell: &ref, Effect: mark.InsertEffect{ID: id}, Tiebreak: tiebreak})
	return id
}

// Modify attaches a child change to the single populated cell that
// follows precedingGap untouched cells.
func (e *Editor) Modify(precedingGap int, change childchange.Change) {
	e.gap(precedingGap)
	e.body.Push(mark.Mark{Count: 1, Effect: mark.NoOpEffect{}, Changes: change})
}

// Finish returns the accumulated changeset.
func (e *Editor) Finish() changeset.Changeset {
	return e.body.Finish()
}

// Tag wraps Finish's result as a TaggedChange for the revision this
// editor was built with.
func (e *Editor) Tag() changeset.TaggedChange {
	return changeset.Tag(e.Finish(), e.revision)
}
