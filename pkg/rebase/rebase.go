// Package rebase implements the rebase operator (spec §4.6): produce the
// changeset equivalent to change's intent as if over had already been
// applied to the same base state. Rebase never rejects; every concurrent
// conflict is resolved by the rule table below, and unresolved move
// endpoints are muted rather than surfaced as an error (spec §7).
package rebase

import (
	"context"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/childchange"
	"github.com/kasuganosora/seqfield/pkg/crossfield"
	"github.com/kasuganosora/seqfield/pkg/fielderrors"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/oracle"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/kasuganosora/seqfield/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// log receives a Debugw call per Rebase; see pkg/invert's log var for the
// wiring convention shared across the operator packages.
var log telemetry.Logger = telemetry.NoOpLogger{}

// tracer brackets each Rebase call with a span; nil by default.
var tracer *telemetry.Tracer

// SetLogger installs the Logger Rebase reports to.
func SetLogger(l telemetry.Logger) { log = l }

// SetTracer installs the Tracer Rebase spans through.
func SetTracer(t *telemetry.Tracer) { tracer = t }

// ChildRebaser is the child-change half of rebase.
type ChildRebaser func(a, over childchange.Change) childchange.Change

// Rebase produces the changeset equivalent to change's intent as if over
// had happened first. change and over are both defined over the same
// pre-state (spec §6's rebase signature takes two sibling TaggedChanges,
// not a base/next pair as compose does).
func Rebase(change, over changeset.TaggedChange, md revision.Metadata, childRebase ChildRebaser) changeset.Changeset {
	_, end := tracer.Start(context.Background(), "rebase",
		attribute.Int("seqfield.change_marks", len(change.Change.Marks)),
		attribute.Int("seqfield.over_marks", len(over.Change.Marks)))
	defer end()
	log.Debugw("rebase", "changeMarks", len(change.Change.Marks), "overMarks", len(over.Change.Marks))
	if change.Change.IsEmpty() {
		return changeset.Empty()
	}
	if over.Change.IsEmpty() {
		return change.Change.Clone()
	}

	cQ := changeset.NewQueue(change.Change)
	oQ := changeset.NewQueue(over.Change)

	o := oracle.New(oracle.ModeTombstone, md)
	o.IndexMarks(change.Change.Marks)
	o.IndexMarks(over.Change.Marks)

	cf := crossfield.New()
	destinations := destinationIndex(over.Change)

	out := changeset.NewFactory()
	var relocated []relocatedMark

	for !cQ.Done() || !oQ.Done() {
		// A brand-new attach on change's side needs no rebasing: it
		// names cells over never had an opinion about. Pass through
		// unchanged and advance only change's queue.
		if cm, ok := cQ.Peek(); ok && isBrandNewAttach(cm) {
			out.Push(cQ.Dequeue(cm.Count))
			continue
		}
		// A brand-new attach on over's side introduces a gap change
		// never saw either; it produces no output here (rebase's
		// result only contains change's content) and is skipped.
		if om, ok := oQ.Peek(); ok && isBrandNewAttach(om) {
			oQ.Dequeue(om.Count)
			continue
		}

		switch {
		case cQ.Done():
			oQ.Dequeue(oQ.HeadCount())
		case oQ.Done():
			out.Push(cQ.Dequeue(cQ.HeadCount()))
		default:
			n := alignNext(cQ, oQ, o)
			c := cQ.Dequeue(n)
			ov := oQ.Dequeue(n)
			rebased, relocateTo := rebasePair(c, ov, cf, childRebase)
			if relocateTo != nil {
				relocated = append(relocated, relocatedMark{dest: *relocateTo, mark: rebased})
				continue
			}
			out.Push(rebased)
		}
	}

	return spliceRelocated(out.Finish(), relocated, destinations)
}

func alignNext(cQ, oQ *changeset.Queue, o *oracle.Oracle) int {
	cm, _ := cQ.Peek()
	om, _ := oQ.Peek()
	n := changeset.AlignedLength(cQ, oQ)
	if cm.Cell != nil && om.Cell != nil && !cm.Cell.ID.Equal(om.Cell.ID) {
		if _, ok := o.Order(*cm.Cell, *om.Cell); ok {
			return 1
		}
	}
	return n
}

func isBrandNewAttach(m mark.Mark) bool {
	if m.Cell != nil {
		return false
	}
	switch m.Effect.(type) {
	case mark.InsertEffect, mark.MoveInEffect:
		return true
	default:
		return false
	}
}

// destinationIndex maps the atom ID of every MoveIn in c to itself (a
// MoveOut and its paired MoveIn share an atom ID). Its result is passed
// to spliceRelocated, which does not read it.
func destinationIndex(c changeset.Changeset) map[revision.AtomID]revision.AtomID {
	m := map[revision.AtomID]revision.AtomID{}
	for _, mk := range c.Marks {
		if in, ok := mk.Effect.(mark.MoveInEffect); ok {
			m[in.ID] = in.ID
		}
	}
	return m
}

// rebasePair applies the spec §4.6 rule table to one aligned pair of
// (count-equal) marks from change (c) and over (o). It returns either a
// mark ready to push at the current position, or (when o is a MoveOut and
// c carried content that must follow the move) the rewritten mark plus
// the atom ID of the move's destination; the caller hands such marks to
// spliceRelocated instead of pushing them in place.
func rebasePair(c, ov mark.Mark, cf *crossfield.Manager, childRebase ChildRebaser) (mark.Mark, *revision.AtomID) {
	switch ove := ov.Effect.(type) {
	case mark.NoOpEffect:
		changes := rebaseChildChanges(c.Changes, ov.Changes, childRebase)
		out := c
		out.Changes = changes
		return out, nil

	case mark.RemoveEffect:
		return rebaseOverRemove(c, ove.ID), nil

	case mark.MoveOutEffect:
		id := ove.ID
		if ove.FinalEndpoint != nil {
			id = *ove.FinalEndpoint
		}
		cf.Record(ove.ID, crossfield.Destination, id)
		switch c.Effect.(type) {
		case mark.NoOpEffect, mark.RemoveEffect, mark.MoveOutEffect:
			rewritten := rebaseOverRemove(c, ove.ID)
			return rewritten, &id
		default:
			return c, nil
		}

	case mark.TombstoneEffect:
		// over merely witnessed these cells as empty; nothing
		// concurrent happened to them, so c passes through, gaining
		// o's lineage so future rebases know the ordering (spec
		// §4.6's "Revive... lineage is augmented" rule).
		out := c
		if out.Cell != nil && ov.Cell != nil {
			merged := out.Cell.Clone()
			merged.Lineage = cell.MergeLineage(out.Cell.Lineage, ov.Cell.Lineage)
			out.Cell = &merged
		}
		return out, nil

	case mark.AttachAndDetachEffect:
		return rebaseOverRemove(c, detachAtomOf(ove.Detach)), nil

	case mark.PinEffect:
		changes := rebaseChildChanges(c.Changes, ov.Changes, childRebase)
		out := c
		out.Changes = changes
		return out, nil

	case mark.InsertEffect:
		// over revives the cell c refers to (an Insert reaches rebasePair,
		// rather than being skipped at the top of Rebase's loop, only when
		// it carries a Cell): c is reprojected onto the now-populated cell.
		// A Tombstone/Pin witnessing that same cell collapses to NoOp since
		// the cell it was pinned against is live again under ov's identity.
		changes := rebaseChildChanges(c.Changes, ov.Changes, childRebase)
		switch c.Effect.(type) {
		case mark.TombstoneEffect, mark.PinEffect:
			return mark.Mark{Count: c.Count, Effect: mark.NoOpEffect{}, Changes: changes}, nil
		default:
			out := c
			out.Changes = changes
			return out, nil
		}

	default:
		panic(fielderrors.NewErrPrecondition("rebase: unhandled over effect kind"))
	}
}

// rebaseOverRemove rewrites c into its on-empty-cell form given that the
// cells it targeted were detached by over via detachID.
func rebaseOverRemove(c mark.Mark, detachID revision.AtomID) mark.Mark {
	ref := cell.Ref{ID: cell.FromAtom(detachID)}
	switch ce := c.Effect.(type) {
	case mark.NoOpEffect:
		if c.Changes == nil {
			return mark.Mark{Count: c.Count, Cell: &ref, Effect: mark.TombstoneEffect{}}
		}
		return mark.Mark{Count: c.Count, Cell: &ref, Effect: mark.PinEffect{ID: detachID}, Changes: c.Changes}
	case mark.RemoveEffect:
		// Both sides removed the same cells: over already detached
		// them, so change's own remove collapses to a tombstone.
		_ = ce
		return mark.Mark{Count: c.Count, Cell: &ref, Effect: mark.TombstoneEffect{}}
	case mark.MoveOutEffect:
		// The move's source was concurrently removed: the move is
		// muted, its mark becomes a tombstone (spec §4.6 failure
		// semantics).
		return mark.Mark{Count: c.Count, Cell: &ref, Effect: mark.TombstoneEffect{}}
	case mark.PinEffect:
		return mark.Mark{Count: c.Count, Cell: &ref, Effect: mark.PinEffect{ID: detachID}, Changes: c.Changes}
	default:
		return mark.Mark{Count: c.Count, Cell: &ref, Effect: mark.TombstoneEffect{}}
	}
}

func detachAtomOf(e mark.Effect) revision.AtomID {
	switch v := e.(type) {
	case mark.RemoveEffect:
		return v.ID
	case mark.MoveOutEffect:
		return v.ID
	default:
		panic(fielderrors.NewErrPrecondition("rebase: AttachAndDetach inner detach is not detach-like"))
	}
}

func rebaseChildChanges(a, over childchange.Change, rebase ChildRebaser) childchange.Change {
	if childchange.IsEmpty(a) {
		return nil
	}
	if rebase == nil || childchange.IsEmpty(over) {
		return a
	}
	return rebase(a, over)
}

// relocatedMark pairs a rebased mark with the destination atom ID of the
// move it follows, preserving the order rebasePair produced them in
// (the main loop walks both changesets in cell order, so insertion order
// here is already a deterministic, replica-independent order — never a
// map, which Go randomizes on iteration).
type relocatedMark struct {
	dest revision.AtomID
	mark mark.Mark
}

// spliceRelocated appends the marks that were rewritten to follow a move
// after all of base's marks, in the order rebasePair produced them. It
// does not place them at the position of the move's destination, and
// destinations is not read. relocated is walked in insertion order, never
// map order, so the result is deterministic across replicas (spec §5).
func spliceRelocated(base changeset.Changeset, relocated []relocatedMark, destinations map[revision.AtomID]revision.AtomID) changeset.Changeset {
	if len(relocated) == 0 {
		return base
	}
	out := changeset.NewFactory()
	for _, m := range base.Marks {
		out.Push(m)
	}
	for _, r := range relocated {
		out.Push(r.mark)
	}
	return out.Finish()
}
