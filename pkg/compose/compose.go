// Package compose implements sequential composition of changesets (spec
// §4.4): compose(base, next) produces the changeset equivalent to
// applying base then next. Compose walks both changesets in aligned
// cell-order (pkg/changeset's Queue/AlignedLength machinery) and applies
// the rule table of spec §4.4 to each aligned pair.
package compose

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

// log receives a Debugw call per Two; see pkg/invert's log var for the
// wiring convention shared across the operator packages.
var log telemetry.Logger = telemetry.NoOpLogger{}

// tracer brackets each Two call with a span; nil (the default) costs
// nothing beyond Tracer.Start's nil-receiver check.
var tracer *telemetry.Tracer

// SetLogger installs the Logger Two reports to.
func SetLogger(l telemetry.Logger) { log = l }

// SetTracer installs the Tracer Two spans through.
func SetTracer(t *telemetry.Tracer) { tracer = t }

// ChildComposer is the child-change half of compose: composing two child
// changes attached to the same node. It is the Compose method of
// childchange.Hook, named separately here so callers that only need
// compose don't have to construct a full Hook for tests of, say, invert.
type ChildComposer func(a, b childchange.Change) childchange.Change

// Compose composes a sequence of tagged changes left to right:
// compose([a, b, c]) == compose(compose(a, b), c). Per spec §8 property 1,
// compose([a]) returns a (a defensive copy), and compose([]) returns the
// empty changeset.
func Compose(changes []changeset.TaggedChange, md revision.Metadata, childCompose ChildComposer) changeset.Changeset {
	if len(changes) == 0 {
		return changeset.Empty()
	}
	acc := changes[0].Change.Clone()
	for _, next := range changes[1:] {
		acc = Two(changeset.TaggedChange{Change: acc, Revision: changes[0].Revision}, next, md, childCompose)
	}
	return acc
}

// Two composes exactly two tagged changes: base then next.
func Two(base, next changeset.TaggedChange, md revision.Metadata, childCompose ChildComposer) changeset.Changeset {
	_, end := tracer.Start(context.Background(), "compose",
		attribute.Int("seqfield.base_marks", len(base.Change.Marks)),
		attribute.Int("seqfield.next_marks", len(next.Change.Marks)))
	defer end()

	baseQ := changeset.NewQueue(base.Change)
	nextQ := changeset.NewQueue(next.Change)

	o := oracle.New(oracle.ModeTombstone, md)
	o.IndexMarks(base.Change.Marks)
	o.IndexMarks(next.Change.Marks)

	cf := crossfield.New()
	out := changeset.NewFactory()

	nextIsRollbackOfBase := next.RollbackOf != nil && base.Revision != nil && *next.RollbackOf == *base.Revision
	log.Debugw("compose", "baseMarks", len(base.Change.Marks), "nextMarks", len(next.Change.Marks), "rollback", nextIsRollbackOfBase)

	for !baseQ.Done() || !nextQ.Done() {
		// A next-side mark that attaches brand-new content (no prior
		// cell identity) names cells that never existed in base's
		// output at all: it is a gap introduced between base's
		// cells, not a position base has any opinion about. Emit it
		// directly and advance only the next queue. Base can never
		// have the symmetric case — every cell base produces,
		// including base's own inserts, is accounted for by some
		// mark (even a bare NoOp) in next, since next's changeset is
		// defined over the whole of base's output length.
		if nm, ok := nextQ.Peek(); ok && isBrandNewAttach(nm) {
			out.Push(nextQ.Dequeue(nm.Count))
			continue
		}
		switch {
		case baseQ.Done():
			out.Push(nextQ.Dequeue(nextQ.HeadCount()))
		case nextQ.Done():
			out.Push(baseQ.Dequeue(baseQ.HeadCount()))
		default:
			n := alignNext(baseQ, nextQ, o)
			b := baseQ.Dequeue(n)
			nx := nextQ.Dequeue(n)
			out.Push(composePair(b, nx, cf, childCompose, nextIsRollbackOfBase))
		}
	}
	result := changeset.DropRedundantTombstones(out.Finish())
	return patchChainEndpoints(result, cf)
}

// patchChainEndpoints backfills FinalEndpoint on any bare MoveOut/MoveIn
// mark the main walk emitted before the manager learned about a move
// chain through it — the source-side MoveOut at the top of a chain is
// always composed before the walk reaches the chaining pair further
// along the field, so it cannot know its own finalEndpoint at the time
// composePair produces it (spec §4.4's "both final endpoints carry
// finalEndpoint cross-references" invariant). AttachAndDetach marks
// already carry their finalEndpoint fields set directly by
// composeMoveInWithNext and are left untouched.
func patchChainEndpoints(c changeset.Changeset, cf *crossfield.Manager) changeset.Changeset {
	marks := make([]mark.Mark, len(c.Marks))
	for i, m := range c.Marks {
		marks[i] = m
		switch e := m.Effect.(type) {
		case mark.MoveOutEffect:
			if e.FinalEndpoint == nil {
				if entry, ok := cf.Get(e.ID); ok && entry.Final != nil {
					final, _ := cf.Resolve(e.ID)
					e.FinalEndpoint = &final
					marks[i].Effect = e
				}
			}
		case mark.MoveInEffect:
			if e.FinalEndpoint == nil {
				if entry, ok := cf.Get(e.ID); ok && entry.Kind == crossfield.Destination {
					other := entry.Other
					e.FinalEndpoint = &other
					marks[i].Effect = e
				}
			}
		}
	}
	return changeset.Changeset{Marks: marks}
}

// isBrandNewAttach reports whether m attaches content with no prior cell
// identity (a new Insert or MoveIn, as opposed to a revive/return-to
// which carries a Cell referencing a previously-known empty cell and so
// must align against whatever the other side says about that cell).
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

// alignNext decides how many cells the next alignment step covers. When
// both heads describe the same kind of cell (both populated, or both
// empty referencing the same identity) this is simply the shorter head
// count. When one side is on a populated-cell mark and the other is on a
// reference to an unrelated empty cell, they cannot describe the same
// cells at all (base's populated cell cannot also be a cell next already
// considers empty unless next's reference literally names a cell base
// itself detached earlier in this same walk, which the queue ordering
// already guarantees) — so the default of taking the shorter run remains
// correct; the oracle is only needed when both sides are empty-cell
// references that must be checked for a matching identity before
// alignment can proceed cell-for-cell.
func alignNext(baseQ, nextQ *changeset.Queue, o *oracle.Oracle) int {
	bm, _ := baseQ.Peek()
	nm, _ := nextQ.Peek()
	n := changeset.AlignedLength(baseQ, nextQ)
	if bm.Cell != nil && nm.Cell != nil && !bm.Cell.ID.Equal(nm.Cell.ID) {
		// Both empty-cell references but naming different cells: the
		// oracle decides which comes first, but compose only ever
		// aligns cells that genuinely describe the same position in
		// the field (base's output cell order is next's input cell
		// order by construction), so in well-formed input this branch
		// is unreachable; retained defensively so a malformed pairing
		// fails by producing 1-cell steps (visible in test diffs)
		// rather than silently misaligning larger runs.
		if _, ok := o.Order(*bm.Cell, *nm.Cell); ok {
			return 1
		}
	}
	return n
}

// composePair applies the spec §4.4 rule table to one aligned pair of
// (count-equal) marks.
func composePair(b, n mark.Mark, cf *crossfield.Manager, childCompose ChildComposer, nextIsRollbackOfBase bool) mark.Mark {
	childChanges := composeChildChanges(b.Changes, n.Changes, childCompose)

	switch be := b.Effect.(type) {
	case mark.NoOpEffect:
		// NoOp (populated) ∘ X = X with base's cell ref (if any),
		// child changes composed.
		out := n
		out.Changes = childChanges
		if out.Cell == nil {
			out.Cell = b.Cell
		}
		return out

	case mark.InsertEffect:
		switch ne := n.Effect.(type) {
		case mark.NoOpEffect:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be, Changes: childChanges, Tiebreak: b.Tiebreak}
		case mark.RemoveEffect:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be, Detach: ne}, Tiebreak: b.Tiebreak}
		case mark.MoveOutEffect:
			cf.Record(ne.ID, crossfield.Source, ne.ID)
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be, Detach: ne}, Tiebreak: b.Tiebreak}
		case mark.AttachAndDetachEffect:
			// Insert ∘ AttachAndDetach(A,D): the inner attach A
			// describes content that never actually attaches from
			// base's point of view (base inserted it already), so
			// the composite collapses to an AttachAndDetach of
			// base's insert with D.
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be, Detach: ne.Detach}, Tiebreak: b.Tiebreak}
		default:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be, Changes: childChanges, Tiebreak: b.Tiebreak}
		}

	case mark.RemoveEffect:
		switch ne := n.Effect.(type) {
		case mark.NoOpEffect:
			return mark.Mark{Count: b.Count, Effect: be, Changes: childChanges}
		case mark.InsertEffect:
			// Revive targeting the exact cell b just detached: the pair
			// cancels. A rollback-tagged revive restores the field to
			// exactly its pre-removal state (NoOp); any other revive
			// still leaves a witness behind so later composes and the
			// oracle can see the cell was, at some point, removed.
			if n.Cell != nil && n.Cell.ID.Atom() == removeAtomOf(be) {
				if nextIsRollbackOfBase {
					return mark.Mark{Count: b.Count, Effect: mark.NoOpEffect{}, Changes: childChanges}
				}
				return mark.Mark{Count: b.Count, Cell: n.Cell, Effect: mark.TombstoneEffect{}, Changes: childChanges}
			}
			return mark.Mark{Count: b.Count, Effect: be, Changes: childChanges}
		default:
			_ = ne
			return mark.Mark{Count: b.Count, Effect: be, Changes: childChanges}
		}

	case mark.MoveOutEffect:
		switch n.Effect.(type) {
		case mark.NoOpEffect:
			return mark.Mark{Count: b.Count, Effect: be, Changes: childChanges}
		default:
			return mark.Mark{Count: b.Count, Effect: be, Changes: childChanges}
		}

	case mark.MoveInEffect:
		return composeMoveInWithNext(b, be, n, cf, childChanges)

	case mark.AttachAndDetachEffect:
		// AttachAndDetach(A,D) ∘ next: the effective base for
		// composition purposes is D (the cells are populated on exit
		// from b), so reuse the Remove/MoveOut composition rules with
		// D standing in for b's effect, then rewrap the attach.
		inner := composePair(mark.Mark{Count: b.Count, Effect: be.Detach}, n, cf, nil, nextIsRollbackOfBase)
		switch inner.Effect.(type) {
		case mark.AttachAndDetachEffect:
			// D was itself composed into a further transient; keep
			// only the final detach half paired with the original A.
			iv := inner.Effect.(mark.AttachAndDetachEffect)
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be.Attach, Detach: iv.Detach}, Changes: childChanges, Tiebreak: b.Tiebreak}
		case mark.TombstoneEffect:
			// D cancelled against next (a Revive of the same cells):
			// what remains is simply the attach A, since the detach
			// and its cancelling revive annihilate.
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be.Attach, Changes: childChanges, Tiebreak: b.Tiebreak}
		default:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be.Attach, Detach: inner.Effect}, Changes: childChanges, Tiebreak: b.Tiebreak}
		}

	case mark.PinEffect:
		// base is itself a Pin (a prior rebase turned a populated-cell
		// mark into one, per spec §4.6) being composed further.
		switch ne := n.Effect.(type) {
		case mark.RemoveEffect:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be, Detach: ne}, Tiebreak: b.Tiebreak}
		case mark.NoOpEffect:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be, Changes: childChanges, Tiebreak: b.Tiebreak}
		default:
			return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be, Changes: childChanges, Tiebreak: b.Tiebreak}
		}

	case mark.TombstoneEffect:
		switch n.Effect.(type) {
		case mark.NoOpEffect:
			return mark.Mark{Count: b.Count, Cell: mergedCellRef(b.Cell, n.Cell), Effect: be}
		default:
			// A non-NoOp next effect on a base tombstone means next
			// is itself an attach into the witnessed empty cells
			// (a revive); compose to next directly, folding lineage.
			out := n
			out.Cell = mergedCellRef(b.Cell, n.Cell)
			return out
		}

	default:
		panic(fielderrors.NewErrPrecondition("compose: unhandled base effect kind"))
	}
}

// composeMoveInWithNext handles base == MoveIn, the move-chaining case
// of spec §4.4: when next re-moves the same cells (a MoveOut), the
// intermediate step becomes an AttachAndDetach(MoveIn_first,
// MoveOut_second) and the manager records finalEndpoint links so a later
// compose can collapse the whole chain in O(chain).
func composeMoveInWithNext(b mark.Mark, be mark.MoveInEffect, n mark.Mark, cf *crossfield.Manager, childChanges childchange.Change) mark.Mark {
	switch ne := n.Effect.(type) {
	case mark.NoOpEffect:
		return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be, Changes: childChanges, Tiebreak: b.Tiebreak}
	case mark.RemoveEffect:
		return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: be, Detach: ne}, Tiebreak: b.Tiebreak}
	case mark.MoveOutEffect:
		// Register both sides of this hop (so a bare MoveOut/MoveIn
		// mark elsewhere in the same compose pass can later be patched
		// by patchChainEndpoints, which runs after the whole walk since
		// a mark at the source position is composed before the walk
		// ever reaches this chaining pair), and next's own chain if it
		// already carries one (next may itself be the product of an
		// earlier compose). Resolve then walks to the true end in one
		// pass rather than hand-rolling the one-or-two-hop check this
		// used to do — this is what makes a third (fourth, ...) compose
		// against an already-chained mark collapse correctly instead of
		// only ever seeing one hop ahead.
		cf.Record(be.ID, crossfield.Source, ne.ID)
		cf.Record(ne.ID, crossfield.Destination, be.ID)
		cf.SetFinal(be.ID, ne.ID)
		if ne.FinalEndpoint != nil {
			cf.SetFinal(ne.ID, *ne.FinalEndpoint)
		}
		final, _ := cf.Resolve(be.ID)
		chained := mark.MoveInEffect{ID: be.ID, FinalEndpoint: &final}
		movedOut := mark.MoveOutEffect{ID: be.ID, FinalEndpoint: &final}
		return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: mark.AttachAndDetachEffect{Attach: chained, Detach: movedOut}, Tiebreak: b.Tiebreak}
	default:
		return mark.Mark{Count: b.Count, Cell: b.Cell, Effect: be, Changes: childChanges, Tiebreak: b.Tiebreak}
	}
}

// removeAtomOf returns the atom ID a RemoveEffect actually detaches,
// honoring IDOverride the same way invert/rebase do.
func removeAtomOf(e mark.RemoveEffect) revision.AtomID {
	if e.IDOverride != nil {
		return *e.IDOverride
	}
	return e.ID
}

func mergedCellRef(a, b *cell.Ref) *cell.Ref {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := a.Clone()
	merged.Lineage = cell.MergeLineage(a.Lineage, b.Lineage)
	return &merged
}

func composeChildChanges(a, b childchange.Change, compose ChildComposer) childchange.Change {
	if compose == nil {
		if !childchange.IsEmpty(b) {
			return b
		}
		return a
	}
	if childchange.IsEmpty(a) {
		return b
	}
	if childchange.IsEmpty(b) {
		return a
	}
	return compose(a, b)
}

// Shallow is compose without recursive child composition (spec §4.4's
// shallowCompose): used when child changes attached to the two inputs
// are already known to be independent, so no child-compose function is
// threaded through at all.
func Shallow(base, next changeset.TaggedChange, md revision.Metadata) changeset.Changeset {
	return Two(base, next, md, nil)
}
