// Package invert implements the inverse operator (spec §4.5): given a
// changeset and the revision it applied under, produce the changeset that
// undoes it.
package invert

import (
	"context"

	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/childchange"
	"github.com/kasuganosora/seqfield/pkg/fielderrors"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/kasuganosora/seqfield/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// log receives a Debugw call per Invert, describing the change it
// inverted. Callers that want visibility into the operator (cmd/fieldctl,
// cmd/fieldmcp) call SetLogger once at startup; packages that never do
// pay nothing beyond the no-op's empty method bodies.
var log telemetry.Logger = telemetry.NoOpLogger{}

// tracer brackets each Invert call with a span; nil by default.
var tracer *telemetry.Tracer

// SetLogger installs the Logger Invert reports to. Not safe to call
// concurrently with Invert; intended for one-time startup wiring.
func SetLogger(l telemetry.Logger) { log = l }

// SetTracer installs the Tracer Invert spans through.
func SetTracer(t *telemetry.Tracer) { tracer = t }

// ChildInverter is the child-change half of invert.
type ChildInverter func(a childchange.Change, isRollback bool, newRevision revision.Revision) childchange.Change

// Invert maps every mark of change to its inverse per the spec §4.5 table
// and returns the result untagged; newRevision is the revision of the
// atom IDs the inverse mints. If isRollback is true, the tiebreak of each
// mark that reinstates cells is inverted, so the oracle's tiebreak can
// place those cells consistently with the original attach (spec §4.3's
// tiebreak-inversion rule).
func Invert(change changeset.TaggedChange, isRollback bool, newRevision revision.Revision, childInvert ChildInverter) changeset.Changeset {
	if change.Revision == nil {
		fielderrors.Panic(fielderrors.NewErrPrecondition("invert: change has no revision"))
	}
	_, end := tracer.Start(context.Background(), "invert",
		attribute.Int("seqfield.marks", len(change.Change.Marks)),
		attribute.Bool("seqfield.rollback", isRollback))
	defer end()
	log.Debugw("invert", "revision", change.Revision, "newRevision", newRevision, "isRollback", isRollback, "marks", len(change.Change.Marks))
	out := changeset.NewFactory()
	localID := revision.LocalID(0)
	for _, m := range change.Change.Marks {
		inv := invertMark(m, isRollback, newRevision, childInvert, &localID)
		out.Push(inv)
	}
	return out.Finish()
}

func invertMark(m mark.Mark, isRollback bool, newRev revision.Revision, childInvert ChildInverter, localID *revision.LocalID) mark.Mark {
	changes := childchange.Change(nil)
	if m.Changes != nil && childInvert != nil {
		changes = childInvert(m.Changes, isRollback, newRev)
	}
	newTiebreak := m.Tiebreak
	if isRollback {
		newTiebreak = invertTiebreak(m.Tiebreak)
	}

	switch eff := m.Effect.(type) {
	case mark.NoOpEffect:
		return mark.Mark{Count: m.Count, Effect: mark.NoOpEffect{}, Changes: changes}

	case mark.InsertEffect:
		// Insert(cellId C, count n) -> Remove(count n) with idOverride
		// = C. A revive names C through its Cell; a brand-new insert
		// (no Cell) names the cells it created by its own atom ID. The
		// remove's own id is minted off the new revision's local-ID
		// counter.
		id := revision.AtomID{Revision: newRev, Local: *localID}
		*localID += revision.LocalID(m.Count)
		override := eff.ID
		if m.Cell != nil {
			override = m.Cell.ID.Atom()
		}
		return mark.Mark{Count: m.Count, Effect: mark.RemoveEffect{ID: id, IDOverride: &override}, Changes: changes}

	case mark.RemoveEffect:
		// Remove(atomId D, count n) -> Revive targeting the empty
		// cells named by D (an Insert effect carrying D as its Cell).
		ref := cell.Ref{ID: cell.FromAtom(eff.ID)}
		id := revision.AtomID{Revision: newRev, Local: *localID}
		*localID += revision.LocalID(m.Count)
		return mark.Mark{Count: m.Count, Cell: &ref, Effect: mark.InsertEffect{ID: id}, Changes: changes, Tiebreak: newTiebreak}

	case mark.MoveOutEffect:
		// MoveOut M -> ReturnTo M: a MoveIn targeting the cells M
		// emptied.
		ref := cell.Ref{ID: cell.FromAtom(eff.ID)}
		return mark.Mark{Count: m.Count, Cell: &ref, Effect: mark.MoveInEffect{ID: eff.ID}, Changes: changes, Tiebreak: newTiebreak}

	case mark.MoveInEffect:
		// MoveIn M -> MoveOut M with idOverride pointing back to M's
		// source.
		src := eff.ID
		return mark.Mark{Count: m.Count, Effect: mark.MoveOutEffect{ID: eff.ID, IDOverride: &src}, Changes: changes}

	case mark.PinEffect:
		// Pin always carries a Cell ref (mark.Validate requires it):
		// invert re-detaches via that recorded cell ID, the §4.5
		// "Pin on empty cells" row — safe even when the pin resolved
		// against populated content, since Remove's IDOverride is
		// exactly the re-detach-a-known-cell mechanism.
		id := revision.AtomID{Revision: newRev, Local: *localID}
		*localID += revision.LocalID(m.Count)
		override := m.Cell.ID.Atom()
		_ = eff
		return mark.Mark{Count: m.Count, Effect: mark.RemoveEffect{ID: id, IDOverride: &override}, Changes: changes}

	case mark.AttachAndDetachEffect:
		invAttach := invertMark(mark.Mark{Count: m.Count, Effect: eff.Attach}, isRollback, newRev, nil, localID)
		invDetach := invertMark(mark.Mark{Count: m.Count, Effect: eff.Detach}, isRollback, newRev, nil, localID)
		return mark.Mark{Count: m.Count, Cell: invDetach.Cell, Effect: mark.AttachAndDetachEffect{Attach: invDetach.Effect, Detach: invAttach.Effect}, Changes: changes, Tiebreak: newTiebreak}

	case mark.TombstoneEffect:
		// Tombstone -> Tombstone (idempotent).
		return mark.Mark{Count: m.Count, Cell: m.Cell, Effect: mark.TombstoneEffect{}}

	default:
		panic(fielderrors.NewErrPrecondition("invert: unhandled effect kind"))
	}
}

func invertTiebreak(t mark.Tiebreak) mark.Tiebreak {
	if t == mark.Right {
		return mark.Left
	}
	return mark.Right
}
