// Package delta lowers a changeset to a flat description of concrete side
// effects (spec §4.8): build, attach, detach, and rename streams that a
// forest/tree implementation can apply directly, without any further
// knowledge of cells, lineage, or the RLE mark representation.
package delta

import (
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/childchange"
	"github.com/kasuganosora/seqfield/pkg/crossfield"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
)

// ChildToDelta lowers a single child change to whatever recursive
// field-delta representation the caller's forest uses; the core treats
// it as an opaque value threaded through FieldEntry.Children.
type ChildToDelta func(c childchange.Change) any

// Rename pairs the atom ID a cell was known by before and after a
// transient attach-and-detach or a move whose source and destination
// atom IDs differ.
type Rename struct {
	OldID revision.AtomID
	NewID revision.AtomID
}

// FieldEntry is one local-marks entry: for a run of populated cells, the
// optional attach/detach atom IDs and a recursive child-change delta.
type FieldEntry struct {
	Count    int
	Attach   *revision.AtomID
	Detach   *revision.AtomID
	Children any
}

// FieldDelta is the flattened build/attach/detach/rename stream spec §4.8
// defines, over the same field a Changeset describes.
type FieldDelta struct {
	// Local holds one FieldEntry per output cell run that has an attach
	// and/or detach effect (populated cells with no effect at all are
	// not represented here — there is nothing for the forest to do).
	Local []FieldEntry
	// Global maps a detach atom ID to the child-change delta of the
	// node it detached, for content that leaves the field entirely.
	Global map[revision.AtomID]any
	// Renames pairs old/new atom IDs for transient attach-and-detach
	// marks and for moves whose source and destination IDs differ.
	Renames []Rename
	// Build maps an insert's atom ID to the new node content it
	// introduces. The core has no node content of its own to offer —
	// Build entries are populated by the caller's editor layer before
	// handing the changeset to IntoDelta; this field is a placeholder
	// the caller can overwrite in the FieldDelta it constructs from the
	// editor's original build records, keyed identically so the two can
	// be merged by atom ID.
	Build map[revision.AtomID]bool
}

// IntoDelta lowers change to a FieldDelta per spec §4.8's projection
// rules. childToDelta may be nil if change carries no child changes.
//
// A move's rename entry needs its chain's ultimate atom ID, not just the
// one finalEndpoint hop recorded on the mark itself (a changeset handed
// to IntoDelta may not have been through compose's own chain-patching
// pass). IntoDelta pre-scans for finalEndpoint links into a crossfield
// Manager and resolves through it, so renames land on the true endpoint
// even across several hops.
func IntoDelta(change changeset.TaggedChange, childToDelta ChildToDelta) FieldDelta {
	d := FieldDelta{
		Global: map[revision.AtomID]any{},
		Build:  map[revision.AtomID]bool{},
	}
	cf := crossfield.New()
	for _, m := range change.Change.Marks {
		recordChainLinks(m.Effect, cf)
	}
	for _, m := range change.Change.Marks {
		projectMark(m, &d, childToDelta, cf)
	}
	return d
}

func recordChainLinks(e mark.Effect, cf *crossfield.Manager) {
	switch eff := e.(type) {
	case mark.MoveOutEffect:
		if eff.FinalEndpoint != nil {
			cf.SetFinal(eff.ID, *eff.FinalEndpoint)
		}
	case mark.AttachAndDetachEffect:
		recordChainLinks(eff.Detach, cf)
	}
}

func projectMark(m mark.Mark, d *FieldDelta, childToDelta ChildToDelta, cf *crossfield.Manager) {
	switch eff := m.Effect.(type) {
	case mark.NoOpEffect, mark.TombstoneEffect:
		// No delta: NoOp has no side effect and Tombstone is a pure
		// ordering witness.
		if m.Changes != nil {
			entry := FieldEntry{Count: m.Count}
			if childToDelta != nil {
				entry.Children = childToDelta(m.Changes)
			}
			d.Local = append(d.Local, entry)
		}
		return

	case mark.InsertEffect:
		entry := FieldEntry{Count: m.Count}
		id := eff.ID
		entry.Attach = &id
		for i := 0; i < m.Count; i++ {
			d.Build[eff.ID.Plus(revision.LocalID(i))] = true
		}
		if m.Changes != nil && childToDelta != nil {
			entry.Children = childToDelta(m.Changes)
		}
		d.Local = append(d.Local, entry)

	case mark.RemoveEffect:
		entry := FieldEntry{Count: m.Count}
		id := eff.ID
		entry.Detach = &id
		if m.Changes != nil && childToDelta != nil {
			d.Global[eff.ID] = childToDelta(m.Changes)
		}
		d.Local = append(d.Local, entry)

	case mark.MoveOutEffect:
		entry := FieldEntry{Count: m.Count}
		id := eff.ID
		entry.Detach = &id
		d.Local = append(d.Local, entry)
		if final, hops := cf.Resolve(eff.ID); hops > 0 {
			d.Renames = append(d.Renames, Rename{OldID: eff.ID, NewID: final})
		}

	case mark.MoveInEffect:
		entry := FieldEntry{Count: m.Count}
		id := eff.ID
		entry.Attach = &id
		if m.Changes != nil && childToDelta != nil {
			entry.Children = childToDelta(m.Changes)
		}
		d.Local = append(d.Local, entry)

	case mark.PinEffect:
		if m.Cell == nil {
			if m.Changes != nil {
				entry := FieldEntry{Count: m.Count}
				if childToDelta != nil {
					entry.Children = childToDelta(m.Changes)
				}
				d.Local = append(d.Local, entry)
			}
			return
		}
		entry := FieldEntry{Count: m.Count}
		id := eff.ID
		entry.Detach = &id
		d.Local = append(d.Local, entry)

	case mark.AttachAndDetachEffect:
		projectAttachAndDetach(m, eff, d, childToDelta, cf)

	default:
		panic("delta.IntoDelta: unhandled effect kind")
	}
}

func projectAttachAndDetach(m mark.Mark, eff mark.AttachAndDetachEffect, d *FieldDelta, childToDelta ChildToDelta, cf *crossfield.Manager) {
	attachID, attachIsInsert := attachAtomOf(eff.Attach)
	detachID := detachAtomOf(eff.Detach)
	if mo, ok := eff.Detach.(mark.MoveOutEffect); ok {
		if final, hops := cf.Resolve(mo.ID); hops > 0 {
			detachID = final
		}
	}

	if attachIsInsert {
		for i := 0; i < m.Count; i++ {
			d.Build[attachID.Plus(revision.LocalID(i))] = true
		}
	}
	if attachID != detachID {
		d.Renames = append(d.Renames, Rename{OldID: attachID, NewID: detachID})
	}
	if m.Changes != nil && childToDelta != nil {
		d.Global[detachID] = childToDelta(m.Changes)
	}
}

func attachAtomOf(e mark.Effect) (revision.AtomID, bool) {
	switch v := e.(type) {
	case mark.InsertEffect:
		return v.ID, true
	case mark.MoveInEffect:
		return v.ID, false
	case mark.PinEffect:
		return v.ID, false
	default:
		panic("delta: AttachAndDetach inner attach is not attach-like")
	}
}

func detachAtomOf(e mark.Effect) revision.AtomID {
	switch v := e.(type) {
	case mark.RemoveEffect:
		return v.ID
	case mark.MoveOutEffect:
		return v.ID
	default:
		panic("delta: AttachAndDetach inner detach is not detach-like")
	}
}
