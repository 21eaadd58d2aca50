package changeset

import (
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/revision"
)

// Factory appends marks to an output Changeset, merging each new mark
// into the previous one when TryMerge succeeds (spec §4.1). Every
// operator builds its result through a Factory so invariant 2 (adjacent
// marks are merged) holds by construction rather than by a cleanup pass.
type Factory struct {
	out Changeset
}

// NewFactory returns an empty factory.
func NewFactory() *Factory { return &Factory{} }

// Push appends m, merging it into the last emitted mark when possible.
// Zero-count marks are silently dropped (never violates invariant 1).
func (f *Factory) Push(m mark.Mark) {
	if m.Count <= 0 {
		return
	}
	if n := len(f.out.Marks); n > 0 {
		if merged, ok := mark.TryMerge(f.out.Marks[n-1], m); ok {
			f.out.Marks[n-1] = merged
			return
		}
	}
	f.out.Marks = append(f.out.Marks, m)
}

// PushAll pushes every mark of c in order.
func (f *Factory) PushAll(c Changeset) {
	for _, m := range c.Marks {
		f.Push(m)
	}
}

// Finish returns the accumulated changeset. The factory must not be reused
// afterward.
func (f *Factory) Finish() Changeset {
	return f.out
}

// DropRedundantTombstones removes Tombstone marks from c whose cells are
// also referenced by a later non-Tombstone mark in the same changeset —
// the "shallow compose... removes [tombstones]... when they become
// redundant" rule from spec §3's ownership/lifecycle note. This module
// keeps it as an explicit normalization pass (rather than folding it into
// Factory.Push) because redundancy can only be detected once the whole
// changeset — or at least the relevant lineage — is known.
func DropRedundantTombstones(c Changeset) Changeset {
	seen := make(map[cellKey]bool)
	for _, m := range c.Marks {
		if m.Effect.Kind() == mark.Tombstone {
			continue
		}
		if m.Cell != nil {
			seen[cellKey{rev: m.Cell.ID.Revision, id: m.Cell.ID.Local}] = true
		}
	}
	f := NewFactory()
	for _, m := range c.Marks {
		if m.Effect.Kind() == mark.Tombstone && m.Cell != nil {
			if seen[cellKey{rev: m.Cell.ID.Revision, id: m.Cell.ID.Local}] {
				continue
			}
		}
		f.Push(m)
	}
	return f.Finish()
}

type cellKey struct {
	rev revision.Revision
	id  revision.LocalID
}
