// Package valuechange is a minimal, concrete child-change implementation:
// a node's content is a single scalar value and an edit simply sets it to
// something new. It exists to exercise pkg/childchange.Hook in tests and
// in the cmd/fieldctl demo without pulling in a real nested-change
// algebra, which is explicitly out of scope for this module.
package valuechange

import "github.com/kasuganosora/seqfield/pkg/revision"

// Set is a child change that overwrites a node's scalar value.
type Set struct {
	Revision revision.Revision
	Value    any
	// Prior remembers the value being replaced, purely so Invert can
	// hand back a Set that restores it. A real nested-change algebra
	// would derive its inverse structurally instead of by snapshotting.
	Prior any
}

// Hook implements childchange.Hook for Set changes.
type Hook struct{}

func (Hook) Compose(a, b any) any {
	if b == nil {
		return a
	}
	if a == nil {
		return b
	}
	bs := b.(Set)
	as := a.(Set)
	return Set{Revision: bs.Revision, Value: bs.Value, Prior: as.Prior}
}

func (Hook) Invert(a any, isRollback bool, newRevision revision.Revision) any {
	if a == nil {
		return nil
	}
	s := a.(Set)
	return Set{Revision: newRevision, Value: s.Prior, Prior: s.Value}
}

func (Hook) Rebase(a, over any) any {
	// Value-set changes are commutative last-writer-wins; rebasing over a
	// concurrent edit never needs to change the rebased edit itself.
	return a
}

func (Hook) Tag(a any, r revision.Revision) any {
	if a == nil {
		return nil
	}
	s := a.(Set)
	s.Revision = r
	return s
}

func (Hook) Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aok := a.(Set)
	bs, bok := b.(Set)
	if !aok || !bok {
		return false
	}
	return as.Value == bs.Value && as.Revision == bs.Revision
}
