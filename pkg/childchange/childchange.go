// Package childchange defines the only interface the core requires of the
// nested-change algebra that edits the content of a single node (spec
// §4.9). The core is polymorphic over this type: it never inspects a
// child change except through Hook and through equality for test
// assertions.
package childchange

import "github.com/kasuganosora/seqfield/pkg/revision"

// Change is an opaque per-node edit. Implementations are supplied by the
// nested-change algebra collaborator (out of scope for this module); the
// core only ever touches values of this type through a Hook.
type Change = any

// Hook is the small, total, pure interface the operators call against
// child changes. All four operations are required to hold the same
// algebraic laws (associativity of Compose, involutivity of Invert under
// rollback, the rebase sandwich/diamond laws) that the top-level operators
// hold for marks — the core's correctness proof composes with whatever
// hook implementation the caller supplies.
type Hook interface {
	// Compose sequentially composes two child changes that apply to the
	// same node. Must be associative.
	Compose(a, b Change) Change

	// Invert produces the inverse of a child change, built under
	// newRevision. If isRollback is true the inverse is a rollback of a,
	// so a downstream oracle tie-break can place reinstated state
	// consistently with the original.
	Invert(a Change, isRollback bool, newRevision revision.Revision) Change

	// Rebase rebases a child change as if over had already been applied.
	Rebase(a, over Change) Change

	// Tag fills in the revision on a change built without one yet (e.g.
	// a change built by an editor before its containing transaction was
	// assigned a revision).
	Tag(a Change, r revision.Revision) Change

	// Equal reports whether two child changes are equivalent. Mark merge
	// does not call it: marks carrying a child change always have
	// Count == 1, and merge simply refuses any mark that carries one.
	Equal(a, b Change) bool
}

// IsEmpty reports whether a Change is the zero value, a convenience used
// throughout compose/invert/rebase to skip a Hook call when there is
// nothing to combine.
func IsEmpty(c Change) bool { return c == nil }
