// Package fielderrors is the typed error taxonomy the core raises: the
// two fatal conditions named in spec §7 (Precondition, Metadata-missing)
// and ErrChildChange, which wraps an error returned by a childchange.Hook
// implementation. The remaining taxonomy entries (Unresolved move
// endpoint, Lineage ambiguity) are never surfaced — they are resolved
// internally per the documented recovery rule — so neither gets a type
// here.
package fielderrors

import "fmt"

// ErrPrecondition reports that an operator was called with structurally
// invalid input — a bug in the caller, never produced by a correct
// operator on well-formed input.
type ErrPrecondition struct {
	Reason string
}

func (e *ErrPrecondition) Error() string {
	return "precondition violated: " + e.Reason
}

// NewErrPrecondition builds an ErrPrecondition with the given reason.
func NewErrPrecondition(reason string) *ErrPrecondition {
	return &ErrPrecondition{Reason: reason}
}

// ErrMetadataMissing reports that a revision referenced by a change was
// not found in the RevisionMetadata source during compose/rebase.
type ErrMetadataMissing struct {
	Revision any
}

func (e *ErrMetadataMissing) Error() string {
	return fmt.Sprintf("revision metadata missing for %v", e.Revision)
}

// NewErrMetadataMissing builds an ErrMetadataMissing for revision r.
func NewErrMetadataMissing(r any) *ErrMetadataMissing {
	return &ErrMetadataMissing{Revision: r}
}

// ErrChildChange wraps an error returned by a childchange.Hook
// implementation, propagated unchanged per spec §7.
type ErrChildChange struct {
	Err error
}

func (e *ErrChildChange) Error() string {
	return "child change error: " + e.Err.Error()
}

func (e *ErrChildChange) Unwrap() error { return e.Err }

// NewErrChildChange wraps err as an ErrChildChange. Returns nil if err is
// nil, so callers can write `if err := child.Foo(); err != nil { return
// fielderrors.NewErrChildChange(err) }` without a redundant nil check.
func NewErrChildChange(err error) error {
	if err == nil {
		return nil
	}
	return &ErrChildChange{Err: err}
}

// Panic panics with err. Per SPEC_FULL §7, ErrPrecondition and
// ErrMetadataMissing are the only two kinds an operator may panic with;
// a caller at an ambient boundary can turn such a panic back into an
// error with Recover. Neither cmd/fieldctl nor cmd/fieldmcp calls
// Recover.
func Panic(err error) {
	panic(err)
}

// Recover is called from a deferred function at an ambient-layer boundary
// to turn a Panic(err) back into a returned error. recovered is the value
// returned by the builtin recover(); it is nil if there was nothing to
// recover. Re-panics unless the recovered value is an *ErrPrecondition or
// an *ErrMetadataMissing (an *ErrChildChange is re-panicked too), since
// anything else indicates a genuine bug rather than a documented
// precondition/metadata failure.
func Recover(recovered any) error {
	if recovered == nil {
		return nil
	}
	switch err := recovered.(type) {
	case *ErrPrecondition, *ErrMetadataMissing:
		return err.(error)
	case error:
		panic(recovered)
	default:
		panic(recovered)
	}
}
