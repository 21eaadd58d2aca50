package mark

import (
	"github.com/kasuganosora/seqfield/pkg/cell"
	"github.com/kasuganosora/seqfield/pkg/revision"
)

// TryMerge attempts to merge two adjacent marks (a immediately followed by
// b) into one, per spec §4.1's merge rule: same effect variant, same
// revision, no child change on either side, adjacent atom IDs, and
// (when both carry a cell reference) adjacent cell references with
// identical lineage. AttachAndDetach merges iff both its inner attach and
// inner detach merge. Returns the merged mark and true on success.
func TryMerge(a, b Mark) (Mark, bool) {
	if a.Changes != nil || b.Changes != nil {
		return Mark{}, false
	}
	if a.Tiebreak != b.Tiebreak {
		return Mark{}, false
	}
	if (a.Cell != nil) != (b.Cell != nil) {
		return Mark{}, false
	}
	if a.Cell != nil && !cell.AdjacentRefs(*a.Cell, *b.Cell, a.Count) {
		return Mark{}, false
	}
	eff, ok := mergeEffects(a.Effect, b.Effect, a.Count)
	if !ok {
		return Mark{}, false
	}
	merged := Mark{
		Count:    a.Count + b.Count,
		Cell:     a.Cell,
		Effect:   eff,
		Tiebreak: a.Tiebreak,
	}
	return merged, true
}

func mergeEffects(a, b Effect, countA int) (Effect, bool) {
	if a.Kind() != b.Kind() {
		return nil, false
	}
	switch av := a.(type) {
	case NoOpEffect:
		return NoOpEffect{}, true
	case TombstoneEffect:
		return TombstoneEffect{}, true
	case InsertEffect:
		bv := b.(InsertEffect)
		if !av.ID.AdjacentTo(bv.ID, countA) {
			return nil, false
		}
		return InsertEffect{ID: av.ID}, true
	case PinEffect:
		bv := b.(PinEffect)
		if !av.ID.AdjacentTo(bv.ID, countA) {
			return nil, false
		}
		return PinEffect{ID: av.ID}, true
	case RemoveEffect:
		bv := b.(RemoveEffect)
		if !av.ID.AdjacentTo(bv.ID, countA) {
			return nil, false
		}
		if !idOverrideAdjacent(av.IDOverride, bv.IDOverride, countA) {
			return nil, false
		}
		return RemoveEffect{ID: av.ID, IDOverride: av.IDOverride}, true
	case MoveOutEffect:
		bv := b.(MoveOutEffect)
		if !av.ID.AdjacentTo(bv.ID, countA) {
			return nil, false
		}
		if !finalEndpointAdjacent(av.FinalEndpoint, bv.FinalEndpoint, countA) {
			return nil, false
		}
		if !idOverrideAdjacent(av.IDOverride, bv.IDOverride, countA) {
			return nil, false
		}
		return MoveOutEffect{ID: av.ID, FinalEndpoint: av.FinalEndpoint, IDOverride: av.IDOverride}, true
	case MoveInEffect:
		bv := b.(MoveInEffect)
		if !av.ID.AdjacentTo(bv.ID, countA) {
			return nil, false
		}
		if !finalEndpointAdjacent(av.FinalEndpoint, bv.FinalEndpoint, countA) {
			return nil, false
		}
		return MoveInEffect{ID: av.ID, FinalEndpoint: av.FinalEndpoint}, true
	case AttachAndDetachEffect:
		bv := b.(AttachAndDetachEffect)
		attach, ok := mergeEffects(av.Attach, bv.Attach, countA)
		if !ok {
			return nil, false
		}
		detach, ok := mergeEffects(av.Detach, bv.Detach, countA)
		if !ok {
			return nil, false
		}
		return AttachAndDetachEffect{Attach: attach, Detach: detach}, true
	default:
		return nil, false
	}
}

func idOverrideAdjacent(a, b *revision.AtomID, count int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.AdjacentTo(*b, count)
}

func finalEndpointAdjacent(a, b *revision.AtomID, count int) bool {
	// Split offsets a FinalEndpoint by k for the second half (it names a
	// destination cell run that advances in lockstep with the source
	// run), so merge must accept the same count-based adjacency it uses
	// for ID and IDOverride, not exact equality.
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.AdjacentTo(*b, count)
}
