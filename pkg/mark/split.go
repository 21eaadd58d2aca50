package mark

import "github.com/kasuganosora/seqfield/pkg/revision"

// Split produces two marks of counts k and Count-k from m, splitting any
// atom-ID ranges and cell ID accordingly and copying (never sharing)
// lineage/adjacency hints, per spec §4.1. 0 < k < m.Count must hold; m
// must not carry a child change (child-change-bearing marks always have
// Count == 1 and so are never split).
func Split(m Mark, k int) (Mark, Mark) {
	if k <= 0 || k >= m.Count {
		panic("mark.Split: k out of range")
	}
	if m.Changes != nil {
		panic("mark.Split: cannot split a mark carrying a child change")
	}
	first := m
	first.Count = k
	second := m
	second.Count = m.Count - k

	if m.Cell != nil {
		firstCell := m.Cell.Clone()
		secondCell := m.Cell.WithOffset(k)
		first.Cell = &firstCell
		second.Cell = &secondCell
	}

	first.Effect, second.Effect = splitEffect(m.Effect, k, m.Count-k)
	return first, second
}

func splitEffect(e Effect, k, rest int) (Effect, Effect) {
	switch v := e.(type) {
	case NoOpEffect:
		return NoOpEffect{}, NoOpEffect{}
	case TombstoneEffect:
		return TombstoneEffect{}, TombstoneEffect{}
	case InsertEffect:
		return InsertEffect{ID: v.ID}, InsertEffect{ID: v.ID.Plus(revision.LocalID(k))}
	case PinEffect:
		return PinEffect{ID: v.ID}, PinEffect{ID: v.ID.Plus(revision.LocalID(k))}
	case RemoveEffect:
		a := RemoveEffect{ID: v.ID, IDOverride: v.IDOverride}
		b := RemoveEffect{ID: v.ID.Plus(revision.LocalID(k)), IDOverride: offsetAtomPtr(v.IDOverride, k)}
		return a, b
	case MoveOutEffect:
		a := MoveOutEffect{ID: v.ID, FinalEndpoint: v.FinalEndpoint, IDOverride: v.IDOverride}
		b := MoveOutEffect{ID: v.ID.Plus(revision.LocalID(k)), FinalEndpoint: offsetAtomPtr(v.FinalEndpoint, k), IDOverride: offsetAtomPtr(v.IDOverride, k)}
		return a, b
	case MoveInEffect:
		a := MoveInEffect{ID: v.ID, FinalEndpoint: v.FinalEndpoint}
		b := MoveInEffect{ID: v.ID.Plus(revision.LocalID(k)), FinalEndpoint: offsetAtomPtr(v.FinalEndpoint, k)}
		return a, b
	case AttachAndDetachEffect:
		attachA, attachB := splitEffect(v.Attach, k, rest)
		detachA, detachB := splitEffect(v.Detach, k, rest)
		return AttachAndDetachEffect{Attach: attachA, Detach: detachA}, AttachAndDetachEffect{Attach: attachB, Detach: detachB}
	default:
		panic("mark.Split: unknown effect kind")
	}
}

// offsetAtomPtr shifts an atom-ID-valued field (IDOverride, FinalEndpoint)
// by k local IDs for the second half of a split mark, since each such
// field names the atom paired with the corresponding cell in the same
// run.
func offsetAtomPtr(a *revision.AtomID, k int) *revision.AtomID {
	if a == nil {
		return nil
	}
	v := a.Plus(revision.LocalID(k))
	return &v
}
