// Package crossfield implements the cross-field manager (spec §4.7): a
// side table, keyed by atom ID, tracking move endpoints that span input
// changesets so compose/rebase can patch finalEndpoint chains and resolve
// a move's destination even when it was not seen in the same pass.
package crossfield

import "github.com/kasuganosora/seqfield/pkg/revision"

// EndpointKind says which half of a move an endpoint descriptor names.
type EndpointKind int

const (
	Source EndpointKind = iota
	Destination
)

// Endpoint is what the manager remembers about one side of a move: the
// atom ID of the other side, and whether this side has been chained
// further (finalEndpoint points past Other to the move's ultimate
// destination/source after composing multiple hops).
type Endpoint struct {
	Kind  EndpointKind
	Other revision.AtomID
	Final *revision.AtomID
}

// Manager is the side table. It is scoped to a single compose/rebase
// call; a fresh Manager is built per operator invocation.
type Manager struct {
	endpoints map[revision.AtomID]Endpoint
	mutedSet  map[revision.AtomID]bool
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{endpoints: make(map[revision.AtomID]Endpoint)}
}

// Record registers that atom id is one endpoint of a move whose other
// side is other.
func (m *Manager) Record(id revision.AtomID, kind EndpointKind, other revision.AtomID) {
	m.endpoints[id] = Endpoint{Kind: kind, Other: other}
}

// Get returns the endpoint descriptor recorded for id, if any.
func (m *Manager) Get(id revision.AtomID) (Endpoint, bool) {
	e, ok := m.endpoints[id]
	return e, ok
}

// SetFinal records that id's move chain's ultimate endpoint is final,
// patching the finalEndpoint field so a later compose pass can collapse
// the chain in O(1) instead of re-walking it.
func (m *Manager) SetFinal(id, final revision.AtomID) {
	e, ok := m.endpoints[id]
	if !ok {
		e = Endpoint{Other: final}
	}
	f := final
	e.Final = &f
	m.endpoints[id] = e
}

// Resolve walks the finalEndpoint chain starting at id to its end,
// returning the ultimate atom ID and the number of hops traversed. hops
// is 0 if id itself has no recorded chain (it is already final).
//
// This is the "Finalendpoint traversal helper" SPEC_FULL §4 adds: both
// pkg/compose (collapsing multi-hop chains in one pass) and pkg/delta
// (deciding whether a moved node's rename entry should point at the
// original or final atom ID) call through this rather than re-walking
// the chain by hand.
func (m *Manager) Resolve(id revision.AtomID) (final revision.AtomID, hops int) {
	seen := map[revision.AtomID]bool{}
	cur := id
	for {
		e, ok := m.endpoints[cur]
		if !ok || e.Final == nil || *e.Final == cur {
			return cur, hops
		}
		if seen[cur] {
			// A cycle can only arise from a malformed caller-supplied
			// chain (finalEndpoint fields are meant to be acyclic by
			// construction); stop rather than loop forever.
			return cur, hops
		}
		seen[cur] = true
		cur = *e.Final
		hops++
	}
}

// Mute marks id's move as unresolved-forever: its destination mark
// becomes a tombstone rather than a MoveIn, per spec §4.6's "Unknown-
// endpoint moves... if it never arrives the move is treated as muted"
// rule. The manager itself does not rewrite marks (that's the caller's
// job in pkg/rebase); it only remembers the decision so repeated queries
// agree.
func (m *Manager) Mute(id revision.AtomID) {
	e := m.endpoints[id]
	e.Final = nil
	m.endpoints[id] = e
	m.muted(id, true)
}

func (m *Manager) muted(id revision.AtomID, v bool) {
	if m.mutedSet == nil {
		m.mutedSet = make(map[revision.AtomID]bool)
	}
	m.mutedSet[id] = v
}

// IsMuted reports whether id was previously passed to Mute.
func (m *Manager) IsMuted(id revision.AtomID) bool {
	return m.mutedSet != nil && m.mutedSet[id]
}
