// Package replicate implements the Snapshot Codec (C3): server-side
// snapshot emission and client-side snapshot application, plus the NetID
// ↔ LocalEntity remapping table each peer keeps independently.
package replicate

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/protocol"
)

// NetID aliases the wire entity identifier.
type NetID = protocol.NetID

// NetIDMap is a partial bijection NetID ↔ LocalEntity (Invariant 2): a
// removed entry is never reused for a different NetID until the old
// NetID is marked retired.
type NetIDMap struct {
	toLocal map[NetID]ecs.Entity
	toNet   map[ecs.Entity]NetID
	retired map[NetID]bool
}

// NewNetIDMap creates an empty map.
func NewNetIDMap() *NetIDMap {
	return &NetIDMap{
		toLocal: make(map[NetID]ecs.Entity),
		toNet:   make(map[ecs.Entity]NetID),
		retired: make(map[NetID]bool),
	}
}

// Lookup resolves a NetID to its local entity, if bound.
func (m *NetIDMap) Lookup(id NetID) (ecs.Entity, bool) {
	e, ok := m.toLocal[id]
	return e, ok
}

// LookupEntity resolves a local entity to its NetID, if bound. Used to
// translate a client-controlled entity's local identity into the wire
// NetID before sending an InputPacket (§4.7).
func (m *NetIDMap) LookupEntity(e ecs.Entity) (NetID, bool) {
	id, ok := m.toNet[e]
	return id, ok
}

// Bind records a new NetID ↔ entity association. It does not consult the
// retired set: binding a previously retired id succeeds like any other, so
// callers should not reuse a retired id for a new entity.
func (m *NetIDMap) Bind(id NetID, e ecs.Entity) {
	m.toLocal[id] = e
	m.toNet[e] = id
}

// Retire removes both directions of the mapping for id and marks it
// retired so it is never reused for a different NetID.
func (m *NetIDMap) Retire(id NetID) {
	if e, ok := m.toLocal[id]; ok {
		delete(m.toNet, e)
	}
	delete(m.toLocal, id)
	m.retired[id] = true
}

// IsRetired reports whether id has previously been retired.
func (m *NetIDMap) IsRetired(id NetID) bool {
	return m.retired[id]
}
