package replicate

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/protocol"
	"github.com/andersfylling/rayman-slides/internal/registry"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Emitter performs the server's post-tick snapshot production (§4.3
// "Server emit"): it enumerates every Replicate-marked entity, gathers
// registered-component updates and removals, and folds in despawns for
// entities destroyed since the previous Emit call. It owns NetID
// assignment: a NetID is minted the first time Emit observes a new
// Replicate entity, matching §3's "created the first time a server
// snapshot references it".
type Emitter struct {
	reg    *registry.Registry
	filter *ecs.Filter1[markers.Replicate]

	nextNetID NetID
	netIDs    *NetIDMap
	live      map[ecs.Entity]bool
}

// NewEmitter creates an Emitter over the given world and registry.
func NewEmitter(reg *registry.Registry, w *ecs.World) *Emitter {
	return &Emitter{
		reg:    reg,
		filter: ecs.NewFilter1[markers.Replicate](w),
		netIDs: NewNetIDMap(),
		live:   make(map[ecs.Entity]bool),
	}
}

// NetIDs exposes the server's NetID map, e.g. for input replication to
// translate an InputPacket's net_id back into the local controlled entity.
func (em *Emitter) NetIDs() *NetIDMap { return em.netIDs }

// NetIDFor returns the NetID assigned to a currently-known Replicate
// entity, if any — used by the server to translate an entity it just
// spawned into the id gameplay code may want to reference immediately.
func (em *Emitter) NetIDFor(e ecs.Entity) (NetID, bool) {
	return em.netIDs.LookupEntity(e)
}

// Emit produces one Snapshot for currentTick.
func (em *Emitter) Emit(currentTick tick.NetworkTick) protocol.Snapshot {
	snap := protocol.Snapshot{Tick: currentTick}

	seen := make(map[ecs.Entity]bool, len(em.live))

	query := em.filter.Query()
	for query.Next() {
		e := query.Entity()
		seen[e] = true

		netID, ok := em.netIDs.LookupEntity(e)
		if !ok {
			netID = em.nextNetID
			em.nextNetID++
			em.netIDs.Bind(netID, e)
			em.live[e] = true
		}

		eu := protocol.EntityUpdate{NetID: netID}
		for _, rid := range em.reg.IDs() {
			if data, present := em.reg.Gather(rid, e); present {
				eu.Updates = append(eu.Updates, protocol.ComponentUpdate{ReplicationID: rid, Bytes: data})
			}
			if em.reg.HasRemoved(rid, e) {
				eu.Removals = append(eu.Removals, rid)
			}
		}
		snap.Entities = append(snap.Entities, eu)
	}
	query.Close()

	for e := range em.live {
		if !seen[e] {
			netID, _ := em.netIDs.LookupEntity(e)
			snap.Despawns = append(snap.Despawns, netID)
			em.netIDs.Retire(netID)
			delete(em.live, e)
		}
	}

	return snap
}
