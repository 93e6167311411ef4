package replicate

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/protocol"
	"github.com/andersfylling/rayman-slides/internal/registry"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Applier performs the client's pre-tick snapshot application (§4.3
// "Client apply"). It owns the client's NetIDMap and drives it from
// decoded Snapshot values: despawns first, then per-entity removals and
// updates. Applies write into the registry's Replicated[T] shadow; the
// Resync phase later calls Registry.Commit to materialize them.
type Applier struct {
	reg          *registry.Registry
	world        *ecs.World
	netIDs       *NetIDMap
	replicateMap *ecs.Map1[markers.Replicate]

	lastApplied    tick.NetworkTick
	hasAppliedOnce bool
}

// NewApplier creates an Applier over the given world and registry.
func NewApplier(reg *registry.Registry, w *ecs.World) *Applier {
	return &Applier{
		reg:          reg,
		world:        w,
		netIDs:       NewNetIDMap(),
		replicateMap: ecs.NewMap1[markers.Replicate](w),
	}
}

// NetIDs exposes the client's NetID map, e.g. for input replication to
// translate a controlled local entity back into its server NetID.
func (ap *Applier) NetIDs() *NetIDMap { return ap.netIDs }

// SyncedServerTick returns the tick of the most recently applied snapshot.
func (ap *Applier) SyncedServerTick() (tick.NetworkTick, bool) {
	return ap.lastApplied, ap.hasAppliedOnce
}

// Apply applies one decoded Snapshot. A snapshot with tick <= the last
// applied tick is silently dropped (Invariant 5, §7 — defensive against
// duplicate delivery on an already-ordered channel). Returns an error only
// for a protocol-level failure (an out-of-range ReplicationID, a decode
// failure inside a registered component) — fatal per §7 kind 2.
func (ap *Applier) Apply(snap protocol.Snapshot) (applied bool, err error) {
	if ap.hasAppliedOnce && snap.Tick <= ap.lastApplied {
		return false, nil
	}
	ap.lastApplied = snap.Tick
	ap.hasAppliedOnce = true

	for _, netID := range snap.Despawns {
		if e, ok := ap.netIDs.Lookup(netID); ok {
			ap.world.RemoveEntity(e)
		}
		// Unknown NetID on despawn is ignored (§7 kind 3): may legitimately
		// occur if a despawn for an id we never saw arrives.
		ap.netIDs.Retire(netID)
	}

	for _, eu := range snap.Entities {
		e, ok := ap.netIDs.Lookup(eu.NetID)
		if !ok {
			e = ap.world.NewEntity()
			ap.replicateMap.Add(e, &markers.Replicate{})
			ap.netIDs.Bind(eu.NetID, e)
		}

		for _, rid := range eu.Removals {
			ap.reg.Remove(rid, e)
		}
		for _, upd := range eu.Updates {
			if err := ap.reg.Apply(upd.ReplicationID, e, upd.Bytes); err != nil {
				return true, fmt.Errorf("replicate: apply snapshot tick %d: %w", snap.Tick, err)
			}
		}
	}

	return true, nil
}
