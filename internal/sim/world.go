// Package sim is the Integration Surface (C9): it wires the tick clock,
// replication registry, snapshot codec, input replication, and rollback
// controller around one ark ECS world, and exposes the public operations
// gameplay code is built against (register_replicated_component,
// add_system, spawn_replicated, the run-predicates, and the Replicate /
// Control / Predict markers).
package sim

import (
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/registry"
	"github.com/andersfylling/rayman-slides/internal/replicate"
	"github.com/andersfylling/rayman-slides/internal/rollback"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Role distinguishes the authoritative server world from a predicting
// client world; several run-predicates and the default Resync systems key
// off it.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// Replicate re-exports the entity-participates-in-replication marker.
type Replicate = markers.Replicate

// Control re-exports the input-originates-here marker.
type Control = markers.Control

// Predict re-exports the subject-to-rollback marker.
type Predict = markers.Predict

// System is one unit of scheduled work. It receives the World so it can
// reach the ark world, the registry, or any other core facility through
// it, exactly like gameplay code would.
type System func(w *World)

// RunCondition gates whether a System registered via AddSystem executes
// this pass. A nil condition always runs.
type RunCondition func(w *World) bool

type scheduledSystem struct {
	cond RunCondition
	fn   System
}

// World is the integration surface: one ark world plus the core
// facilities layered around it.
type World struct {
	Ark   *ecs.World
	Reg   *registry.Registry
	Clock *tick.Clock

	Role      Role
	Transport netchannel.Transport

	// Rollback is nil for a server world; a client world always has one.
	Rollback *rollback.Controller

	// Emitter is non-nil on a server world; Applier is non-nil on a client
	// world. Exactly one is populated, matching Role.
	Emitter *replicate.Emitter
	Applier *replicate.Applier

	replicateMap *ecs.Map1[markers.Replicate]
	controlMap   *ecs.Map1[markers.Control]
	predictMap   *ecs.Map1[markers.Predict]

	connected    bool
	resimulating bool

	systems map[tick.Phase][]scheduledSystem
}

// NewWorld creates an empty World of the given role with a fresh ark
// world, registry, and tick clock running at period (0 defaults to
// tick.DefaultPeriod). A client world also gets a rollback Controller; a
// server world's Rollback field stays nil.
func NewWorld(role Role, period time.Duration) *World {
	ark := ecs.NewWorld()
	w := &World{
		Ark:          &ark,
		Reg:          registry.New(),
		Clock:        tick.NewClock(period),
		Role:         role,
		replicateMap: ecs.NewMap1[markers.Replicate](&ark),
		controlMap:   ecs.NewMap1[markers.Control](&ark),
		predictMap:   ecs.NewMap1[markers.Predict](&ark),
		systems:      make(map[tick.Phase][]scheduledSystem, len(tick.Phases)),
	}
	if role == RoleClient {
		w.Rollback = rollback.NewController()
		w.Applier = replicate.NewApplier(w.Reg, w.Ark)
	} else {
		w.Emitter = replicate.NewEmitter(w.Reg, w.Ark)
	}
	return w
}

// RegisterReplicatedComponent registers component type T with a
// serialize/deserialize pair (the common case; §4.2, §4.9).
func RegisterReplicatedComponent[T any](w *World, serialize func(*T) []byte, deserialize func([]byte) (T, error)) registry.ReplicationID {
	return registry.RegisterSerde[T](w.Reg, w.Ark, serialize, deserialize)
}

// RegisterReplicatedComponentRaw registers a component via an explicit
// gather/apply/has_removed/remove quartet, for cases RegisterSerde's
// mechanical derivation cannot express.
func RegisterReplicatedComponentRaw(
	w *World,
	gather func(ecs.Entity) ([]byte, bool),
	apply func(ecs.Entity, []byte) error,
	hasRemoved func(ecs.Entity) bool,
	remove func(ecs.Entity),
	commit func(),
) registry.ReplicationID {
	return registry.RegisterRaw(w.Reg, gather, apply, hasRemoved, remove, commit)
}

// AddSystem registers sys to run during phase, gated on cond (nil runs
// unconditionally). Registration order is execution order within a phase.
func (w *World) AddSystem(phase tick.Phase, cond RunCondition, sys System) {
	w.systems[phase] = append(w.systems[phase], scheduledSystem{cond: cond, fn: sys})
}

// SpawnReplicated creates a new entity tagged Replicate. Go's static
// typing means it cannot accept a heterogeneous component list the way
// pseudocode can; the caller attaches further components through its own
// typed ecs.Map1[T] immediately after, exactly as gameplay code would for
// any other entity.
func (w *World) SpawnReplicated() ecs.Entity {
	e := w.Ark.NewEntity()
	w.replicateMap.Add(e, &markers.Replicate{})
	return e
}

// ReplicateMap exposes the Replicate marker's component map, e.g. for a
// rollback purge pass over a Filter1[markers.Replicate].
func (w *World) ReplicateMap() *ecs.Map1[markers.Replicate] { return w.replicateMap }

// ControlMap exposes the Control marker's component map.
func (w *World) ControlMap() *ecs.Map1[markers.Control] { return w.controlMap }

// PredictMap exposes the Predict marker's component map.
func (w *World) PredictMap() *ecs.Map1[markers.Predict] { return w.predictMap }

// SetConnected records whether the transport currently has an established
// peer; ClientConnected reads it back.
func (w *World) SetConnected(connected bool) { w.connected = connected }

// IsServer is a run-predicate: true for a RoleServer world.
func IsServer(w *World) bool { return w.Role == RoleServer }

// IsClient is a run-predicate: true for a RoleClient world.
func IsClient(w *World) bool { return w.Role == RoleClient }

// ClientConnected is a run-predicate: true once the transport reports an
// established connection.
func ClientConnected(w *World) bool { return w.connected }

// Resimulating is a run-predicate: true only while a rollback Run call is
// looping the phase sequence forward. Gameplay systems with external side
// effects (network sends, ordered logging) must be gated on !Resimulating
// per §9.
func Resimulating(w *World) bool { return w.resimulating }

// RunPass executes every registered system across all six phases, in
// phase order and registration order within each phase. It is the passFn
// Step/Advance (or a rollback.Controller.Run call, via RunRollback) drives.
func (w *World) RunPass() {
	for _, phase := range tick.Phases {
		for _, s := range w.systems[phase] {
			if s.cond != nil && !s.cond(w) {
				continue
			}
			s.fn(w)
		}
	}
}

// setResimulating is used by RunRollback to bracket each pass a
// rollback.Controller.Run call drives, so Resimulating() reports correctly
// for the systems in that pass.
func (w *World) setResimulating(v bool) { w.resimulating = v }

// IsBoundToNetID reports whether e already has an authoritative NetID
// bound in this client world's Applier — the isBound predicate
// RunRollback's purge step needs. Valid only on a client world.
func (w *World) IsBoundToNetID(e ecs.Entity) bool {
	if w.Applier == nil {
		return true
	}
	_, ok := w.Applier.NetIDs().LookupEntity(e)
	return ok
}
