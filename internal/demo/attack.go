package demo

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/sim"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// CurrentIntent holds the Intent installed for the current tick — by the
// live input source outside resimulation, or by
// inputnet.CopyFromHistorySystem's install callback during resimulation.
// Gameplay systems only ever read this component, never the input source
// or the history directly, so they behave identically in both cases.
type CurrentIntent struct{ Intent }

// SpawnGuard remembers the last tick this controller's attack system fired
// a spawn, so replaying the same recorded press edge during resimulation
// does not spawn a second copy (§8 scenario 6; §9 "rollback must be a pure
// function of state plus recorded input").
type SpawnGuard struct {
	LastSpawnTick tick.NetworkTick
	HasFired      bool
}

// NewAttackSpawnSystem builds the system that spawns one Replicate+Marker
// entity on the tick a Control entity's attack-button press edge is
// observed (the teacher's charge/release fist, reduced to its
// spawn-on-press-edge core for the rollback scenario). It is registered
// for the Update phase.
func NewAttackSpawnSystem(setupWorld *sim.World) sim.System {
	intentMap := ecs.NewMap1[CurrentIntent](setupWorld.Ark)
	guardMap := ecs.NewMap1[SpawnGuard](setupWorld.Ark)
	markerMap := ecs.NewMap1[Marker](setupWorld.Ark)
	filter := ecs.NewFilter1[markers.Control](setupWorld.Ark)

	return func(w *sim.World) {
		var controlled []ecs.Entity
		query := filter.Query()
		for query.Next() {
			controlled = append(controlled, query.Entity())
		}
		query.Close()

		currentTick := w.Clock.Tick()
		for _, e := range controlled {
			if !intentMap.Has(e) {
				continue
			}
			in := intentMap.Get(e)
			if in.JustPressed&AttackButton == 0 {
				continue
			}

			if !guardMap.Has(e) {
				guardMap.Add(e, &SpawnGuard{})
			}
			guard := guardMap.Get(e)
			if guard.HasFired && guard.LastSpawnTick == currentTick {
				continue
			}
			guard.HasFired = true
			guard.LastSpawnTick = currentTick

			spawned := w.SpawnReplicated()
			markerMap.Add(spawned, &Marker{})
		}
	}
}
