package sim

import (
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/metrics"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Advance drives the Automatic tick policy: it spends dt of wall-clock
// budget, running one full phase-sequence pass (RunPass) per period while
// runCond (if non-nil) allows it (§4.4).
func (w *World) Advance(dt time.Duration, runCond func() bool) {
	w.Clock.Advance(dt, runCond, func() {
		metrics.TicksProcessed.Inc()
		w.RunPass()
	})
}

// Step drives the Manual tick policy: exactly one pass, ignoring the
// accumulator (§8 scenario 5).
func (w *World) Step() {
	w.Clock.Step(func() {
		metrics.TicksProcessed.Inc()
		w.RunPass()
	})
}

// StepN calls Step n times.
func (w *World) StepN(n int) {
	for i := 0; i < n; i++ {
		w.Step()
	}
}

// RunRollback executes the rollback procedure (§4.8) on a client world.
// Call it immediately after w.Rollback.Observe returns true, passing the
// tick the just-applied snapshot carried and the tick the client's clock
// was at before Observe was called. isBound reports whether a
// Replicate-marked entity already has an authoritative NetID; a nil isBound
// uses w.IsBoundToNetID, which consults the client Applier's NetID map.
func (w *World) RunRollback(isBound func(ecs.Entity) bool, syncedServerTick, presentTarget tick.NetworkTick) {
	if w.Rollback == nil {
		return
	}
	if isBound == nil {
		isBound = w.IsBoundToNetID
	}
	filter := ecs.NewFilter1[markers.Replicate](w.Ark)
	w.Rollback.Run(w.Clock, w.Ark, filter, isBound, syncedServerTick, presentTarget, func() {
		w.setResimulating(true)
		metrics.TicksProcessed.Inc()
		w.RunPass()
		w.setResimulating(false)
	})
}
