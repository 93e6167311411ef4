// Package rollback implements the client's Prediction & Rollback state
// machine (C8): detecting a desync against a freshly-applied snapshot,
// rewinding the tick clock, purging unconfirmed speculative entities, and
// resimulating forward to the tick the client was already at.
package rollback

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/metrics"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// State is one of the three states of the client's tick controller (§4.8).
// Observe moves the controller to Rewinding; Run keeps it there through the
// rewind and purge, then moves to Resimulating and back to Running before
// it returns. Rewinding is therefore never a distinct tick: a caller sees
// it only between an Observe that returned true and the matching Run.
type State int

const (
	Running State = iota
	Rewinding
	Resimulating
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Rewinding:
		return "Rewinding"
	case Resimulating:
		return "Resimulating"
	default:
		return "Unknown"
	}
}

// DesyncPredicate decides whether a freshly-applied snapshot at
// snapshotTick constitutes a desync that must trigger a rollback. The
// permissive default (see PermissivePredicate) treats every snapshot as a
// desync; a stricter implementation could instead diff the registry's
// staged shadow against the live components before Commit runs.
type DesyncPredicate func(snapshotTick tick.NetworkTick) bool

// PermissivePredicate always reports a desync. It is cheaper than a
// component-by-component comparison and is the default per §4.8 ("either
// is correct, the permissive one is cheaper").
func PermissivePredicate(tick.NetworkTick) bool { return true }

// Controller drives the Running/Rewinding/Resimulating state machine for
// one client connection.
type Controller struct {
	state     State
	predicate DesyncPredicate
}

// NewController creates a Controller in the Running state using the
// permissive desync predicate.
func NewController() *Controller {
	return &Controller{state: Running, predicate: PermissivePredicate}
}

// SetPredicate overrides the desync predicate.
func (c *Controller) SetPredicate(p DesyncPredicate) {
	if p != nil {
		c.predicate = p
	}
}

// State reports the controller's current state.
func (c *Controller) State() State { return c.state }

// Observe is called from the Resync phase immediately after a snapshot has
// been accepted (Applier.Apply returned applied=true). It reports whether
// the caller must now invoke Run. Observe only ever transitions out of
// Running: while Run is resimulating, a snapshot applied by a resimulated
// pass's Resync phase is observed with State != Running, so Observe returns
// false and no nested rollback starts.
func (c *Controller) Observe(snapshotTick tick.NetworkTick) bool {
	if c.state != Running {
		return false
	}
	if !c.predicate(snapshotTick) {
		return false
	}
	c.state = Rewinding
	return true
}

// Run executes the rollback procedure (§4.8 steps 1-5). Call it
// immediately after Observe returns true, still within the Resync phase of
// the pass that applied the snapshot.
//
//   - syncedServerTick is the tick the just-applied snapshot carried.
//   - presentTarget is the tick the client's clock was at before Observe
//     was called. Run is itself invoked from inside that tick's own Resync
//     phase, so it only resimulates the ticks strictly between
//     syncedServerTick and presentTarget; presentTarget's remaining phases
//     are left for the still-executing outer pass to run exactly once,
//     rather than being replayed here and then run again by the caller.
//   - w is the world to purge speculative entities from.
//   - replicateFilter enumerates every Replicate-marked entity.
//   - isBound reports whether an entity already has an authoritative
//     NetID (i.e. is not a still-unconfirmed local prediction).
//   - passFn runs one full phase sequence pass at the clock's current tick;
//     Run drives it via clk.StepTo, which does not touch the accumulator
//     (Invariant 4: the rewind/resimulate transition is atomic w.r.t. the
//     phase sequence).
func (c *Controller) Run(
	clk *tick.Clock,
	w *ecs.World,
	replicateFilter *ecs.Filter1[markers.Replicate],
	isBound func(ecs.Entity) bool,
	syncedServerTick tick.NetworkTick,
	presentTarget tick.NetworkTick,
	passFn func(),
) {
	metrics.RollbacksTriggered.Inc()

	clk.RewindTo(syncedServerTick)
	purgeSpeculative(w, replicateFilter, isBound)

	c.state = Resimulating
	if presentTarget > syncedServerTick {
		clk.StepTo(presentTarget-1, func() {
			metrics.ResimulatedTicks.Inc()
			passFn()
		})
	}
	clk.Resume(presentTarget)
	c.state = Running
}

// purgeSpeculative destroys every Replicate-marked entity isBound reports
// as unconfirmed — the client's predicted spawns that the new snapshot did
// not corroborate.
func purgeSpeculative(w *ecs.World, filter *ecs.Filter1[markers.Replicate], isBound func(ecs.Entity) bool) {
	var doomed []ecs.Entity
	query := filter.Query()
	for query.Next() {
		e := query.Entity()
		if !isBound(e) {
			doomed = append(doomed, e)
		}
	}
	query.Close()

	for _, e := range doomed {
		w.RemoveEntity(e)
	}
}
