// Package tick implements the fixed-timestep accumulator, the ordered
// per-tick phase sequence, and the client-side tick synchronizer.
package tick

import (
	"time"

	"github.com/andersfylling/rayman-slides/internal/protocol"
)

// NetworkTick is the monotonically increasing simulation clock (§3). It is
// never decremented except by the rollback routine.
type NetworkTick = protocol.NetworkTick

// Phase names the ordered labels a phase pass executes, in order.
type Phase string

// The six phases of a pass, in the order §4.4 requires.
const (
	PhaseUpdateTick Phase = "UpdateTick"
	PhaseResync     Phase = "Resync"
	PhaseBlueprint  Phase = "Blueprint"
	PhasePreUpdate  Phase = "PreUpdate"
	PhaseUpdate     Phase = "Update"
	PhasePostUpdate Phase = "PostUpdate"
)

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseUpdateTick, PhaseResync, PhaseBlueprint, PhasePreUpdate, PhaseUpdate, PhasePostUpdate}

// DefaultPeriod is the default fixed timestep, ~60Hz.
const DefaultPeriod = time.Second / 60

// FixedTime carries the fixed period and tick, for gameplay code to read in
// place of wall-clock time (§4.4, §9). Nothing in this module constructs it
// or hands it to systems; a sim.System reads its World's Clock instead.
type FixedTime struct {
	Period time.Duration
	Tick   NetworkTick
}

// Policy selects whether the accumulator drives ticking (Automatic) or a
// test/tool calls an explicit "do one tick" control (Manual). §4.4.
type Policy int

const (
	Automatic Policy = iota
	Manual
)

// Clock owns the accumulator budget and the current NetworkTick. It does
// not know about phases or systems; Advance/Step just decide how many
// times the caller's passFn runs.
type Clock struct {
	Period    time.Duration
	current   NetworkTick
	budget    time.Duration
	maxPasses int // safety bound per wall update, 0 = unbounded
}

// NewClock creates a clock with the given fixed period. A zero period
// defaults to DefaultPeriod.
func NewClock(period time.Duration) *Clock {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Clock{Period: period, maxPasses: 8}
}

// Tick returns the current NetworkTick.
func (c *Clock) Tick() NetworkTick { return c.current }

// SetMaxPasses bounds how many passes a single Advance call may spend;
// exceeding it leaves the remaining budget for the next wall update rather
// than spiral-of-death spinning. 0 means unbounded.
func (c *Clock) SetMaxPasses(n int) { c.maxPasses = n }

// AddBudget adds wall-clock seconds worth of budget directly; used by the
// Synchronizer to bias the accumulator (§4.5).
func (c *Clock) AddBudget(d time.Duration) { c.budget += d }

// Advance spends wall-clock delta dt, running passFn once per period while
// the budget covers it and runCond (if non-nil) returns true. It is the
// Automatic policy driver.
func (c *Clock) Advance(dt time.Duration, runCond func() bool, passFn func()) {
	c.budget += dt
	passes := 0
	for c.budget >= c.Period {
		if runCond != nil && !runCond() {
			break
		}
		if c.maxPasses > 0 && passes >= c.maxPasses {
			break
		}
		c.budget -= c.Period
		c.current++
		passFn()
		passes++
	}
}

// Step advances exactly one tick unconditionally, ignoring the accumulator.
// It is the Manual policy driver (§8 scenario 5).
func (c *Clock) Step(passFn func()) {
	c.current++
	passFn()
}

// StepN calls Step n times.
func (c *Clock) StepN(n int, passFn func()) {
	for i := 0; i < n; i++ {
		c.Step(passFn)
	}
}

// RewindTo sets the clock to a known past tick, for rollback. The
// accumulator budget is left untouched: per Invariant 4 this transition is
// atomic with respect to the phase sequence, and the caller (rollback
// controller) is responsible for replaying forward via StepTo before
// handing control back to Advance/Step.
func (c *Clock) RewindTo(t NetworkTick) {
	c.current = t
}

// StepTo runs passFn repeatedly (via Step) until the tick reaches target.
// It panics if target is behind the current tick, since that can only mean
// the rollback routine was asked to fast-forward past itself (§7 kind 5,
// "not possible by construction").
func (c *Clock) StepTo(target NetworkTick, passFn func()) {
	if target < c.current {
		panic("tick: StepTo target behind current tick")
	}
	for c.current < target {
		c.Step(passFn)
	}
}

// Resume hands the tick counter to t without invoking passFn. It exists
// solely for the rollback controller: once resimulation has caught up to
// one tick short of the pass that is still executing and triggered the
// rollback, Resume lets that same still-running pass own t's phases
// instead of running them a second time. It panics if t is behind the
// current tick, for the same reason StepTo does.
func (c *Clock) Resume(t NetworkTick) {
	if t < c.current {
		panic("tick: Resume target behind current tick")
	}
	c.current = t
}
