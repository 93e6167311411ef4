package tick

import "time"

// Synchronizer implements the client-side policy that biases the tick
// clock to run slightly ahead of the latest server tick by ~LeadFactor·RTT
// (§4.5). The intent: inputs for tick t reach the server before the server
// processes t.
type Synchronizer struct {
	// LeadFactor is the RTT multiplier used to compute the lead target.
	// Spec default is 4; any value exceeding one round trip plus
	// simulation jitter is acceptable (§9 open question).
	LeadFactor float64

	// CatchupCap bounds how much budget a single Observe call may add, so
	// the client catches up by at most this many ticks per wall update.
	// Spec default is 2 * Period.
	CatchupCap time.Duration
}

// NewSynchronizer returns a Synchronizer configured with the spec defaults
// for the given tick period.
func NewSynchronizer(period time.Duration) *Synchronizer {
	return &Synchronizer{LeadFactor: 4, CatchupCap: 2 * period}
}

// Bias computes the accumulator deficit to add, given the latest observed
// server tick, the current RTT estimate, the client's current tick, and
// the fixed period. It implements:
//
//	lead_target  = LeadFactor * rtt
//	desired_tick = server_tick + lead_target / period
//	deficit      = (desired_tick - current_tick) * period
//	return clamp(deficit, 0, CatchupCap)
func (s *Synchronizer) Bias(serverTick, currentTick NetworkTick, rtt, period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	leadTarget := time.Duration(s.LeadFactor * float64(rtt))
	leadTicks := float64(leadTarget) / float64(period)
	desiredTick := float64(serverTick) + leadTicks
	deficit := time.Duration((desiredTick - float64(currentTick)) * float64(period))

	if deficit < 0 {
		return 0
	}
	if deficit > s.CatchupCap {
		return s.CatchupCap
	}
	return deficit
}

// Observe is a convenience wrapper that computes the bias and adds it
// directly to clk's budget, as the Automatic policy does on every new
// snapshot arrival.
func (s *Synchronizer) Observe(clk *Clock, serverTick NetworkTick, rtt time.Duration) {
	bias := s.Bias(serverTick, clk.Tick(), rtt, clk.Period)
	clk.AddBudget(bias)
}
