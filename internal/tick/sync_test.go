package tick

import (
	"testing"
	"time"
)

func TestSynchronizerBiasClampedToZero(t *testing.T) {
	s := NewSynchronizer(DefaultPeriod)
	// Client already far ahead of the lead target: no bias added.
	bias := s.Bias(100, 500, 20*time.Millisecond, DefaultPeriod)
	if bias != 0 {
		t.Fatalf("bias = %v, want 0", bias)
	}
}

func TestSynchronizerBiasClampedToCatchupCap(t *testing.T) {
	s := NewSynchronizer(DefaultPeriod)
	// Huge RTT -> huge desired lead -> bias clamps to 2*Period.
	bias := s.Bias(100, 100, 2*time.Second, DefaultPeriod)
	if bias != s.CatchupCap {
		t.Fatalf("bias = %v, want %v", bias, s.CatchupCap)
	}
}

func TestSynchronizerObserveAddsBudget(t *testing.T) {
	s := NewSynchronizer(DefaultPeriod)
	c := NewClock(DefaultPeriod)
	s.Observe(c, 10, 50*time.Millisecond)

	passes := 0
	c.Advance(0, nil, func() { passes++ })
	if passes <= 0 {
		t.Fatalf("passes = %d, want > 0", passes)
	}
}
