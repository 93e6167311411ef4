package tick

import (
	"reflect"
	"testing"
	"time"
)

// TestManualTickPacing mirrors spec scenario 5: with the Manual policy,
// advancing the server 10 ticks and the client 1 tick leaves the server at
// NetworkTick=10 and the client at NetworkTick=1; advancing the client 10
// more produces a tick of 11 or more.
func TestManualTickPacing(t *testing.T) {
	server := NewClock(DefaultPeriod)
	client := NewClock(DefaultPeriod)

	server.StepN(10, func() {})
	client.Step(func() {})

	if server.Tick() != 10 {
		t.Fatalf("server.Tick() = %d, want 10", server.Tick())
	}
	if client.Tick() != 1 {
		t.Fatalf("client.Tick() = %d, want 1", client.Tick())
	}

	client.StepN(10, func() {})
	if uint64(client.Tick()) < 11 {
		t.Fatalf("client.Tick() = %d, want >= 11", client.Tick())
	}
}

func TestAdvanceRunsWholePasses(t *testing.T) {
	c := NewClock(10 * time.Millisecond)
	passes := 0
	c.Advance(35*time.Millisecond, nil, func() { passes++ })

	if passes != 3 {
		t.Fatalf("passes = %d, want 3", passes)
	}
	if c.Tick() != 3 {
		t.Fatalf("c.Tick() = %d, want 3", c.Tick())
	}
}

func TestAdvanceRespectsRunCond(t *testing.T) {
	c := NewClock(10 * time.Millisecond)
	allowed := 1
	passes := 0
	c.Advance(50*time.Millisecond, func() bool {
		return passes < allowed
	}, func() { passes++ })

	if passes != 1 {
		t.Fatalf("passes = %d, want 1", passes)
	}
}

func TestRewindAndStepTo(t *testing.T) {
	c := NewClock(DefaultPeriod)
	c.StepN(5, func() {})
	if c.Tick() != 5 {
		t.Fatalf("c.Tick() = %d, want 5", c.Tick())
	}

	c.RewindTo(2)
	if c.Tick() != 2 {
		t.Fatalf("c.Tick() = %d, want 2", c.Tick())
	}

	var replayed []NetworkTick
	c.StepTo(5, func() { replayed = append(replayed, c.Tick()) })

	want := []NetworkTick{3, 4, 5}
	if !reflect.DeepEqual(replayed, want) {
		t.Fatalf("replayed = %v, want %v", replayed, want)
	}
}

func TestStepToPanicsOnUnreachableTarget(t *testing.T) {
	c := NewClock(DefaultPeriod)
	c.StepN(5, func() {})

	defer func() {
		if recover() == nil {
			t.Fatal("StepTo did not panic on an unreachable target")
		}
	}()
	c.StepTo(2, func() {})
}

func TestResumeSetsTickDirectly(t *testing.T) {
	c := NewClock(DefaultPeriod)
	c.StepN(2, func() {})

	c.Resume(5)
	if c.Tick() != 5 {
		t.Fatalf("c.Tick() = %d, want 5", c.Tick())
	}
}

func TestResumePanicsOnUnreachableTarget(t *testing.T) {
	c := NewClock(DefaultPeriod)
	c.StepN(5, func() {})

	defer func() {
		if recover() == nil {
			t.Fatal("Resume did not panic on an unreachable target")
		}
	}()
	c.Resume(2)
}
