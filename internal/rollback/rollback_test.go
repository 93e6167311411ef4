package rollback

import (
	"reflect"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

func TestObserveTransitionsRunningToRewinding(t *testing.T) {
	c := NewController()
	if c.State() != Running {
		t.Fatalf("initial state = %v, want Running", c.State())
	}

	triggered := c.Observe(10)
	if !triggered {
		t.Fatal("Observe returned false, want true")
	}
	if c.State() != Rewinding {
		t.Fatalf("state after Observe = %v, want Rewinding", c.State())
	}
}

func TestObserveIsNoOpWhenPredicateDeclinesDesync(t *testing.T) {
	c := NewController()
	c.SetPredicate(func(tick.NetworkTick) bool { return false })

	triggered := c.Observe(10)
	if triggered {
		t.Fatal("Observe returned true, want false")
	}
	if c.State() != Running {
		t.Fatalf("state = %v, want Running", c.State())
	}
}

func TestRunRewindsPurgesResimulatesAndReturnsToRunning(t *testing.T) {
	w := ecs.NewWorld()
	replicateMap := ecs.NewMap1[markers.Replicate](&w)
	filter := ecs.NewFilter1[markers.Replicate](&w)

	confirmed := w.NewEntity()
	replicateMap.Add(confirmed, &markers.Replicate{})

	speculative := w.NewEntity()
	replicateMap.Add(speculative, &markers.Replicate{})

	bound := map[ecs.Entity]bool{confirmed: true}
	isBound := func(e ecs.Entity) bool { return bound[e] }

	clk := tick.NewClock(0)
	clk.StepN(5, func() {})

	c := NewController()
	if !c.Observe(2) {
		t.Fatal("Observe returned false, want true")
	}

	// presentTarget (5) is the tick of the pass that is itself calling Run
	// (as if from that pass's Resync phase); Run must resimulate only 3 and
	// 4, leaving 5 for this (faked) outer pass to run once, on return.
	var passes []tick.NetworkTick
	c.Run(clk, &w, filter, isBound, 2, 5, func() {
		passes = append(passes, clk.Tick())
	})

	if c.State() != Running {
		t.Fatalf("state after Run = %v, want Running", c.State())
	}
	if clk.Tick() != 5 {
		t.Fatalf("clk.Tick() = %d, want 5", clk.Tick())
	}
	want := []tick.NetworkTick{3, 4}
	if !reflect.DeepEqual(passes, want) {
		t.Fatalf("passes = %v, want %v", passes, want)
	}

	remaining := map[ecs.Entity]bool{}
	q := filter.Query()
	for q.Next() {
		remaining[q.Entity()] = true
	}
	q.Close()

	if !remaining[confirmed] {
		t.Fatal("confirmed entity was purged, want kept")
	}
	if remaining[speculative] {
		t.Fatal("speculative entity was kept, want purged")
	}
}

func TestRunWithPresentTargetEqualToSyncedTickResimulatesNothing(t *testing.T) {
	w := ecs.NewWorld()
	filter := ecs.NewFilter1[markers.Replicate](&w)
	isBound := func(ecs.Entity) bool { return true }

	clk := tick.NewClock(0)
	clk.StepN(3, func() {})

	c := NewController()
	if !c.Observe(3) {
		t.Fatal("Observe returned false, want true")
	}

	var passes []tick.NetworkTick
	c.Run(clk, &w, filter, isBound, 3, 3, func() {
		passes = append(passes, clk.Tick())
	})

	if len(passes) != 0 {
		t.Fatalf("passes = %v, want none", passes)
	}
	if clk.Tick() != 3 {
		t.Fatalf("clk.Tick() = %d, want 3", clk.Tick())
	}
}

func TestStateStringValues(t *testing.T) {
	if got := Running.String(); got != "Running" {
		t.Fatalf("Running.String() = %q", got)
	}
	if got := Rewinding.String(); got != "Rewinding" {
		t.Fatalf("Rewinding.String() = %q", got)
	}
	if got := Resimulating.String(); got != "Resimulating" {
		t.Fatalf("Resimulating.String() = %q", got)
	}
}
