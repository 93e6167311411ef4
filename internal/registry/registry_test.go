package registry

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/neterr"
)

type testNum struct {
	Value uint32
}

func serializeNum(n *testNum) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n.Value)
	return b
}

func deserializeNum(b []byte) (testNum, error) {
	return testNum{Value: binary.BigEndian.Uint32(b)}, nil
}

func TestRegisterSerdeRoundTrip(t *testing.T) {
	world := ecs.NewWorld()
	reg := New()

	id := RegisterSerde(reg, &world, serializeNum, deserializeNum)
	if id != 0 {
		t.Fatalf("id = %v, want 0", id)
	}
	if reg.Len() != 1 {
		t.Fatalf("reg.Len() = %d, want 1", reg.Len())
	}

	mapper := ecs.NewMap1[testNum](&world)
	entity := mapper.NewEntity(&testNum{Value: 7})

	data, ok := reg.Gather(id, entity)
	if !ok {
		t.Fatal("Gather: ok = false, want true")
	}

	decoded, err := deserializeNum(data)
	if err != nil {
		t.Fatalf("deserializeNum: %v", err)
	}
	if decoded != (testNum{Value: 7}) {
		t.Fatalf("decoded = %+v, want {Value:7}", decoded)
	}
}

func TestApplyStagesThenCommitMaterializes(t *testing.T) {
	world := ecs.NewWorld()
	reg := New()
	id := RegisterSerde(reg, &world, serializeNum, deserializeNum)

	mapper := ecs.NewMap1[testNum](&world)
	entity := mapper.NewEntity(&testNum{Value: 0})

	if err := reg.Apply(id, entity, serializeNum(&testNum{Value: 42})); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Before Commit, the live value is unchanged — the shadow is pending.
	v := mapper.Get(entity)
	if v.Value != 0 {
		t.Fatalf("v.Value = %d, want 0 before Commit", v.Value)
	}

	reg.Commit()

	v = mapper.Get(entity)
	if v.Value != 42 {
		t.Fatalf("v.Value = %d, want 42 after Commit", v.Value)
	}
}

func TestApplyOnUnknownEntityAddsComponentOnCommit(t *testing.T) {
	world := ecs.NewWorld()
	reg := New()
	id := RegisterSerde(reg, &world, serializeNum, deserializeNum)

	mapper := ecs.NewMap1[testNum](&world)
	entity := world.NewEntity()
	if mapper.Has(entity) {
		t.Fatal("mapper.Has(entity) = true before Apply, want false")
	}

	if err := reg.Apply(id, entity, serializeNum(&testNum{Value: 9})); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	reg.Commit()

	if !mapper.Has(entity) {
		t.Fatal("mapper.Has(entity) = false after Commit, want true")
	}
	if mapper.Get(entity).Value != 9 {
		t.Fatalf("Value = %d, want 9", mapper.Get(entity).Value)
	}
}

func TestHasRemovedDetectsRemovalSincePreviousScan(t *testing.T) {
	world := ecs.NewWorld()
	reg := New()
	id := RegisterSerde(reg, &world, serializeNum, deserializeNum)

	mapper := ecs.NewMap1[testNum](&world)
	entity := mapper.NewEntity(&testNum{Value: 1})

	// First scan: component present, no removal yet.
	if reg.HasRemoved(id, entity) {
		t.Fatal("HasRemoved = true before removal, want false")
	}

	mapper.Remove(entity)

	// Second scan: removed since the previous scan.
	if !reg.HasRemoved(id, entity) {
		t.Fatal("HasRemoved = false right after removal, want true")
	}

	// Third scan: already reported, no longer "since previous".
	if reg.HasRemoved(id, entity) {
		t.Fatal("HasRemoved = true on second check, want false")
	}
}

func TestGatherAbsentWhenComponentMissing(t *testing.T) {
	world := ecs.NewWorld()
	reg := New()
	id := RegisterSerde(reg, &world, serializeNum, deserializeNum)

	entity := world.NewEntity()
	if _, ok := reg.Gather(id, entity); ok {
		t.Fatal("Gather: ok = true, want false")
	}
}

func TestRegistrationOrderIsStableReplicationID(t *testing.T) {
	world := ecs.NewWorld()
	reg := New()

	idA := RegisterSerde(reg, &world, serializeNum, deserializeNum)
	idB := RegisterSerde(reg, &world, serializeNum, deserializeNum)

	if idA != 0 {
		t.Fatalf("idA = %v, want 0", idA)
	}
	if idB != 1 {
		t.Fatalf("idB = %v, want 1", idB)
	}
	want := []ReplicationID{0, 1}
	if !reflect.DeepEqual(reg.IDs(), want) {
		t.Fatalf("reg.IDs() = %v, want %v", reg.IDs(), want)
	}
}

func TestApplyOutOfRangeIsProtocolMismatch(t *testing.T) {
	reg := New()
	if err := reg.Apply(5, ecs.Entity{}, nil); !errors.Is(err, neterr.ErrProtocolMismatch) {
		t.Fatalf("Apply with out-of-range id: err = %v, want ErrProtocolMismatch", err)
	}
}
