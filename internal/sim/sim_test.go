package sim

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

type marker struct{}

func serializeMarker(*marker) []byte           { return []byte{1} }
func deserializeMarker([]byte) (marker, error) { return marker{}, nil }

type num struct{ Value uint32 }

func serializeNum(n *num) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n.Value)
	return b
}
func deserializeNum(b []byte) (num, error) {
	return num{Value: binary.BigEndian.Uint32(b)}, nil
}

func newLinkedPair(t *testing.T) (*World, *World) {
	server := NewWorld(RoleServer, time.Second)
	client := NewWorld(RoleClient, time.Second)

	a, b := netchannel.NewLoopbackPair(netchannel.DefaultChannelSet().Names, netchannel.DefaultMemoryCeiling, 0)
	server.Transport = a
	client.Transport = b
	client.SetConnected(true)
	return server, client
}

// TestBasicReplicationScenario mirrors end-to-end scenario 1: server spawns
// one (Replicate, Marker) entity; after one tick each side the client has
// exactly one entity carrying Marker.
func TestBasicReplicationScenario(t *testing.T) {
	server, client := newLinkedPair(t)

	RegisterReplicatedComponent(server, serializeMarker, deserializeMarker)
	RegisterReplicatedComponent(client, serializeMarker, deserializeMarker)

	markerMap := ecs.NewMap1[marker](server.Ark)
	e := server.SpawnReplicated()
	markerMap.Add(e, &marker{})

	server.AddSystem(tick.PhasePostUpdate, nil, ServerEmitSystem(nil))
	client.AddSystem(tick.PhaseResync, nil, ClientResyncSystem(nil))

	server.Step()
	client.Step()

	clientMarkerMap := ecs.NewMap1[marker](client.Ark)
	filter := ecs.NewFilter1[marker](client.Ark)
	q := filter.Query()
	count := 0
	for q.Next() {
		count++
	}
	q.Close()
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	_ = clientMarkerMap
}

// TestModificationPropagation mirrors scenario 2.
func TestModificationPropagation(t *testing.T) {
	server, client := newLinkedPair(t)

	RegisterReplicatedComponent(server, serializeNum, deserializeNum)
	RegisterReplicatedComponent(client, serializeNum, deserializeNum)

	numMap := ecs.NewMap1[num](server.Ark)
	e := server.SpawnReplicated()
	numMap.Add(e, &num{Value: 0})

	server.AddSystem(tick.PhasePostUpdate, nil, ServerEmitSystem(nil))
	client.AddSystem(tick.PhaseResync, nil, ClientResyncSystem(nil))

	server.Step()
	client.Step()

	numMap.Get(e).Value = 1

	server.Step()
	client.Step()

	filter := ecs.NewFilter1[num](client.Ark)
	q := filter.Query()
	found := false
	for q.Next() {
		n := q.Get()
		if n.Value != 1 {
			t.Fatalf("n.Value = %d, want 1", n.Value)
		}
		found = true
	}
	q.Close()
	if !found {
		t.Fatal("no num component found on client")
	}
}

// TestDespawnScenario mirrors scenario 4: destroying a replicated entity on
// the server leaves the client with zero copies after the next tick.
func TestDespawnScenario(t *testing.T) {
	server, client := newLinkedPair(t)

	RegisterReplicatedComponent(server, serializeMarker, deserializeMarker)
	RegisterReplicatedComponent(client, serializeMarker, deserializeMarker)

	markerMap := ecs.NewMap1[marker](server.Ark)
	e := server.SpawnReplicated()
	markerMap.Add(e, &marker{})

	server.AddSystem(tick.PhasePostUpdate, nil, ServerEmitSystem(nil))
	client.AddSystem(tick.PhaseResync, nil, ClientResyncSystem(nil))

	server.Step()
	client.Step()

	server.Ark.RemoveEntity(e)

	server.Step()
	client.Step()

	filter := ecs.NewFilter1[marker](client.Ark)
	q := filter.Query()
	count := 0
	for q.Next() {
		count++
	}
	q.Close()
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

// TestManualTickPacingScenario mirrors scenario 5.
func TestManualTickPacingScenario(t *testing.T) {
	server, client := newLinkedPair(t)

	server.StepN(10)
	client.Step()

	if server.Clock.Tick() != 10 {
		t.Fatalf("server.Clock.Tick() = %d, want 10", server.Clock.Tick())
	}
	if client.Clock.Tick() != 1 {
		t.Fatalf("client.Clock.Tick() = %d, want 1", client.Clock.Tick())
	}

	client.StepN(10)
	if client.Clock.Tick() < 11 {
		t.Fatalf("client.Clock.Tick() = %d, want >= 11", client.Clock.Tick())
	}
}

func TestRunPredicates(t *testing.T) {
	server, client := newLinkedPair(t)

	if !IsServer(server) {
		t.Fatal("IsServer(server) = false, want true")
	}
	if IsClient(server) {
		t.Fatal("IsClient(server) = true, want false")
	}

	if !IsClient(client) {
		t.Fatal("IsClient(client) = false, want true")
	}
	if IsServer(client) {
		t.Fatal("IsServer(client) = true, want false")
	}
	if !ClientConnected(client) {
		t.Fatal("ClientConnected(client) = false, want true")
	}
	if Resimulating(client) {
		t.Fatal("Resimulating(client) = true, want false")
	}
}
