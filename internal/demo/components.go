// Package demo is a minimal gameplay fixture exercising the integration
// surface end to end: a replicated marker/counter pair for the basic
// sync scenarios, and a press-edge attack that spawns a replicated Marker
// for the predicted-spawn-survives-rollback scenario. It is an external collaborator to the
// core (§1) — cmd/ binaries and the scenario tests depend on it, the core
// packages never import it.
package demo

import "encoding/binary"

// Marker is a zero-sized replicated tag, the simplest possible component.
type Marker struct{}

func SerializeMarker(*Marker) []byte           { return []byte{1} }
func DeserializeMarker([]byte) (Marker, error) { return Marker{}, nil }

// Num is a single replicated counter.
type Num struct{ Value uint32 }

func SerializeNum(n *Num) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n.Value)
	return b
}

func DeserializeNum(b []byte) (Num, error) {
	if len(b) < 4 {
		return Num{}, errShortNum
	}
	return Num{Value: binary.BigEndian.Uint32(b)}, nil
}

// Position and Velocity mirror the teacher's original components; demo
// keeps them for a gameplay system's worth of body, not rendering.
type Position struct{ X, Y float64 }
type Velocity struct{ X, Y float64 }

// AttackButton is the only bit Intent currently carries; room is left in
// the byte layout for more.
const AttackButton uint8 = 1 << 0

// Intent is the per-tick input state recorded in an inputhist.History. Held
// is the raw button mask as read from the input source; JustPressed and
// JustReleased are synthesized by Edge relative to the previous tick.
type Intent struct {
	Held         uint8
	JustPressed  uint8
	JustReleased uint8
}

// Edge synthesizes just-pressed/just-released bits by comparing cur's raw
// Held mask against prev's, mirroring the teacher's attack charge/release
// edge tracking (internal/game/attack_test.go's press-then-release
// expectations) generalized to any bit in the mask.
func Edge(prev, cur Intent) Intent {
	cur.JustPressed = cur.Held &^ prev.Held
	cur.JustReleased = prev.Held &^ cur.Held
	return cur
}

func SerializeIntent(s Intent) []byte {
	return []byte{s.Held, s.JustPressed, s.JustReleased}
}

func DeserializeIntent(b []byte) (Intent, error) {
	if len(b) < 3 {
		return Intent{}, errShortIntent
	}
	return Intent{Held: b[0], JustPressed: b[1], JustReleased: b[2]}, nil
}

// AttackState tracks the charge-release attack's cooldown, mirroring the
// teacher's AttackState (internal/game/components.go) minus the rendering-
// facing FacingRight field.
type AttackState struct {
	Charging    bool
	ChargeTicks int
	Cooldown    int
}

// Fist is the teacher's charge-release projectile with its serializer pair.
// No system in this package spawns a Fist or registers it for replication.
type Fist struct {
	MaxDistance float64
}

func SerializeFist(f *Fist) []byte {
	b := make([]byte, 8)
	bits := int64(f.MaxDistance * 1000)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	return b
}

func DeserializeFist(b []byte) (Fist, error) {
	if len(b) < 8 {
		return Fist{}, errShortFist
	}
	var bits int64
	for i := 0; i < 8; i++ {
		bits |= int64(b[i]) << (8 * i)
	}
	return Fist{MaxDistance: float64(bits) / 1000}, nil
}
