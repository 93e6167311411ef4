package protocol

// NetworkTick is the monotonically increasing simulation clock. It is never
// decremented except by the rollback routine, which resets it to a known
// past value and then advances it back to the present.
type NetworkTick uint64

// NetID is a stable identifier chosen by the server to name a replicated
// entity on the wire. It is created the first time a server snapshot
// references it and retired when the server marks the entity destroyed.
type NetID uint64

// ReplicationID is the index of a component's registration in the
// replication registry. Assignment order must be identical on every peer.
type ReplicationID uint16

// ComponentUpdate is one component's serialized bytes for one entity.
type ComponentUpdate struct {
	ReplicationID ReplicationID `msgpack:"r"`
	Bytes         []byte        `msgpack:"b"`
}

// EntityUpdate bundles every update and removal for a single entity within
// one Snapshot.
type EntityUpdate struct {
	NetID     NetID             `msgpack:"n"`
	Updates   []ComponentUpdate `msgpack:"u"`
	Removals  []ReplicationID   `msgpack:"rm"`
}

// Snapshot is the server's per-tick authoritative state message, sent once
// per server tick on the REPLICATION channel.
type Snapshot struct {
	Tick     NetworkTick    `msgpack:"t"`
	Entities []EntityUpdate `msgpack:"e"`
	Despawns []NetID        `msgpack:"d"`
}

// InputPacket is sent once per client tick on the INPUT channel. NetID is
// the server-side identity of the controlled entity, translated from the
// client's local identity via its NetID map before sending.
type InputPacket struct {
	NetID   NetID           `msgpack:"n"`
	Tick    NetworkTick     `msgpack:"t"`
	History HistoryWireForm `msgpack:"h"`
}

// HistoryWireForm is the serializable projection of an inputhist.History:
// a contiguous run of opaque, already-encoded input states, newest first,
// anchored at HeadTick.
type HistoryWireForm struct {
	HeadTick NetworkTick `msgpack:"head"`
	States   [][]byte    `msgpack:"s"`
}

// Handshake is exchanged on connection, before either peer trusts the
// other's replication-registry order (Invariant 1).
type Handshake struct {
	Version         int    `msgpack:"v"`
	PlayerName      string `msgpack:"name"`
	RegistryLength  int    `msgpack:"reg_len"`
	TickPeriodMicro int64  `msgpack:"period_us"`
}

// MsgType tags an application-level message multiplexed on a channel.
type MsgType uint8

const (
	MsgHandshake MsgType = iota
	MsgInput
	MsgState
	MsgDisconnect
)
