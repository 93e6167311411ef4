// Package netchannel implements named reliable-ordered byte-stream channels
// (C1) over a pluggable Transport. The transport itself — a concrete UDP
// socket, or an in-memory loopback used by tests — is treated as an
// external collaborator (spec §1); this package only needs it to expose
// Send/Recv, per-peer connection state, and an RTT estimate.
package netchannel

import (
	"time"
)

// Well-known channel names. Both peers must register the same channel
// table at connect (§4.1).
const (
	Replication = "REPLICATION"
	Input       = "INPUT"
)

// DefaultResendTimeout is the default resend timeout for a reliable-ordered
// channel.
const DefaultResendTimeout = 300 * time.Millisecond

// DefaultMemoryCeiling is the default per-channel outstanding-bytes ceiling.
const DefaultMemoryCeiling = 5 * 1024 * 1024 // 5 MiB

// Transport abstracts the underlying connection. Implementations must
// guarantee, per channel, reliable and ordered delivery: Recv never
// returns a payload out of the order its peer Send'd it in, and never
// silently drops one.
type Transport interface {
	// Send enqueues b for delivery on the named channel. It returns
	// neterr.ErrProtocolMismatch if the channel is unknown and
	// neterr.ErrTransportFailure if its memory ceiling would be exceeded.
	Send(channel string, b []byte) error

	// Recv dequeues the next pending payload on the named channel, if
	// any. ok is false if nothing is currently buffered.
	Recv(channel string) (b []byte, ok bool)

	// RTT returns the transport's current round-trip-time estimate.
	RTT() time.Duration

	// Close releases the transport's resources.
	Close() error
}

// ChannelSet names the channel table a peer registers at connect. Two
// peers must agree on Names (Invariant 1's sibling for the channel layer)
// before the connection is considered established.
type ChannelSet struct {
	Names         []string
	ResendTimeout time.Duration
	MemoryCeiling int
}

// DefaultChannelSet returns the spec's two named channels with default
// timeout and ceiling.
func DefaultChannelSet() ChannelSet {
	return ChannelSet{
		Names:         []string{Replication, Input},
		ResendTimeout: DefaultResendTimeout,
		MemoryCeiling: DefaultMemoryCeiling,
	}
}

// Matches reports whether two peers' channel tables agree in length and
// order.
func (cs ChannelSet) Matches(other ChannelSet) bool {
	if len(cs.Names) != len(other.Names) {
		return false
	}
	for i := range cs.Names {
		if cs.Names[i] != other.Names[i] {
			return false
		}
	}
	return true
}
