// Package protocol defines shared types and version constants
// for client-server communication.
package protocol

import "fmt"

// Version constants for compatibility checking
const (
	ProtocolVersion = 1
	MinVersion      = 1
)

// Compatible reports whether a local and remote Handshake can communicate,
// per Invariant 1: both sides must run a mutually understood protocol
// version, agree on the replication registry's length (so ReplicationIDs
// line up across peers), and run the same fixed tick period (so a
// NetworkTick means the same wall-clock slice on both ends). It returns a
// descriptive error identifying the first mismatch found rather than a
// bare bool, since a handshake failure is always reported to the operator,
// never silently tolerated.
func Compatible(local, remote Handshake) error {
	if local.Version < MinVersion || remote.Version < MinVersion {
		return fmt.Errorf("protocol: incompatible version: local %d, remote %d (min %d)", local.Version, remote.Version, MinVersion)
	}
	if local.RegistryLength != remote.RegistryLength {
		return fmt.Errorf("protocol: replication registry length mismatch: local %d, remote %d", local.RegistryLength, remote.RegistryLength)
	}
	if local.TickPeriodMicro != remote.TickPeriodMicro {
		return fmt.Errorf("protocol: tick period mismatch: local %dus, remote %dus", local.TickPeriodMicro, remote.TickPeriodMicro)
	}
	return nil
}
