// Package neterr defines the core's error vocabulary. Every error the
// networked simulation core can raise is one of the five kinds below; the
// surface policy is that recoverable desyncs are absorbed by rollback and
// anything else is surfaced and terminates the process (no partial
// degradation).
package neterr

import "errors"

// Fatal errors: transport failure or protocol mismatch. The connection (or
// process) is expected to terminate on these.
var (
	// ErrTransportFailure covers a closed channel, failed handshake, or a
	// channel exceeding its memory ceiling.
	ErrTransportFailure = errors.New("neterr: transport failure")

	// ErrProtocolMismatch covers a replication id out of range, a decoder
	// failure, or a registry length disagreement at connect.
	ErrProtocolMismatch = errors.New("neterr: protocol mismatch")

	// ErrRollbackUnreachable fires only if present_target < SyncedServerTick,
	// which is not possible by construction; callers should treat a panic
	// here as an assertion failure, not a recoverable condition.
	ErrRollbackUnreachable = errors.New("neterr: rollback target unreachable")
)

// Ignorable kinds: the core drops these cases where it detects them without
// returning or logging an error; the sentinels name the kinds only.
var (
	// ErrUnknownNetID names a NetID the client has no mapping for, which may
	// legitimately occur if a remove arrives after a despawn the client
	// already processed.
	ErrUnknownNetID = errors.New("neterr: unknown net id")

	// ErrForeignInput names an input packet for an entity the sending
	// session does not own; the server ignores such packets silently.
	ErrForeignInput = errors.New("neterr: input for entity not owned by sender")
)

// Fatal reports whether err (or anything it wraps) is one of the fatal kinds.
func Fatal(err error) bool {
	return errors.Is(err, ErrTransportFailure) || errors.Is(err, ErrProtocolMismatch)
}
