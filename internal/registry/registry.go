// Package registry implements the Replication Registry (C2): an ordered
// table mapping a ReplicationID to a per-component {gather, apply,
// has_removed, remove} quartet, plus the Replicated[T] shadow-staging
// mechanism that lets rollback observe a clean snapshot boundary rather
// than a half-applied one (§4.2, §9).
package registry

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/neterr"
	"github.com/andersfylling/rayman-slides/internal/protocol"
)

// ReplicationID is the index of a component's registration in the
// registry. It must be assigned in the same order on every peer.
type ReplicationID = protocol.ReplicationID

// Replicated is the shadow tag a decoded component value is staged under
// before being committed to the live component during the Resync phase.
type Replicated[T any] struct {
	Value T
}

// componentEntry is the type-erased interface rawEntry and serdeEntry[T]
// implement, letting the Registry hold one ordered table of heterogeneous
// component registrations.
type componentEntry interface {
	Gather(e ecs.Entity) ([]byte, bool)
	Apply(e ecs.Entity, data []byte) error
	HasRemoved(e ecs.Entity) bool
	Remove(e ecs.Entity)
	CommitPending()
}

// Registry is the ordered table of component registrations. ReplicationID
// is the slice index; registration order must match across peers
// (Invariant 1).
type Registry struct {
	entries []componentEntry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Len returns the number of registered components.
func (r *Registry) Len() int { return len(r.entries) }

// Gather invokes the quartet's gather function for id.
func (r *Registry) Gather(id ReplicationID, e ecs.Entity) ([]byte, bool) {
	entry := r.entryFor(id)
	if entry == nil {
		return nil, false
	}
	return entry.Gather(e)
}

// Apply invokes the quartet's apply function for id, staging the decoded
// value into the Replicated[T] shadow.
func (r *Registry) Apply(id ReplicationID, e ecs.Entity, data []byte) error {
	entry := r.entryFor(id)
	if entry == nil {
		return fmt.Errorf("registry: replication id %d out of range: %w", id, neterr.ErrProtocolMismatch)
	}
	return entry.Apply(e, data)
}

// HasRemoved invokes the quartet's has_removed function for id.
func (r *Registry) HasRemoved(id ReplicationID, e ecs.Entity) bool {
	entry := r.entryFor(id)
	if entry == nil {
		return false
	}
	return entry.HasRemoved(e)
}

// Remove invokes the quartet's remove function for id.
func (r *Registry) Remove(id ReplicationID, e ecs.Entity) {
	entry := r.entryFor(id)
	if entry == nil {
		return
	}
	entry.Remove(e)
}

// Commit materializes every pending Replicated[T] shadow across every
// registered component type into its live component, in registration
// order. Called once per pass from the Resync phase (§4.2, §4.4).
func (r *Registry) Commit() {
	for _, entry := range r.entries {
		entry.CommitPending()
	}
}

// IDs returns every currently-registered ReplicationID, in order. Useful
// for iterating "every component type" during snapshot emission.
func (r *Registry) IDs() []ReplicationID {
	ids := make([]ReplicationID, len(r.entries))
	for i := range r.entries {
		ids[i] = ReplicationID(i)
	}
	return ids
}

func (r *Registry) entryFor(id ReplicationID) componentEntry {
	if int(id) < 0 || int(id) >= len(r.entries) {
		return nil
	}
	return r.entries[id]
}

func (r *Registry) append(e componentEntry) ReplicationID {
	id := ReplicationID(len(r.entries))
	r.entries = append(r.entries, e)
	return id
}
