// Package markers defines the zero-sized flag components shared across the
// core's layers: Replicate, Control, and Predict (§4.9, C9). They live in
// their own package, independent of the registry/replicate/rollback/sim
// layers that all need to reference them, to avoid an import cycle.
package markers

// Replicate marks that an entity participates in replication: on the
// server it is included in outbound snapshots; on the client it is
// purgeable during rollback if not yet bound to an authoritative NetID.
type Replicate struct{}

// Control marks that local input drives this entity.
type Control struct{}

// Predict marks that an entity is subject to rollback resimulation. In the
// simple policy this is implied by Control (§4.9).
type Predict struct{}
