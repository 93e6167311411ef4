package registry

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
)

// rawEntry adapts four caller-supplied functions into a componentEntry.
// This backs RegisterRaw, the escape hatch for component types whose
// gather/apply/has_removed/remove cannot be derived mechanically from a
// single serialize/deserialize pair (e.g. components with external side
// tables).
type rawEntry struct {
	gather     func(ecs.Entity) ([]byte, bool)
	apply      func(ecs.Entity, []byte) error
	hasRemoved func(ecs.Entity) bool
	remove     func(ecs.Entity)
	commit     func()
}

func (e *rawEntry) Gather(ent ecs.Entity) ([]byte, bool)    { return e.gather(ent) }
func (e *rawEntry) Apply(ent ecs.Entity, b []byte) error    { return e.apply(ent, b) }
func (e *rawEntry) HasRemoved(ent ecs.Entity) bool          { return e.hasRemoved(ent) }
func (e *rawEntry) Remove(ent ecs.Entity)                   { e.remove(ent) }
func (e *rawEntry) CommitPending() {
	if e.commit != nil {
		e.commit()
	}
}

// RegisterRaw registers a component type via an explicit quartet, for the
// cases the serialize/deserialize convenience form (RegisterSerde) can't
// express. The caller is responsible for its own staging discipline if it
// wants rollback to see a clean boundary.
func RegisterRaw(
	reg *Registry,
	gather func(ecs.Entity) ([]byte, bool),
	apply func(ecs.Entity, []byte) error,
	hasRemoved func(ecs.Entity) bool,
	remove func(ecs.Entity),
	commit func(),
) ReplicationID {
	return reg.append(&rawEntry{gather: gather, apply: apply, hasRemoved: hasRemoved, remove: remove, commit: commit})
}

// serdeEntry is the common-case quartet derived mechanically from a
// (serialize, deserialize) pair for component type T: gather/apply read
// and write T via an ark Map1[T], has_removed compares presence to the
// previous scan, and Apply stages into a Replicated[T] shadow committed in
// the Resync phase.
type serdeEntry[T any] struct {
	world *ecs.World

	live   *ecs.Map1[T]
	shadow *ecs.Map1[Replicated[T]]
	filter *ecs.Filter1[Replicated[T]]

	serialize   func(*T) []byte
	deserialize func([]byte) (T, error)

	prevPresent map[ecs.Entity]bool
}

// RegisterSerde registers component type T using a serialize/deserialize
// pair, deriving gather/apply/has_removed/remove and the shadow-staging
// commit mechanically. This is the form gameplay code uses for the common
// case (§4.2, C9's register_replicated_component).
func RegisterSerde[T any](reg *Registry, w *ecs.World, serialize func(*T) []byte, deserialize func([]byte) (T, error)) ReplicationID {
	e := &serdeEntry[T]{
		world:       w,
		live:        ecs.NewMap1[T](w),
		shadow:      ecs.NewMap1[Replicated[T]](w),
		filter:      ecs.NewFilter1[Replicated[T]](w),
		serialize:   serialize,
		deserialize: deserialize,
		prevPresent: make(map[ecs.Entity]bool),
	}
	return reg.append(e)
}

func (e *serdeEntry[T]) Gather(ent ecs.Entity) ([]byte, bool) {
	if !e.live.Has(ent) {
		return nil, false
	}
	v := e.live.Get(ent)
	return e.serialize(v), true
}

func (e *serdeEntry[T]) Apply(ent ecs.Entity, data []byte) error {
	v, err := e.deserialize(data)
	if err != nil {
		return fmt.Errorf("registry: deserialize component: %w", err)
	}
	if e.shadow.Has(ent) {
		sh := e.shadow.Get(ent)
		sh.Value = v
		return nil
	}
	e.shadow.Add(ent, &Replicated[T]{Value: v})
	return nil
}

func (e *serdeEntry[T]) HasRemoved(ent ecs.Entity) bool {
	present := e.live.Has(ent)
	was := e.prevPresent[ent]
	e.prevPresent[ent] = present
	return was && !present
}

func (e *serdeEntry[T]) Remove(ent ecs.Entity) {
	if e.live.Has(ent) {
		e.live.Remove(ent)
	}
	delete(e.prevPresent, ent)
}

// CommitPending materializes every entity's pending Replicated[T] shadow
// into its live T component, then clears the shadow.
func (e *serdeEntry[T]) CommitPending() {
	var pending []ecs.Entity
	query := e.filter.Query()
	for query.Next() {
		pending = append(pending, query.Entity())
	}
	query.Close()

	for _, ent := range pending {
		sh := e.shadow.Get(ent)
		value := sh.Value
		if e.live.Has(ent) {
			*e.live.Get(ent) = value
		} else {
			e.live.Add(ent, &value)
		}
		e.shadow.Remove(ent)
		e.prevPresent[ent] = true
	}
}
