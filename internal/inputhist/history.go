// Package inputhist implements the bounded per-entity input history (C6):
// a deque of input states indexed by tick, trimmed against the last
// acknowledged server tick.
package inputhist

import (
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// NetworkTick aliases the core tick type for convenience.
type NetworkTick = tick.NetworkTick

// EdgeFn synthesizes edge fields (just-pressed/just-released) for a new
// input state given the immediately preceding one. prev is the zero value
// of S on the very first call. Implementations must be pure — rollback
// replays the exact same sequence of (prev, cur) pairs and must reproduce
// the exact edges originally observed (§4.6, §9).
type EdgeFn[S any] func(prev, cur S) S

// History is a deque of input states of type S, generic over the concrete
// gameplay input-state type. Element at offset k corresponds to tick
// HeadTick-k (§3).
type History[S any] struct {
	head    NetworkTick
	hasHead bool
	// entries[0] is the newest (HeadTick), entries[len-1] the oldest
	// retained.
	entries []S
	edge    EdgeFn[S]
}

// New creates an empty history. edge may be nil, in which case AddForTick
// stores states unmodified (no edge synthesis).
func New[S any](edge EdgeFn[S]) *History[S] {
	return &History[S]{edge: edge}
}

// HeadTick returns the largest tick for which an input was recorded
// (Invariant 3). Returns 0, false if nothing has ever been recorded.
func (h *History[S]) HeadTick() (NetworkTick, bool) {
	return h.head, h.hasHead
}

// Len returns the number of retained entries.
func (h *History[S]) Len() int { return len(h.entries) }

// AddForTick records s for tick t, synthesizing edges relative to the
// immediately preceding entry if an EdgeFn was configured. t must be
// strictly greater than the current HeadTick.
func (h *History[S]) AddForTick(t NetworkTick, s S) {
	if h.hasHead && t <= h.head {
		panic("inputhist: AddForTick called with non-increasing tick")
	}

	if h.edge != nil {
		var prev S
		if len(h.entries) > 0 {
			prev = h.entries[0]
		}
		s = h.edge(prev, s)
	}

	h.entries = append([]S{s}, h.entries...)
	h.head = t
	h.hasHead = true
}

// AtTick returns the element recorded for tick t, if still retained.
func (h *History[S]) AtTick(t NetworkTick) (S, bool) {
	var zero S
	if !h.hasHead || t > h.head {
		return zero, false
	}
	offset := h.head - t
	if int(offset) >= len(h.entries) {
		return zero, false
	}
	return h.entries[offset], true
}

// TrimBelow retains offsets [0, HeadTick-t], so the input for every tick
// from t up to HeadTick is still present (and nothing older).
func (h *History[S]) TrimBelow(t NetworkTick) {
	if !h.hasHead {
		return
	}
	if t > h.head {
		t = h.head
	}
	keep := int(h.head-t) + 1
	if keep >= len(h.entries) {
		return
	}
	if keep < 0 {
		keep = 0
	}
	h.entries = h.entries[:keep]
}

// Snapshot returns the retained entries newest-first, for wire encoding.
func (h *History[S]) Snapshot() (head NetworkTick, states []S) {
	out := make([]S, len(h.entries))
	copy(out, h.entries)
	return h.head, out
}

// Restore replaces the history's contents, for decoding a received
// InputPacket. states must be newest-first, matching Snapshot's output.
func (h *History[S]) Restore(head NetworkTick, states []S) {
	h.head = head
	h.hasHead = true
	h.entries = append([]S(nil), states...)
}
