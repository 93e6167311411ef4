// Package inputnet implements Input Replication (C7): the client's
// outbound InputPacket send, the server's inbound apply, and the
// copy-from-history step that installs a tick's recorded input onto the
// controlled entity before simulation systems run.
package inputnet

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/andersfylling/rayman-slides/internal/inputhist"
	"github.com/andersfylling/rayman-slides/internal/markers"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/protocol"
	"github.com/andersfylling/rayman-slides/internal/replicate"
	"github.com/andersfylling/rayman-slides/internal/tick"
)

// Codec converts a concrete input-state type to and from wire bytes. The
// gameplay package instantiating History[S] supplies one.
type Codec[S any] struct {
	Serialize   func(S) []byte
	Deserialize func([]byte) (S, error)
}

// EncodeHistory projects a History[S] into its wire form.
func EncodeHistory[S any](h *inputhist.History[S], codec Codec[S]) protocol.HistoryWireForm {
	head, states := h.Snapshot()
	out := protocol.HistoryWireForm{HeadTick: head}
	for _, s := range states {
		out.States = append(out.States, codec.Serialize(s))
	}
	return out
}

// DecodeHistory rebuilds the raw (head, states) pair a History[S] needs
// for Restore. It does not construct the History itself — the caller
// decides whether to merge into an existing server-side history or
// replace it outright.
func DecodeHistory[S any](w protocol.HistoryWireForm, codec Codec[S]) (tick.NetworkTick, []S, error) {
	states := make([]S, 0, len(w.States))
	for i, b := range w.States {
		s, err := codec.Deserialize(b)
		if err != nil {
			return 0, nil, fmt.Errorf("inputnet: decode history entry %d: %w", i, err)
		}
		states = append(states, s)
	}
	return w.HeadTick, states, nil
}

// SendSystem runs in the client's PreUpdate phase. For every Control-marked
// entity that also carries a History[S], it resolves the entity's NetID
// (via netIDs, inverted) and sends an InputPacket on the INPUT channel.
// Per §4.7, the caller must gate this on "not resimulating && connected" —
// it is unconditional here so the predicate stays in the scheduler/run
// condition, not buried in this system.
func SendSystem[S any](
	w *ecs.World,
	controlMap *ecs.Map1[markers.Control],
	historyMap *ecs.Map1[inputhist.History[S]],
	netIDs *replicate.NetIDMap,
	transport netchannel.Transport,
	codec Codec[S],
	currentTick tick.NetworkTick,
) error {
	filter := ecs.NewFilter1[markers.Control](w)
	query := filter.Query()
	defer query.Close()

	for query.Next() {
		e := query.Entity()
		if !historyMap.Has(e) {
			continue
		}
		netID, ok := netIDs.LookupEntity(e)
		if !ok {
			// Not yet bound to an authoritative identity (e.g. a freshly
			// speculated local entity) — nothing to address the packet to.
			continue
		}

		h := historyMap.Get(e)
		pkt := protocol.InputPacket{
			NetID:   netID,
			Tick:    currentTick,
			History: EncodeHistory(h, codec),
		}
		b, err := protocol.EncodeInputPacket(&pkt)
		if err != nil {
			return fmt.Errorf("inputnet: encode input packet: %w", err)
		}
		if err := transport.Send(netchannel.Input, b); err != nil {
			return fmt.Errorf("inputnet: send input packet: %w", err)
		}
	}
	return nil
}

// ServerApplySystem runs in the server's PreUpdate phase. It drains every
// pending InputPacket off the INPUT channel and installs the decoded
// history onto the entity named by the packet's NetID. A packet naming an
// unknown NetID is a foreign/stale input (§7 kind 4) and is dropped rather
// than surfaced as an error.
func ServerApplySystem[S any](
	transport netchannel.Transport,
	netIDs *replicate.NetIDMap,
	historyMap *ecs.Map1[inputhist.History[S]],
	codec Codec[S],
	edge inputhist.EdgeFn[S],
) error {
	for {
		b, ok := transport.Recv(netchannel.Input)
		if !ok {
			return nil
		}
		pkt, err := protocol.DecodeInputPacket(b)
		if err != nil {
			return fmt.Errorf("inputnet: decode input packet: %w", err)
		}

		e, ok := netIDs.Lookup(pkt.NetID)
		if !ok {
			continue // §7 kind 4: foreign input, ignored.
		}

		head, states, err := DecodeHistory(pkt.History, codec)
		if err != nil {
			return fmt.Errorf("inputnet: decode history for net_id %d: %w", pkt.NetID, err)
		}
		if !historyMap.Has(e) {
			historyMap.Add(e, inputhist.New(edge))
		}
		h := historyMap.Get(e)
		h.Restore(head, states)
	}
}

// CopyFromHistorySystem reads each controlled entity's history at
// currentTick and installs it via install, so ordinary simulation systems
// observe the recorded state for that tick. On the server this runs every
// pass; on the client it must run only during resimulation (the live
// input source drives the current tick otherwise). An entity with no
// recorded input for currentTick is skipped — this is expected for the
// tick before its first input arrives.
func CopyFromHistorySystem[S any](
	w *ecs.World,
	controlMap *ecs.Map1[markers.Control],
	historyMap *ecs.Map1[inputhist.History[S]],
	currentTick tick.NetworkTick,
	install func(e ecs.Entity, s S),
) {
	filter := ecs.NewFilter1[markers.Control](w)
	query := filter.Query()
	defer query.Close()

	for query.Next() {
		e := query.Entity()
		if !historyMap.Has(e) {
			continue
		}
		h := historyMap.Get(e)
		if s, ok := h.AtTick(currentTick); ok {
			install(e, s)
		}
	}
}
