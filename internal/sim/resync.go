package sim

import (
	"github.com/andersfylling/rayman-slides/internal/metrics"
	"github.com/andersfylling/rayman-slides/internal/netchannel"
	"github.com/andersfylling/rayman-slides/internal/protocol"
)

// ClientResyncSystem builds the client's standard Resync-phase system: it
// drains every currently-buffered Snapshot off the REPLICATION channel (§5,
// "the snapshot decode loop processes at most all currently buffered
// snapshots per wall update"), applies each to w.Applier, commits the
// registry's staged shadow, and — on a real desync — runs the rollback
// procedure back up to the tick the client was already at.
//
// onError is called with any protocol-level failure (§7 kind 2); a nil
// onError logs nothing and simply stops draining for this pass.
func ClientResyncSystem(onError func(error)) System {
	return func(w *World) {
		if w.Applier == nil || w.Transport == nil {
			return
		}
		for {
			b, ok := w.Transport.Recv(netchannel.Replication)
			if !ok {
				return
			}
			snap, err := protocol.DecodeSnapshot(b)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}

			presentTarget := w.Clock.Tick()
			applied, err := w.Applier.Apply(snap)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			if !applied {
				metrics.SnapshotsDropped.Inc()
				continue
			}
			metrics.SnapshotsApplied.Inc()
			w.Reg.Commit()

			if w.Rollback.Observe(snap.Tick) {
				w.RunRollback(nil, snap.Tick, presentTarget)
			}
		}
	}
}

// ServerResyncSystem is the server's Resync-phase system: the server never
// applies a remote snapshot, so its only job is to materialize whatever a
// gameplay system staged into a Replicated[T] shadow this pass (gameplay
// normally writes live components directly on the server, so this is
// ordinarily a no-op, kept for symmetry with the client).
func ServerResyncSystem() System {
	return func(w *World) {
		w.Reg.Commit()
	}
}

// ServerEmitSystem builds the server's standard snapshot-emission system,
// meant for the PostUpdate phase: it emits one Snapshot for the current
// tick and sends it on the REPLICATION channel.
func ServerEmitSystem(onError func(error)) System {
	return func(w *World) {
		if w.Emitter == nil || w.Transport == nil {
			return
		}
		snap := w.Emitter.Emit(w.Clock.Tick())
		b, err := protocol.EncodeSnapshot(&snap)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if err := w.Transport.Send(netchannel.Replication, b); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		metrics.SnapshotsSent.Inc()
	}
}
