// Package metrics exposes the core's Prometheus instrumentation: one
// registry-backed counter or gauge per countable event named in the
// component designs (ticks run, snapshots emitted/applied, rollbacks,
// resimulated ticks, input packets, channel backlog). The collectors are
// registered on the default Prometheus registry; no binary in this module
// serves that registry over HTTP, and tests may ignore it entirely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "ticks_processed_total",
		Help:      "Number of simulation passes executed, including resimulation passes.",
	})

	SnapshotsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "snapshots_sent_total",
		Help:      "Number of Snapshot messages emitted by the server.",
	})

	SnapshotsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "snapshots_applied_total",
		Help:      "Number of Snapshot messages accepted by a client (excludes duplicate/stale drops).",
	})

	SnapshotsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "snapshots_dropped_total",
		Help:      "Number of Snapshot messages dropped for carrying a tick <= last applied (Invariant 5).",
	})

	RollbacksTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "rollbacks_triggered_total",
		Help:      "Number of times the client transitioned Running -> Rewinding.",
	})

	ResimulatedTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "resimulated_ticks_total",
		Help:      "Number of passes executed while in the Resimulating state.",
	})

	InputPacketsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "input_packets_sent_total",
		Help:      "Number of InputPacket messages sent by a client.",
	})

	InputPacketsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rayman",
		Name:      "input_packets_applied_total",
		Help:      "Number of InputPacket messages installed by the server.",
	})

	ChannelQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rayman",
		Name:      "channel_queue_depth",
		Help:      "Outstanding buffered payloads per channel.",
	}, []string{"channel"})
)
