// Package metrics exposes Prometheus collectors for the realtime layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "active_documents",
		Help:      "Live shared documents held in memory.",
	})

	AttachedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "attached_connections",
		Help:      "Connections attached to a shared document.",
	})

	MergedOps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "merged_ops_total",
		Help:      "Document ops merged into shared documents.",
	})

	DroppedPayloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "dropped_payloads_total",
		Help:      "Inbound payloads dropped as malformed.",
	})

	Flushes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "flushes_total",
		Help:      "Successful document persistence flushes.",
	})

	FlushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "flush_failures_total",
		Help:      "Failed document persistence flushes.",
	})

	PresenceMembers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "presence_members",
		Help:      "Connections currently joined to presence rooms.",
	})

	PresenceEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codepair",
		Subsystem: "realtime",
		Name:      "presence_events_total",
		Help:      "Presence events broadcast to room members.",
	})
)
