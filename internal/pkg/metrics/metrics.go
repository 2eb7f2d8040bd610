/*
Package metrics registers the Prometheus instruments exposed on /metrics.

Counters and gauges are package-level so any component can record without
threading a registry through constructors.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebsocketConnections tracks currently open realtime connections by socket kind
	// (rooms, lobby, battle).
	WebsocketConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bitarena_websocket_connections",
		Help: "Currently open websocket connections by socket kind.",
	}, []string{"kind"})

	// EventsPublished counts event-bus publications by topic kind.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitarena_events_published_total",
		Help: "Events published to the bus by topic kind.",
	}, []string{"topic"})

	// SubmissionsTotal counts judged submissions by verdict (accepted, rejected, error).
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitarena_submissions_total",
		Help: "Judged submissions by verdict.",
	}, []string{"verdict"})

	// BattlesCompleted counts battles reaching a terminal state by trigger
	// (winners, timeout).
	BattlesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitarena_battles_completed_total",
		Help: "Battles reaching a terminal state by trigger.",
	}, []string{"trigger"})

	// RoomsReaped counts rooms deleted by the background reaper.
	RoomsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bitarena_rooms_reaped_total",
		Help: "Rooms deleted by the background reaper.",
	})

	// JudgeLatency observes wall time of judge verification calls per language.
	JudgeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bitarena_judge_latency_seconds",
		Help:    "Wall time of judge verification calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})
)
