// Package metrics holds the Prometheus collectors of both processes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of an inbound real-time event
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeRateLimited = "rate_limited"
)

// Outcomes of a queue delivery
const (
	OutcomeAck  = "ack"
	OutcomeNak  = "nak"
	OutcomeTerm = "term"
)

var (
	// RealtimeSessions is the number of open real-time sessions on this process.
	RealtimeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sociallink_realtime_sessions",
			Help: "Number of open real-time sessions on this process",
		},
	)

	// RealtimeInboundEventsTotal counts inbound events by name and outcome.
	RealtimeInboundEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sociallink_realtime_inbound_events_total",
			Help: "Total number of inbound real-time events",
		},
		[]string{"event", "outcome"},
	)

	// QueueMessagesTotal counts transcode job deliveries by how they were settled.
	QueueMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sociallink_queue_messages_total",
			Help: "Total number of job queue deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// TranscodeDuration tracks external transcoder runs.
	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sociallink_transcode_duration_seconds",
			Help:    "Duration of external transcoder runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"result"},
	)
)

// RecordInboundEvent counts one inbound event. Unknown event names are folded
// into a single label value to bound cardinality.
func RecordInboundEvent(event string, known bool, outcome string) {
	if !known {
		event = "unknown"
	}
	RealtimeInboundEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordTranscode observes one transcoder run
func RecordTranscode(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	TranscodeDuration.WithLabelValues(result).Observe(d.Seconds())
}
