package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymslot_reservation_transitions_total",
			Help: "Total number of reservation state changes by resulting status",
		},
		[]string{"status"},
	)

	ReservationRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymslot_reservation_rejections_total",
			Help: "Total number of rejected reservation commands by error code",
		},
		[]string{"operation", "code"},
	)

	SlotLockWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gymslot_slot_lock_wait_seconds",
			Help:    "Time spent waiting for a slot lock",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	AdvisorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymslot_advisor_requests_total",
			Help: "Total number of advisory text generation requests",
		},
		[]string{"operation", "status"},
	)

	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymslot_events_dispatched_total",
			Help: "Total number of reservation events handled by the dispatcher",
		},
		[]string{"type", "status"},
	)

	EventQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymslot_event_queue_length",
			Help: "Current length of the reservation event queue",
		},
	)

	CompletedBySweepTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymslot_completion_sweep_completed_total",
			Help: "Total number of reservations completed by the sweep job",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransition(status string) {
	ReservationTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordRejection(operation, code string) {
	ReservationRejectionsTotal.WithLabelValues(operation, code).Inc()
}

func ObserveLockWait(seconds float64) {
	SlotLockWaitSeconds.Observe(seconds)
}

func RecordAdvisorRequest(operation, status string) {
	AdvisorRequestsTotal.WithLabelValues(operation, status).Inc()
}

func RecordEvent(eventType, status string) {
	EventsDispatchedTotal.WithLabelValues(eventType, status).Inc()
}

func RecordSweepCompleted(n int) {
	CompletedBySweepTotal.Add(float64(n))
}
