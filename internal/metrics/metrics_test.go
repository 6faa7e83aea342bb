package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	method := "GET"
	path := "/reservations"
	status := "200"
	duration := 0.5

	RecordHTTPRequest(method, path, status, duration)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(method, path, status))
	assert.Equal(t, float64(1), count)

	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/reservations", "201", 0.1)
	RecordHTTPRequest("POST", "/reservations", "201", 0.2)
	RecordHTTPRequest("POST", "/reservations", "409", 0.05)

	created := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/reservations", "201"))
	conflict := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/reservations", "409"))

	assert.Equal(t, float64(2), created)
	assert.Equal(t, float64(1), conflict)
}

func TestRecordTransition(t *testing.T) {
	ReservationTransitionsTotal.Reset()

	RecordTransition("Pending")
	RecordTransition("Confirmed")
	RecordTransition("Confirmed")

	assert.Equal(t, float64(1), testutil.ToFloat64(ReservationTransitionsTotal.WithLabelValues("Pending")))
	assert.Equal(t, float64(2), testutil.ToFloat64(ReservationTransitionsTotal.WithLabelValues("Confirmed")))
}

func TestRecordRejection(t *testing.T) {
	ReservationRejectionsTotal.Reset()

	RecordRejection("confirm", "Reservation.CapacityExceeded")
	RecordRejection("create", "Reservation.DuplicateSlotReservation")

	assert.Equal(t, float64(1), testutil.ToFloat64(ReservationRejectionsTotal.WithLabelValues("confirm", "Reservation.CapacityExceeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ReservationRejectionsTotal.WithLabelValues("create", "Reservation.DuplicateSlotReservation")))
}

func TestRecordSweepCompleted(t *testing.T) {
	testCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gymslot_completion_sweep_completed_total_test",
			Help: "Total number of reservations completed by the sweep job",
		},
	)

	oldCounter := CompletedBySweepTotal
	CompletedBySweepTotal = testCounter
	defer func() { CompletedBySweepTotal = oldCounter }()

	RecordSweepCompleted(3)
	RecordSweepCompleted(0)

	assert.Equal(t, float64(3), testutil.ToFloat64(testCounter))
}

func TestRecordAdvisorRequest(t *testing.T) {
	AdvisorRequestsTotal.Reset()

	RecordAdvisorRequest("summary", "success")
	RecordAdvisorRequest("analysis", "error")

	assert.Equal(t, float64(1), testutil.ToFloat64(AdvisorRequestsTotal.WithLabelValues("summary", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(AdvisorRequestsTotal.WithLabelValues("analysis", "error")))
}

func TestRecordEvent(t *testing.T) {
	EventsDispatchedTotal.Reset()

	RecordEvent("reservation.created", "success")
	RecordEvent("reservation.created", "failed")
	RecordEvent("reservation.cancelled", "success")

	assert.Equal(t, float64(1), testutil.ToFloat64(EventsDispatchedTotal.WithLabelValues("reservation.created", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsDispatchedTotal.WithLabelValues("reservation.created", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EventsDispatchedTotal.WithLabelValues("reservation.cancelled", "success")))
}

func TestEventQueueLength(t *testing.T) {
	EventQueueLength.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(EventQueueLength))

	EventQueueLength.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(EventQueueLength))
}

func TestObserveLockWait(t *testing.T) {
	ObserveLockWait(0.002)
	assert.Equal(t, 1, testutil.CollectAndCount(SlotLockWaitSeconds))
}
