package events

import (
	"context"

	"gymslot/internal/logger"
	"gymslot/internal/metrics"
	"gymslot/internal/reservation"
)

func LogHandler(_ context.Context, e reservation.Event) error {
	logger.Info("reservation event",
		"event_id", e.ID,
		"type", e.Type,
		"reservation_id", e.ReservationID,
		"user_id", e.UserID,
		"gym_product_id", e.GymProductID,
		"reservation_date_time", e.ReservationDateTime,
		"occurred_at", e.OccurredAt,
	)
	return nil
}

func MetricsHandler(_ context.Context, e reservation.Event) error {
	metrics.RecordEvent(string(e.Type), "received")
	return nil
}

// DefaultHandlers are installed by the service binary.
func DefaultHandlers() []Handler {
	return []Handler{LogHandler, MetricsHandler}
}
