package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventConfirmed EventType = "reservation.confirmed"
	EventCancelled EventType = "reservation.cancelled"
	EventCompleted EventType = "reservation.completed"
)

// Event records a state change of a reservation. Mutating methods on
// Reservation return the events they produced; nothing is buffered on the
// aggregate itself.
type Event struct {
	ID                  uuid.UUID `json:"id"`
	Type                EventType `json:"type"`
	ReservationID       uuid.UUID `json:"reservation_id"`
	UserID              string    `json:"user_id"`
	GymProductID        uuid.UUID `json:"gym_product_id"`
	ReservationDateTime time.Time `json:"reservation_date_time"`
	Reason              string    `json:"reason,omitempty"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// EventPublisher hands committed events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

func newEvent(t EventType, r *Reservation, at time.Time) Event {
	return Event{
		ID:                  uuid.New(),
		Type:                t,
		ReservationID:       r.ID,
		UserID:              r.UserID,
		GymProductID:        r.GymProductID,
		ReservationDateTime: r.ReservationDateTime,
		OccurredAt:          at,
	}
}
