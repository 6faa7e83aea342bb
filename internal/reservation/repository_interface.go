package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	// UpdateStatus persists r only if the stored status still equals from.
	UpdateStatus(ctx context.Context, r *Reservation, from Status) error
	UserHasActiveReservationForSlot(ctx context.Context, userID string, gymProductID uuid.UUID, at time.Time) (bool, error)
	CountActiveForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (int, error)
	CountConfirmedForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (int, error)
	ListBySlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) ([]Reservation, error)
	ListByUser(ctx context.Context, userID string, includeCompleted bool) ([]Reservation, error)
	ListConfirmedBefore(ctx context.Context, cutoff time.Time, limit int) ([]Reservation, error)
}
