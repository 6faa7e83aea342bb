package reservation

import (
	"fmt"
	"strings"
	"time"

	"gymslot/internal/apperr"
	"gymslot/internal/product"
	"gymslot/internal/schedule"

	"github.com/google/uuid"
)

const DefaultCancellationWindow = 2 * time.Hour

var (
	ErrUserRequired      = apperr.Validation("Reservation.ValidationError", "User ID is required")
	ErrProductRequired   = apperr.Validation("Reservation.ValidationError", "Gym product ID is required")
	ErrDateNotInFuture   = apperr.Validation("Reservation.ValidationError", "Reservation date must be in the future")
	ErrProductMissing    = apperr.Validation("Reservation.ValidationError", "Gym product is required")
	ErrReasonRequired    = apperr.Validation("Reservation.CancellationError", "Cancellation reason is required")
	ErrCannotConfirm     = apperr.Validation("Reservation.ConfirmationError", "Only pending reservations can be confirmed")
	ErrCannotCancel      = apperr.Validation("Reservation.CancellationError", "Only pending or confirmed reservations can be cancelled")
	ErrCannotComplete    = apperr.Validation("Reservation.CompletionError", "Only confirmed reservations can be completed")
	errUnknownTransition = apperr.Validation("Reservation.InvalidTransition", "Invalid reservation status transition")
)

var transitionErrors = map[Status]*apperr.Error{
	StatusConfirmed: ErrCannotConfirm,
	StatusCancelled: ErrCannotCancel,
	StatusCompleted: ErrCannotComplete,
}

type Reservation struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	UserID              string     `db:"user_id" json:"user_id"`
	GymProductID        uuid.UUID  `db:"gym_product_id" json:"gym_product_id"`
	ReservationDateTime time.Time  `db:"reservation_date_time" json:"reservation_date_time"`
	Status              Status     `db:"status" json:"status"`
	UserNotes           *string    `db:"user_notes" json:"user_notes,omitempty"`
	CancellationReason  *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt         *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// New creates a pending reservation. The reservation time must lie strictly
// after now.
func New(userID string, gymProductID uuid.UUID, at time.Time, notes *string, now time.Time) (*Reservation, []Event, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, ErrUserRequired
	}
	if gymProductID == uuid.Nil {
		return nil, nil, ErrProductRequired
	}
	if !at.After(now) {
		return nil, nil, ErrDateNotInFuture
	}

	r := &Reservation{
		ID:                  uuid.New(),
		UserID:              userID,
		GymProductID:        gymProductID,
		ReservationDateTime: at,
		Status:              StatusPending,
		UserNotes:           normalizeNotes(notes),
		CreatedAt:           now,
	}

	return r, []Event{newEvent(EventCreated, r, now)}, nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return nil
	}
	n := *notes
	return &n
}

func (r *Reservation) HasNotes() bool {
	return r.UserNotes != nil && strings.TrimSpace(*r.UserNotes) != ""
}

// ValidateBusinessRules checks the reservation time against the product
// schedule. Capacity is deliberately not checked here: admission may
// overbook and arbitration happens at confirmation.
func (r *Reservation) ValidateBusinessRules(p *product.Product, activeCount int) error {
	if p == nil {
		return ErrProductMissing
	}
	if !p.RequiresSchedule || p.IsValidReservationTime(r.ReservationDateTime) {
		return nil
	}
	return apperr.Validation("Reservation.ValidationError", scheduleMismatchMessage(p.Schedule, r.ReservationDateTime))
}

func scheduleMismatchMessage(s schedule.WeeklySchedule, at time.Time) string {
	day := at.Weekday()
	slots := s.SlotsFor(day)
	if len(slots) > 0 {
		return fmt.Sprintf("Invalid reservation time. Available slots for %s: %s", day, joinSlots(slots))
	}

	msg := fmt.Sprintf("No time slots are available for %s", day)
	var others []string
	for _, d := range s.Days() {
		others = append(others, fmt.Sprintf("%s %s", d, joinSlots(s.SlotsFor(d))))
	}
	if len(others) > 0 {
		msg += ". Scheduled slots: " + strings.Join(others, "; ")
	}
	return msg
}

func joinSlots(slots []schedule.TimeSlot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// transition applies a move from the table. Reaching the current status
// again is a no-op and reports changed=false.
func (r *Reservation) transition(to Status, now time.Time) (bool, error) {
	if r.Status == to {
		return false, nil
	}
	if !r.Status.CanTransitionTo(to) {
		if err, ok := transitionErrors[to]; ok {
			return false, err
		}
		return false, errUnknownTransition
	}
	r.Status = to
	r.UpdatedAt = &now
	return true, nil
}

func (r *Reservation) Confirm(now time.Time) ([]Event, error) {
	changed, err := r.transition(StatusConfirmed, now)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{newEvent(EventConfirmed, r, now)}, nil
}

func (r *Reservation) Cancel(reason string, now time.Time) ([]Event, error) {
	if r.Status == StatusCancelled {
		return nil, nil
	}
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrCannotCancel
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	if _, err := r.transition(StatusCancelled, now); err != nil {
		return nil, err
	}
	r.CancellationReason = &reason
	r.CancelledAt = &now

	ev := newEvent(EventCancelled, r, now)
	ev.Reason = reason
	return []Event{ev}, nil
}

func (r *Reservation) MarkCompleted(now time.Time) ([]Event, error) {
	changed, err := r.transition(StatusCompleted, now)
	if err != nil || !changed {
		return nil, err
	}
	return []Event{newEvent(EventCompleted, r, now)}, nil
}

func (r *Reservation) CanBeConfirmed(now time.Time) bool {
	return r.Status == StatusPending && r.ReservationDateTime.After(now)
}

// CanBeCancelled only admits confirmed reservations that start later than
// now plus window. Pending reservations are not admitted here even though
// Cancel accepts them.
func (r *Reservation) CanBeCancelled(now time.Time, window time.Duration) bool {
	return r.Status == StatusConfirmed && r.ReservationDateTime.After(now.Add(window))
}
