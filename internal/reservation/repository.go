package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("reservation not found")
	ErrStaleState      = errors.New("reservation status changed concurrently")
	ErrDuplicateActive = errors.New("active reservation already exists for slot")
)

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

const reservationColumns = `id, user_id, gym_product_id, reservation_date_time, status,
	user_notes, cancellation_reason, cancelled_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, res *Reservation) error {
	query := `
		INSERT INTO reservations (id, user_id, gym_product_id, reservation_date_time, status, user_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.UserID, res.GymProductID, res.ReservationDateTime, res.Status, res.UserNotes, res.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateActive
		}
		return fmt.Errorf("insert reservation %s: %w", res.ID, err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	var res Reservation
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation %s: %w", id, err)
	}

	return &res, nil
}

func (r *repository) UpdateStatus(ctx context.Context, res *Reservation, from Status) error {
	query := `
		UPDATE reservations
		SET status = $2, cancellation_reason = $3, cancelled_at = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		res.ID, res.Status, res.CancellationReason, res.CancelledAt, res.UpdatedAt, from)
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", res.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrStaleState
	}

	return nil
}

func (r *repository) UserHasActiveReservationForSlot(ctx context.Context, userID string, gymProductID uuid.UUID, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE user_id = $1 AND gym_product_id = $2 AND reservation_date_time = $3
				AND status IN ('Pending', 'Confirmed')
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, gymProductID, at); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) CountActiveForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE gym_product_id = $1 AND reservation_date_time = $2 AND status IN ('Pending', 'Confirmed')
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, gymProductID, at); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) CountConfirmedForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE gym_product_id = $1 AND reservation_date_time = $2 AND status = 'Confirmed'
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, gymProductID, at); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) ListBySlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE gym_product_id = $1 AND reservation_date_time = $2
		ORDER BY created_at, id
	`

	var list []Reservation
	if err := r.db.SelectContext(ctx, &list, query, gymProductID, at); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, includeCompleted bool) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND ($2 OR status <> 'Completed')
		ORDER BY created_at DESC, id
	`

	var list []Reservation
	if err := r.db.SelectContext(ctx, &list, query, userID, includeCompleted); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *repository) ListConfirmedBefore(ctx context.Context, cutoff time.Time, limit int) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'Confirmed' AND reservation_date_time < $1
		ORDER BY reservation_date_time
		LIMIT $2
	`

	var list []Reservation
	if err := r.db.SelectContext(ctx, &list, query, cutoff, limit); err != nil {
		return nil, err
	}

	return list, nil
}
