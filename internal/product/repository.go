package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("gym product not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `
		SELECT gp.id, gp.gym_id, g.name AS gym_name, gp.product_name, gp.requires_schedule,
			gp.schedule, gp.min_capacity, gp.max_capacity, gp.minimum_membership,
			gp.is_active, gp.created_at, gp.updated_at
		FROM gym_products gp
		JOIN gyms g ON gp.gym_id = g.id
		WHERE gp.id = $1
	`

	var p Product
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get gym product %s: %w", id, err)
	}

	return &p, nil
}

func (r *repository) UpdateSchedule(ctx context.Context, p *Product) error {
	query := `
		UPDATE gym_products
		SET schedule = $2, min_capacity = $3, max_capacity = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, p.ID, p.Schedule, p.MinCapacity, p.MaxCapacity, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update schedule for %s: %w", p.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
