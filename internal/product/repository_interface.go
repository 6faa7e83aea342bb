package product

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateSchedule(ctx context.Context, p *Product) error
}
