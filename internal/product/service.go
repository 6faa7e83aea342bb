package product

import (
	"context"
	"errors"
	"fmt"

	"gymslot/internal/apperr"
	"gymslot/internal/logger"
	"gymslot/internal/schedule"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	AssignSchedule(ctx context.Context, id uuid.UUID, req AssignScheduleRequest) (*Product, error)
}

type service struct {
	repo  Repository
	clock clockwork.Clock
}

func NewService(repo Repository, clock clockwork.Clock) Service {
	return &service{
		repo:  repo,
		clock: clock,
	}
}

// NotFoundError is the boundary error for a missing gym product.
func NotFoundError(id uuid.UUID) error {
	return apperr.NotFound("GymProduct.NotFound", fmt.Sprintf("Gym product with ID %s was not found", id))
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError(id)
		}
		return nil, err
	}
	return p, nil
}

func (s *service) AssignSchedule(ctx context.Context, id uuid.UUID, req AssignScheduleRequest) (*Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	weekly, err := schedule.ParseStrict(req.Schedule)
	if err != nil {
		return nil, apperr.Validation("Schedule.Invalid", err.Error())
	}

	if err := p.SetSchedule(weekly, req.MinCapacity, req.MaxCapacity, s.clock.Now().UTC()); err != nil {
		var overlap *schedule.OverlapError
		switch {
		case errors.As(err, &overlap):
			return nil, apperr.Validation("Schedule.Invalid",
				fmt.Sprintf("Overlapping time slots found for %s: %s and %s", overlap.Day, overlap.First, overlap.Second))
		case errors.Is(err, ErrScheduleRequired), errors.Is(err, ErrInvalidCapacity):
			return nil, apperr.Validation("Schedule.Invalid", err.Error())
		default:
			return nil, err
		}
	}

	if err := s.repo.UpdateSchedule(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError(id)
		}
		return nil, err
	}

	logger.Info("schedule assigned",
		"gym_product_id", id,
		"schedule", p.Schedule.String(),
	)

	return p, nil
}
