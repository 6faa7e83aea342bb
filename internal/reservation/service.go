package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymslot/internal/apperr"
	"gymslot/internal/logger"
	"gymslot/internal/metrics"
	"gymslot/internal/product"
	"gymslot/internal/slotlock"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	defaultCompletionGrace = time.Hour
	defaultSweepBatch      = 100
)

type CreateCommand struct {
	UserID              string
	GymProductID        uuid.UUID
	ReservationDateTime time.Time
	UserNotes           *string
	MembershipLevel     product.MembershipLevel
}

type Options struct {
	// CancellationWindow is how long before the start a confirmed
	// reservation may still be cancelled.
	CancellationWindow time.Duration
	// CompletionGrace is how long after the start a confirmed reservation
	// is considered attended.
	CompletionGrace time.Duration
	SweepBatch      int
}

func (o Options) withDefaults() Options {
	if o.CancellationWindow <= 0 {
		o.CancellationWindow = DefaultCancellationWindow
	}
	if o.CompletionGrace <= 0 {
		o.CompletionGrace = defaultCompletionGrace
	}
	if o.SweepBatch <= 0 {
		o.SweepBatch = defaultSweepBatch
	}
	return o
}

type Service interface {
	CreateReservation(ctx context.Context, cmd CreateCommand) (*Reservation, error)
	ConfirmReservation(ctx context.Context, id uuid.UUID) (*Reservation, error)
	CancelReservation(ctx context.Context, id uuid.UUID, userID, reason string) (*Reservation, error)
	GetReservationsForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*SlotSnapshot, error)
	GetUserReservations(ctx context.Context, userID string, includeCompleted bool) ([]Reservation, error)
	GetAvailableTimeSlots(ctx context.Context, gymProductID uuid.UUID, date time.Time) (*AvailableTimeSlots, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	products  product.Repository
	locker    slotlock.Locker
	publisher EventPublisher
	clock     clockwork.Clock
	opts      Options
}

func NewService(
	repo Repository,
	products product.Repository,
	locker slotlock.Locker,
	publisher EventPublisher,
	clock clockwork.Clock,
	opts Options,
) Service {
	return &service{
		repo:      repo,
		products:  products,
		locker:    locker,
		publisher: publisher,
		clock:     clock,
		opts:      opts.withDefaults(),
	}
}

func NotFoundError(id uuid.UUID) error {
	return apperr.NotFound("Reservation.NotFound", fmt.Sprintf("Reservation with ID %s was not found", id))
}

var (
	errDuplicateSlot = apperr.Conflict("Reservation.DuplicateSlotReservation",
		"User already has a reservation for this product and time slot")
	errStale = apperr.Conflict("Reservation.Stale",
		"The reservation was modified concurrently, please retry")
	errSlotBusy = apperr.Conflict("Reservation.SlotBusy",
		"The time slot is busy, please retry")
	errCannotConfirm = apperr.Validation("Reservation.CannotConfirm",
		"This reservation cannot be confirmed. It may already be confirmed, cancelled, or the event has passed")
	errNotOwner = apperr.Forbidden("Reservation.NotOwner",
		"You can only cancel your own reservations")
)

func tooLateToCancel(window time.Duration) error {
	return apperr.Validation("Reservation.TooLateToCancel",
		fmt.Sprintf("Reservations can only be cancelled at least %s before the scheduled time", humanDuration(window)))
}

func humanDuration(d time.Duration) string {
	if d%time.Hour != 0 {
		return d.String()
	}
	if h := int(d / time.Hour); h != 1 {
		return fmt.Sprintf("%d hours", h)
	}
	return "1 hour"
}

func (s *service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *service) lockSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (func(), error) {
	start := time.Now()
	release, err := s.locker.Lock(ctx, slotlock.Key(gymProductID, at))
	metrics.ObserveLockWait(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, slotlock.ErrLockTimeout) {
			logger.Warn("slot lock not acquired",
				"gym_product_id", gymProductID,
				"reservation_date_time", at,
				"error", err,
			)
			return nil, errSlotBusy
		}
		return nil, apperr.Failure("Reservation.LockFailed", "Could not lock the time slot", err)
	}
	return release, nil
}

func (s *service) getProduct(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.NotFoundError(id)
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, product.NotFoundError(id)
	}
	return p, nil
}

func (s *service) getReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NotFoundError(id)
		}
		return nil, err
	}
	return r, nil
}

func (s *service) publish(ctx context.Context, events []Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		logger.Error("failed to publish reservation events",
			"reservation_id", events[0].ReservationID,
			"count", len(events),
			"error", err,
		)
	}
}

func reject(operation string, err error) error {
	if code := apperr.CodeOf(err); code != "" && apperr.KindOf(err) != apperr.KindFailure {
		metrics.RecordRejection(operation, code)
		logger.Warn("reservation command rejected", "operation", operation, "code", code)
	}
	return err
}

func (s *service) CreateReservation(ctx context.Context, cmd CreateCommand) (*Reservation, error) {
	// Weekly slots are UTC wall-clock times; offsets are normalised first.
	at := cmd.ReservationDateTime.UTC()

	release, err := s.lockSlot(ctx, cmd.GymProductID, at)
	if err != nil {
		return nil, err
	}
	defer release()

	exists, err := s.repo.UserHasActiveReservationForSlot(ctx, cmd.UserID, cmd.GymProductID, at)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, reject("create", errDuplicateSlot)
	}

	p, err := s.getProduct(ctx, cmd.GymProductID)
	if err != nil {
		return nil, reject("create", err)
	}

	if !p.IsAccessibleFor(cmd.MembershipLevel) {
		return nil, reject("create", apperr.Forbidden("Product.InsufficientMembership",
			fmt.Sprintf("This product requires %s membership level. Your current level is %s.",
				p.MinimumMembership, cmd.MembershipLevel)))
	}

	activeCount, err := s.repo.CountActiveForSlot(ctx, p.ID, at)
	if err != nil {
		return nil, err
	}

	res, events, err := New(cmd.UserID, p.ID, at, cmd.UserNotes, s.now())
	if err != nil {
		return nil, reject("create", err)
	}

	if err := res.ValidateBusinessRules(p, activeCount); err != nil {
		return nil, reject("create", err)
	}

	if err := s.repo.Create(ctx, res); err != nil {
		if errors.Is(err, ErrDuplicateActive) {
			return nil, reject("create", errDuplicateSlot)
		}
		return nil, err
	}

	metrics.RecordTransition(string(res.Status))
	logger.Info("reservation created",
		"reservation_id", res.ID,
		"user_id", res.UserID,
		"gym_product_id", res.GymProductID,
		"reservation_date_time", res.ReservationDateTime,
		"active_before", activeCount,
	)

	s.publish(ctx, events)
	return res, nil
}

func (s *service) ConfirmReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, reject("confirm", err)
	}

	release, err := s.lockSlot(ctx, res.GymProductID, res.ReservationDateTime)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock so the capacity check sees committed state.
	res, err = s.getReservation(ctx, id)
	if err != nil {
		return nil, reject("confirm", err)
	}

	now := s.now()
	if !res.CanBeConfirmed(now) {
		return nil, reject("confirm", errCannotConfirm)
	}

	p, err := s.getProduct(ctx, res.GymProductID)
	if err != nil {
		return nil, reject("confirm", err)
	}

	if p.MaxCapacity != nil {
		confirmed, err := s.repo.CountConfirmedForSlot(ctx, res.GymProductID, res.ReservationDateTime)
		if err != nil {
			return nil, err
		}
		if confirmed >= *p.MaxCapacity {
			return nil, reject("confirm", apperr.Validation("Reservation.CapacityExceeded",
				fmt.Sprintf("Cannot confirm reservation. Maximum capacity (%d) has been reached", *p.MaxCapacity)))
		}
	}

	from := res.Status
	events, err := res.Confirm(now)
	if err != nil {
		return nil, reject("confirm", err)
	}

	if err := s.repo.UpdateStatus(ctx, res, from); err != nil {
		if errors.Is(err, ErrStaleState) {
			return nil, reject("confirm", errStale)
		}
		return nil, err
	}

	metrics.RecordTransition(string(res.Status))
	logger.Info("reservation confirmed",
		"reservation_id", res.ID,
		"user_id", res.UserID,
		"gym_product_id", res.GymProductID,
	)

	s.publish(ctx, events)
	return res, nil
}

func (s *service) CancelReservation(ctx context.Context, id uuid.UUID, userID, reason string) (*Reservation, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, reject("cancel", err)
	}

	release, err := s.lockSlot(ctx, res.GymProductID, res.ReservationDateTime)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err = s.getReservation(ctx, id)
	if err != nil {
		return nil, reject("cancel", err)
	}

	if res.UserID != userID {
		return nil, reject("cancel", errNotOwner)
	}

	now := s.now()
	if !res.CanBeCancelled(now, s.opts.CancellationWindow) {
		return nil, reject("cancel", tooLateToCancel(s.opts.CancellationWindow))
	}

	from := res.Status
	events, err := res.Cancel(reason, now)
	if err != nil {
		return nil, reject("cancel", err)
	}

	if err := s.repo.UpdateStatus(ctx, res, from); err != nil {
		if errors.Is(err, ErrStaleState) {
			return nil, reject("cancel", errStale)
		}
		return nil, err
	}

	metrics.RecordTransition(string(res.Status))
	logger.Info("reservation cancelled",
		"reservation_id", res.ID,
		"user_id", res.UserID,
		"gym_product_id", res.GymProductID,
		"reason", reason,
	)

	s.publish(ctx, events)
	return res, nil
}

func (s *service) GetReservationsForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*SlotSnapshot, error) {
	p, err := s.getProduct(ctx, gymProductID)
	if err != nil {
		return nil, err
	}

	at = at.UTC()
	list, err := s.repo.ListBySlot(ctx, gymProductID, at)
	if err != nil {
		return nil, err
	}

	snap := BuildSlotSnapshot(p, at, list)
	return &snap, nil
}

func (s *service) GetUserReservations(ctx context.Context, userID string, includeCompleted bool) ([]Reservation, error) {
	list, err := s.repo.ListByUser(ctx, userID, includeCompleted)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Reservation{}
	}
	return list, nil
}

func (s *service) GetAvailableTimeSlots(ctx context.Context, gymProductID uuid.UUID, date time.Time) (*AvailableTimeSlots, error) {
	p, err := s.getProduct(ctx, gymProductID)
	if err != nil {
		return nil, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	out := &AvailableTimeSlots{
		GymProductID: p.ID,
		GymName:      p.GymName,
		ProductName:  p.ProductName,
		Date:         day,
		TimeSlots:    []AvailableTimeSlot{},
	}

	for _, slot := range p.AvailableSlotsFor(day) {
		start, end := slot.On(day)

		count, err := s.repo.CountActiveForSlot(ctx, p.ID, start)
		if err != nil {
			return nil, err
		}

		out.TimeSlots = append(out.TimeSlots, AvailableTimeSlot{
			TimeSlot:            slot.String(),
			StartDateTime:       start,
			EndDateTime:         end,
			CurrentReservations: count,
			MaxCapacity:         p.MaxCapacity,
			IsAvailable:         p.MaxCapacity == nil || count < *p.MaxCapacity,
		})
	}

	return out, nil
}

// CompleteElapsed marks confirmed reservations whose start lies more than
// the completion grace in the past as completed. It returns how many were
// moved.
func (s *service) CompleteElapsed(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.opts.CompletionGrace)

	due, err := s.repo.ListConfirmedBefore(ctx, cutoff, s.opts.SweepBatch)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return completed, err
		}

		ok, err := s.completeOne(ctx, candidate)
		if err != nil {
			logger.Error("failed to complete reservation",
				"reservation_id", candidate.ID,
				"error", err,
			)
			continue
		}
		if ok {
			completed++
		}
	}

	return completed, nil
}

func (s *service) completeOne(ctx context.Context, candidate Reservation) (bool, error) {
	release, err := s.lockSlot(ctx, candidate.GymProductID, candidate.ReservationDateTime)
	if err != nil {
		return false, err
	}
	defer release()

	res, err := s.repo.GetByID(ctx, candidate.ID)
	if err != nil {
		return false, err
	}
	if res.Status != StatusConfirmed {
		return false, nil
	}

	now := s.now()
	events, err := res.MarkCompleted(now)
	if err != nil {
		return false, err
	}

	if err := s.repo.UpdateStatus(ctx, res, StatusConfirmed); err != nil {
		if errors.Is(err, ErrStaleState) {
			return false, nil
		}
		return false, err
	}

	metrics.RecordTransition(string(res.Status))
	logger.Info("reservation completed",
		"reservation_id", res.ID,
		"user_id", res.UserID,
		"gym_product_id", res.GymProductID,
	)

	s.publish(ctx, events)
	return true, nil
}
