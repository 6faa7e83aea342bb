package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gymslot/internal/schedule"

	"github.com/google/uuid"
)

var (
	ErrScheduleRequired = errors.New("schedule is required for products that require scheduling")
	ErrInvalidCapacity  = errors.New("minimum capacity must be between 0 and maximum capacity")
)

type MembershipLevel int

const (
	MembershipStandard MembershipLevel = iota
	MembershipPremium
	MembershipVIP
)

func (m MembershipLevel) String() string {
	switch m {
	case MembershipStandard:
		return "Standard"
	case MembershipPremium:
		return "Premium"
	case MembershipVIP:
		return "VIP"
	default:
		return fmt.Sprintf("MembershipLevel(%d)", int(m))
	}
}

func ParseMembershipLevel(s string) (MembershipLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return MembershipStandard, nil
	case "premium":
		return MembershipPremium, nil
	case "vip":
		return MembershipVIP, nil
	default:
		return MembershipStandard, fmt.Errorf("unknown membership level %q", s)
	}
}

func (m MembershipLevel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MembershipLevel) UnmarshalText(text []byte) error {
	level, err := ParseMembershipLevel(string(text))
	if err != nil {
		return err
	}
	*m = level
	return nil
}

// Product is the reservation-facing view of a product offered at a gym.
type Product struct {
	ID                uuid.UUID               `db:"id" json:"id"`
	GymID             uuid.UUID               `db:"gym_id" json:"gym_id"`
	GymName           string                  `db:"gym_name" json:"gym_name"`
	ProductName       string                  `db:"product_name" json:"product_name"`
	RequiresSchedule  bool                    `db:"requires_schedule" json:"requires_schedule"`
	Schedule          schedule.WeeklySchedule `db:"schedule" json:"schedule"`
	MinCapacity       *int                    `db:"min_capacity" json:"min_capacity,omitempty"`
	MaxCapacity       *int                    `db:"max_capacity" json:"max_capacity,omitempty"`
	MinimumMembership MembershipLevel         `db:"minimum_membership" json:"minimum_membership"`
	IsActive          bool                    `db:"is_active" json:"is_active"`
	CreatedAt         time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time              `db:"updated_at" json:"updated_at,omitempty"`
}

// IsValidReservationTime is always true for products without a schedule.
func (p *Product) IsValidReservationTime(dt time.Time) bool {
	if !p.RequiresSchedule {
		return true
	}
	return p.Schedule.IsValidReservationTime(dt)
}

// AvailableSlotsFor returns the slots on date's weekday, or none when the product
// does not require a schedule.
func (p *Product) AvailableSlotsFor(date time.Time) []schedule.TimeSlot {
	if !p.RequiresSchedule {
		return nil
	}
	return p.Schedule.SlotsFor(date.Weekday())
}

func (p *Product) IsAccessibleFor(level MembershipLevel) bool {
	return level >= p.MinimumMembership
}

// SetSchedule replaces schedule and capacity bounds after validating them.
func (p *Product) SetSchedule(s schedule.WeeklySchedule, minCapacity, maxCapacity *int, now time.Time) error {
	if minCapacity != nil && maxCapacity != nil {
		if *minCapacity < 0 || *minCapacity > *maxCapacity {
			return ErrInvalidCapacity
		}
	}

	if p.RequiresSchedule && s.IsEmpty() {
		return ErrScheduleRequired
	}

	if err := s.Validate(); err != nil {
		return err
	}

	p.Schedule = s
	p.MinCapacity = minCapacity
	p.MaxCapacity = maxCapacity
	p.UpdatedAt = &now
	return nil
}

type AssignScheduleRequest struct {
	Schedule    map[string][]string `json:"schedule" binding:"required"`
	MinCapacity *int                `json:"min_capacity" binding:"omitempty,gte=0"`
	MaxCapacity *int                `json:"max_capacity" binding:"omitempty,gte=1"`
}
