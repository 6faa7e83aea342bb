package reservation

import (
	"sort"
	"time"

	"gymslot/internal/product"

	"github.com/google/uuid"
)

const labelNoSchedule = "No schedule required"

type SlotReservation struct {
	ID                  uuid.UUID `json:"id"`
	UserID              string    `json:"user_id"`
	ReservationDateTime time.Time `json:"reservation_date_time"`
	Status              Status    `json:"status"`
	UserNotes           string    `json:"user_notes,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func (s SlotReservation) HasNotes() bool {
	return s.UserNotes != ""
}

// SlotSnapshot is the occupancy of one (product, date time) slot. Totals
// count every stored reservation regardless of status.
type SlotSnapshot struct {
	GymProductID          uuid.UUID         `json:"gym_product_id"`
	GymName               string            `json:"gym_name"`
	ProductName           string            `json:"product_name"`
	SlotDateTime          time.Time         `json:"slot_date_time"`
	TimeSlot              string            `json:"time_slot"`
	IsValidSlot           bool              `json:"is_valid_slot"`
	TotalReservations     int               `json:"total_reservations"`
	PendingReservations   int               `json:"pending_reservations"`
	ConfirmedReservations int               `json:"confirmed_reservations"`
	MaxCapacity           *int              `json:"max_capacity,omitempty"`
	IsOverbooked          bool              `json:"is_overbooked"`
	Reservations          []SlotReservation `json:"reservations"`
}

// BuildSlotSnapshot orders reservations pending first, then by creation
// time ascending. Ties keep their input order.
func BuildSlotSnapshot(p *product.Product, at time.Time, reservations []Reservation) SlotSnapshot {
	snap := SlotSnapshot{
		GymProductID:      p.ID,
		GymName:           p.GymName,
		ProductName:       p.ProductName,
		SlotDateTime:      at,
		TimeSlot:          labelNoSchedule,
		IsValidSlot:       true,
		TotalReservations: len(reservations),
		MaxCapacity:       p.MaxCapacity,
		Reservations:      make([]SlotReservation, 0, len(reservations)),
	}

	if p.RequiresSchedule {
		snap.IsValidSlot = p.IsValidReservationTime(at)
		switch slot, ok := p.Schedule.SlotAt(at); {
		case !snap.IsValidSlot:
			snap.TimeSlot = at.Format("15:04") + " (Invalid)"
		case ok:
			snap.TimeSlot = slot.String()
		default:
			snap.TimeSlot = at.Format("15:04")
		}
	}

	for _, r := range reservations {
		switch r.Status {
		case StatusPending:
			snap.PendingReservations++
		case StatusConfirmed:
			snap.ConfirmedReservations++
		}

		sr := SlotReservation{
			ID:                  r.ID,
			UserID:              r.UserID,
			ReservationDateTime: r.ReservationDateTime,
			Status:              r.Status,
			CreatedAt:           r.CreatedAt,
		}
		if r.HasNotes() {
			sr.UserNotes = *r.UserNotes
		}
		snap.Reservations = append(snap.Reservations, sr)
	}

	snap.IsOverbooked = p.MaxCapacity != nil && snap.TotalReservations > *p.MaxCapacity

	sort.SliceStable(snap.Reservations, func(i, j int) bool {
		a, b := snap.Reservations[i], snap.Reservations[j]
		ap, bp := a.Status == StatusPending, b.Status == StatusPending
		if ap != bp {
			return ap
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	return snap
}

type AvailableTimeSlot struct {
	TimeSlot            string    `json:"time_slot"`
	StartDateTime       time.Time `json:"start_date_time"`
	EndDateTime         time.Time `json:"end_date_time"`
	CurrentReservations int       `json:"current_reservations"`
	MaxCapacity         *int      `json:"max_capacity,omitempty"`
	IsAvailable         bool      `json:"is_available"`
}

type AvailableTimeSlots struct {
	GymProductID uuid.UUID           `json:"gym_product_id"`
	GymName      string              `json:"gym_name"`
	ProductName  string              `json:"product_name"`
	Date         time.Time           `json:"date"`
	TimeSlots    []AvailableTimeSlot `json:"time_slots"`
}
