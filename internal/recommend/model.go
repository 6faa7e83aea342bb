package recommend

import (
	"time"

	"gymslot/internal/reservation"

	"github.com/google/uuid"
)

type Action string

const (
	ActionConfirm     Action = "Confirm"
	ActionMaintain    Action = "Maintain"
	ActionWaitingList Action = "WaitingList"
	ActionReject      Action = "Reject"
)

type Strategy string

const (
	StrategyConfirmAll         Strategy = "ConfirmAll"
	StrategyOptimalCapacity    Strategy = "OptimalCapacity"
	StrategySelectivePlacement Strategy = "SelectivePlacement"
	StrategyPromoteClass       Strategy = "PromoteClass"
	StrategyStandardManagement Strategy = "StandardManagement"
)

// Evaluation is the scored view of a single reservation in a slot.
type Evaluation struct {
	UserID                string             `json:"user_id"`
	ReservationID         uuid.UUID          `json:"reservation_id"`
	Status                reservation.Status `json:"status"`
	CreatedAt             time.Time          `json:"created_at"`
	AttendanceProbability float64            `json:"attendance_probability"`
	PriorityScore         int                `json:"priority_score"`
	RecommendedAction     Action             `json:"recommended_action"`
	Reasons               []string           `json:"reasons"`
	// RegistrationOrder is the 1-based position in the slot snapshot.
	RegistrationOrder int `json:"registration_order"`
}

type Analysis struct {
	GymProductID          uuid.UUID    `json:"gym_product_id"`
	SlotDateTime          time.Time    `json:"slot_date_time"`
	TotalReservations     int          `json:"total_reservations"`
	PendingReservations   int          `json:"pending_reservations"`
	ConfirmedReservations int          `json:"confirmed_reservations"`
	MaxCapacity           *int         `json:"max_capacity,omitempty"`
	IsOverbooked          bool         `json:"is_overbooked"`
	OverbookingPercentage float64      `json:"overbooking_percentage"`
	UserAnalyses          []Evaluation `json:"user_analyses"`
	Recommendations       []string     `json:"recommendations"`
	ConfidenceScore       float64      `json:"confidence_score"`
	ResponseTimestamp     time.Time    `json:"response_timestamp"`
}

type Recommendation struct {
	ReservationID     uuid.UUID      `json:"reservation_id"`
	UserID            string         `json:"user_id"`
	RecommendedAction Action         `json:"recommended_action"`
	Confidence        float64        `json:"confidence"`
	Reasons           []string       `json:"reasons"`
	Metadata          map[string]any `json:"metadata"`
}

type Recommendations struct {
	Recommendations      []Recommendation `json:"recommendations"`
	TotalRecommendations int              `json:"total_recommendations"`
	ResponseTimestamp    time.Time        `json:"response_timestamp"`
}

type SlotOptimization struct {
	GymProductID               uuid.UUID        `json:"gym_product_id"`
	SlotDateTime               time.Time        `json:"slot_date_time"`
	GymName                    string           `json:"gym_name"`
	ProductName                string           `json:"product_name"`
	CurrentReservations        int              `json:"current_reservations"`
	MaxCapacity                *int             `json:"max_capacity,omitempty"`
	Recommendations            []Recommendation `json:"recommendations"`
	OverallStrategy            Strategy         `json:"overall_strategy"`
	OptimalCapacityUtilization float64          `json:"optimal_capacity_utilization"`
	Insights                   []string         `json:"insights"`
	ResponseTimestamp          time.Time        `json:"response_timestamp"`
}

type Summary struct {
	Summary           string    `json:"summary"`
	ResponseTimestamp time.Time `json:"response_timestamp"`
}
