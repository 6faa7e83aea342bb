// Package recommend scores the reservations of a slot and arbitrates which
// pending ones should be confirmed when capacity is contested. Everything in
// this file is a pure function of the slot snapshot.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"gymslot/internal/reservation"

	"github.com/google/uuid"
)

const day = 24 * time.Hour

func daysInAdvance(slot, created time.Time) float64 {
	return float64(slot.Sub(created)) / float64(day)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isPrimeTime(hour int) bool {
	return (hour >= 18 && hour <= 20) || (hour >= 8 && hour <= 10)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// AttendanceProbability estimates how likely the holder of r is to show up.
// The result lies in [0.10, 0.95].
func AttendanceProbability(r reservation.SlotReservation, snap *reservation.SlotSnapshot) float64 {
	p := 0.5

	switch days := daysInAdvance(snap.SlotDateTime, r.CreatedAt); {
	case days > 7:
		p += 0.2
	case days > 3:
		p += 0.1
	case days < 1:
		p -= 0.1
	}

	if r.UserNotes != "" {
		p += 0.15
	}
	if r.Status == reservation.StatusConfirmed {
		p += 0.1
	}

	slot := snap.SlotDateTime.UTC()
	if isPrimeTime(slot.Hour()) {
		p += 0.1
	}
	if wd := slot.Weekday(); wd == time.Saturday || wd == time.Sunday {
		p += 0.05
	}

	return round2(clamp(p, 0.1, 0.95))
}

// PriorityScore ranks r within the slot. index is r's position in the
// snapshot ordering. The result lies in [1, 100].
func PriorityScore(r reservation.SlotReservation, index int, snap *reservation.SlotSnapshot) int {
	score := 50

	if total := len(snap.Reservations); total > 0 {
		score += max(0, 30-index*30/total)
	}

	switch days := daysInAdvance(snap.SlotDateTime, r.CreatedAt); {
	case days > 7:
		score += 20
	case days > 3:
		score += 10
	}

	if r.UserNotes != "" {
		score += 15
	}
	if r.Status == reservation.StatusConfirmed {
		score += 10
	}

	return max(1, min(100, score))
}

// pendingRanks returns the 1-based rank of every pending reservation when
// ordered by priority score descending. Ties keep snapshot order.
func pendingRanks(snap *reservation.SlotSnapshot) map[uuid.UUID]int {
	type scored struct {
		id    uuid.UUID
		score int
	}

	pending := make([]scored, 0, len(snap.Reservations))
	for i, r := range snap.Reservations {
		if r.Status == reservation.StatusPending {
			pending = append(pending, scored{id: r.ID, score: PriorityScore(r, i, snap)})
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].score > pending[j].score
	})

	ranks := make(map[uuid.UUID]int, len(pending))
	for i, p := range pending {
		ranks[p.id] = i + 1
	}
	return ranks
}

func recommendedAction(r reservation.SlotReservation, score int, snap *reservation.SlotSnapshot, ranks map[uuid.UUID]int) Action {
	if snap.MaxCapacity == nil {
		return ActionConfirm
	}
	if r.Status == reservation.StatusConfirmed {
		return ActionMaintain
	}

	availableSpots := *snap.MaxCapacity - snap.ConfirmedReservations
	rank, ok := ranks[r.ID]
	if ok && rank <= availableSpots {
		if score >= 50 {
			return ActionConfirm
		}
		return ActionWaitingList
	}

	if score >= 80 {
		return ActionWaitingList
	}
	return ActionReject
}

// RecommendedAction decides what to do with r given the live capacity of
// the slot.
func RecommendedAction(r reservation.SlotReservation, score int, snap *reservation.SlotSnapshot) Action {
	return recommendedAction(r, score, snap, pendingRanks(snap))
}

func Reasons(r reservation.SlotReservation, probability float64, score int, snap *reservation.SlotSnapshot) []string {
	var reasons []string

	if score >= 70 {
		reasons = append(reasons, "High priority score due to early registration and engagement")
	}
	if probability >= 0.7 {
		reasons = append(reasons, fmt.Sprintf("High attendance probability (%.0f%%)", probability*100))
	}
	if r.UserNotes != "" {
		reasons = append(reasons, "User showed engagement with personal notes")
	}
	if daysInAdvance(snap.SlotDateTime, r.CreatedAt) > 7 {
		reasons = append(reasons, "Early registration shows commitment")
	}
	if snap.IsOverbooked {
		reasons = append(reasons, "Class is overbooked, selective approval needed")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Standard evaluation based on capacity and timing")
	}
	return reasons
}

// Confidence combines the normalized priority score and the attendance
// probability. The result lies in [0.30, 0.95].
func Confidence(score int, probability float64) float64 {
	combined := (float64(score)/100 + probability) / 2
	return round2(clamp(combined, 0.3, 0.95))
}

// Evaluate scores every reservation of the snapshot in snapshot order.
func Evaluate(snap *reservation.SlotSnapshot) []Evaluation {
	ranks := pendingRanks(snap)

	out := make([]Evaluation, 0, len(snap.Reservations))
	for i, r := range snap.Reservations {
		probability := AttendanceProbability(r, snap)
		score := PriorityScore(r, i, snap)

		out = append(out, Evaluation{
			UserID:                r.UserID,
			ReservationID:         r.ID,
			Status:                r.Status,
			CreatedAt:             r.CreatedAt,
			AttendanceProbability: probability,
			PriorityScore:         score,
			RecommendedAction:     recommendedAction(r, score, snap, ranks),
			Reasons:               Reasons(r, probability, score, snap),
			RegistrationOrder:     i + 1,
		})
	}
	return out
}

// Recommend turns evaluations into per-reservation recommendations. The
// advisory text, when present, is attached as metadata only.
func Recommend(snap *reservation.SlotSnapshot, advisory string) []Recommendation {
	evals := Evaluate(snap)

	out := make([]Recommendation, 0, len(evals))
	for _, e := range evals {
		metadata := map[string]any{
			"priority_score":         e.PriorityScore,
			"attendance_probability": e.AttendanceProbability,
			"registration_order":     e.RegistrationOrder,
		}
		if advisory != "" {
			metadata["advisory_insight"] = truncate(advisory, 100)
		}

		out = append(out, Recommendation{
			ReservationID:     e.ReservationID,
			UserID:            e.UserID,
			RecommendedAction: e.RecommendedAction,
			Confidence:        Confidence(e.PriorityScore, e.AttendanceProbability),
			Reasons:           e.Reasons,
			Metadata:          metadata,
		})
	}
	return out
}

func countConfirms(recs []Recommendation) int {
	n := 0
	for _, r := range recs {
		if r.RecommendedAction == ActionConfirm {
			n++
		}
	}
	return n
}

// confirmUtilization is the share of capacity the recommended confirmations
// would fill. A zero capacity yields zero.
func confirmUtilization(maxCapacity int, recs []Recommendation) float64 {
	if maxCapacity <= 0 {
		return 0
	}
	return float64(countConfirms(recs)) / float64(maxCapacity)
}

func ClassifyStrategy(snap *reservation.SlotSnapshot, recs []Recommendation) Strategy {
	if snap.MaxCapacity == nil {
		return StrategyConfirmAll
	}

	utilization := confirmUtilization(*snap.MaxCapacity, recs)
	switch {
	case utilization >= 0.9:
		return StrategyOptimalCapacity
	case snap.IsOverbooked:
		return StrategySelectivePlacement
	case utilization < 0.5:
		return StrategyPromoteClass
	default:
		return StrategyStandardManagement
	}
}

func OptimalUtilization(snap *reservation.SlotSnapshot, recs []Recommendation) float64 {
	if snap.MaxCapacity == nil {
		return 1
	}
	return round2(math.Min(1, confirmUtilization(*snap.MaxCapacity, recs)))
}

// OverbookingPercentage is how far above capacity the slot is, in percent.
// It is zero for unlimited or zero capacity.
func OverbookingPercentage(snap *reservation.SlotSnapshot) float64 {
	if snap.MaxCapacity == nil || *snap.MaxCapacity <= 0 {
		return 0
	}
	over := float64(snap.TotalReservations-*snap.MaxCapacity) / float64(*snap.MaxCapacity) * 100
	return round2(math.Max(0, over))
}

// AnalysisConfidence grows with the amount of data available for the slot.
func AnalysisConfidence(snap *reservation.SlotSnapshot) float64 {
	confidence := 0.7

	if snap.TotalReservations >= 10 {
		confidence += 0.1
	}
	if snap.TotalReservations >= 20 {
		confidence += 0.1
	}

	withNotes := 0
	for _, r := range snap.Reservations {
		if r.UserNotes != "" {
			withNotes++
		}
	}
	if float64(withNotes) > float64(snap.TotalReservations)*0.3 {
		confidence += 0.1
	}

	return round2(clamp(confidence, 0.5, 0.95))
}

func AnalysisRecommendations(snap *reservation.SlotSnapshot, advisory string) []string {
	out := []string{}

	if snap.IsOverbooked {
		out = append(out,
			"Implement selective confirmation strategy to optimize capacity",
			"Consider setting up waiting list for declined reservations",
		)
	}
	if snap.PendingReservations > 0 {
		out = append(out, fmt.Sprintf("Review %d pending reservations for optimal selection", snap.PendingReservations))
	}
	if advisory != "" {
		out = append(out, "Advisor recommends: "+truncate(advisory, 100))
	}
	return out
}

func Insights(snap *reservation.SlotSnapshot, advisory string, recs []Recommendation) []string {
	var out []string

	if snap.IsOverbooked && snap.MaxCapacity != nil {
		out = append(out, fmt.Sprintf("High demand: %d reservations for %d capacity", snap.TotalReservations, *snap.MaxCapacity))
	}

	out = append(out, fmt.Sprintf("Recommend confirming %d out of %d pending reservations", countConfirms(recs), snap.PendingReservations))

	if n := len(snap.Reservations); n > 0 {
		var sum float64
		for _, r := range snap.Reservations {
			sum += daysInAdvance(snap.SlotDateTime, r.CreatedAt)
		}
		out = append(out, fmt.Sprintf("Average registration lead time: %.1f days", sum/float64(n)))
	}

	if advisory != "" {
		out = append(out, "Advisor analysis: "+truncate(advisory, 150))
	}
	return out
}

// Analyze builds the full slot analysis.
func Analyze(snap *reservation.SlotSnapshot, advisory string) Analysis {
	return Analysis{
		GymProductID:          snap.GymProductID,
		SlotDateTime:          snap.SlotDateTime,
		TotalReservations:     snap.TotalReservations,
		PendingReservations:   snap.PendingReservations,
		ConfirmedReservations: snap.ConfirmedReservations,
		MaxCapacity:           snap.MaxCapacity,
		IsOverbooked:          snap.IsOverbooked,
		OverbookingPercentage: OverbookingPercentage(snap),
		UserAnalyses:          Evaluate(snap),
		Recommendations:       AnalysisRecommendations(snap, advisory),
		ConfidenceScore:       AnalysisConfidence(snap),
	}
}

// Optimize classifies the slot given a set of recommendations.
func Optimize(snap *reservation.SlotSnapshot, advisory string, recs []Recommendation) SlotOptimization {
	return SlotOptimization{
		GymProductID:               snap.GymProductID,
		SlotDateTime:               snap.SlotDateTime,
		GymName:                    snap.GymName,
		ProductName:                snap.ProductName,
		CurrentReservations:        snap.TotalReservations,
		MaxCapacity:                snap.MaxCapacity,
		Recommendations:            recs,
		OverallStrategy:            ClassifyStrategy(snap, recs),
		OptimalCapacityUtilization: OptimalUtilization(snap, recs),
		Insights:                   Insights(snap, advisory, recs),
	}
}
