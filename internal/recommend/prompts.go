package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"gymslot/internal/reservation"
)

const (
	promptTimeLayout  = "2006-01-02 15:04"
	maxPromptRows     = 15
	maxPendingRows    = 10
	promptUserIDChars = 8
)

func capacityLabel(maxCapacity *int, unlimited string) string {
	if maxCapacity == nil {
		return unlimited
	}
	return strconv.Itoa(*maxCapacity)
}

// demandRatio is total reservations over capacity; 1 when unlimited and 0
// when the capacity is zero.
func demandRatio(snap *reservation.SlotSnapshot) float64 {
	if snap.MaxCapacity == nil {
		return 1
	}
	if *snap.MaxCapacity <= 0 {
		return 0
	}
	return float64(snap.TotalReservations) / float64(*snap.MaxCapacity)
}

func AnalysisPrompt(snap *reservation.SlotSnapshot) string {
	var b strings.Builder

	b.WriteString("RESERVATION ANALYSIS REQUEST\n")
	b.WriteString("============================\n")
	fmt.Fprintf(&b, "Class: %s at %s\n", snap.ProductName, snap.GymName)
	fmt.Fprintf(&b, "Date/Time: %s (%s)\n", snap.SlotDateTime.Format(promptTimeLayout), snap.TimeSlot)
	fmt.Fprintf(&b, "Capacity: %s\n", capacityLabel(snap.MaxCapacity, "Unlimited"))
	fmt.Fprintf(&b, "Current Status: %d confirmed, %d pending\n", snap.ConfirmedReservations, snap.PendingReservations)
	fmt.Fprintf(&b, "Overbooked: %t\n\n", snap.IsOverbooked)

	b.WriteString("RESERVATIONS DATA:\n")
	for i, r := range snap.Reservations {
		if i == maxPromptRows {
			fmt.Fprintf(&b, "... and %d more reservations\n", len(snap.Reservations)-maxPromptRows)
			break
		}
		fmt.Fprintf(&b, "- User %s: %s, %.1f days advance",
			truncate(r.UserID, promptUserIDChars), r.Status, daysInAdvance(snap.SlotDateTime, r.CreatedAt))
		if r.UserNotes != "" {
			fmt.Fprintf(&b, ", Notes: %q", truncate(r.UserNotes, 50))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nANALYSIS REQUESTED:\n")
	b.WriteString("1. Assess overall demand pattern and user engagement level\n")
	b.WriteString("2. Identify optimal capacity utilization strategy\n")
	b.WriteString("3. Evaluate risk factors for no-shows or cancellations\n")
	b.WriteString("4. Suggest a management approach for this specific class\n")
	b.WriteString("5. Suggest improvements for future similar classes\n\n")
	b.WriteString("Please provide insights in a clear, actionable format.\n")

	return b.String()
}

func RecommendationPrompt(snap *reservation.SlotSnapshot) string {
	var b strings.Builder

	b.WriteString("RESERVATION RECOMMENDATIONS REQUEST\n")
	b.WriteString("===================================\n")
	fmt.Fprintf(&b, "Class: %s (%s)\n", snap.ProductName, snap.GymName)
	fmt.Fprintf(&b, "Scheduled: %s\n", snap.SlotDateTime.Format(promptTimeLayout))
	fmt.Fprintf(&b, "Capacity Constraint: %s\n", capacityLabel(snap.MaxCapacity, "No limit"))
	fmt.Fprintf(&b, "Current Confirmed: %d\n", snap.ConfirmedReservations)
	fmt.Fprintf(&b, "Pending Decisions: %d\n\n", snap.PendingReservations)

	if snap.PendingReservations > 0 {
		b.WriteString("PENDING RESERVATIONS TO EVALUATE:\n")
		listed := 0
		for _, r := range snap.Reservations {
			if r.Status != reservation.StatusPending {
				continue
			}
			if listed == maxPendingRows {
				break
			}
			listed++
			fmt.Fprintf(&b, "- User %s: %.1f days advance",
				truncate(r.UserID, promptUserIDChars), daysInAdvance(snap.SlotDateTime, r.CreatedAt))
			if r.UserNotes != "" {
				fmt.Fprintf(&b, ", %q", truncate(r.UserNotes, 40))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("RECOMMENDATION CRITERIA:\n")
	b.WriteString("- CONFIRM: High attendance probability, fits capacity, good engagement\n")
	b.WriteString("- WAITING_LIST: Medium priority, over capacity but backup option\n")
	b.WriteString("- REJECT: Low engagement, very late registration, or clear capacity constraints\n\n")
	b.WriteString("Consider registration timing, user engagement, capacity optimization and fairness.\n")
	b.WriteString("Provide strategic recommendations for optimal class management.\n")

	return b.String()
}

func OptimizationPrompt(snap *reservation.SlotSnapshot) string {
	var b strings.Builder

	status := "Within Capacity"
	if snap.IsOverbooked {
		status = "OVERBOOKED"
	}

	b.WriteString("SLOT OPTIMIZATION STRATEGY REQUEST\n")
	b.WriteString("==================================\n")
	fmt.Fprintf(&b, "Class: %s\n", snap.ProductName)
	fmt.Fprintf(&b, "Venue: %s\n", snap.GymName)
	fmt.Fprintf(&b, "Target Date: %s\n\n", snap.SlotDateTime.Format(promptTimeLayout))

	b.WriteString("CURRENT METRICS:\n")
	fmt.Fprintf(&b, "- Demand Level: %d registrations\n", snap.TotalReservations)
	fmt.Fprintf(&b, "- Capacity Utilization: %.1f%%\n", demandRatio(snap)*100)
	fmt.Fprintf(&b, "- Booking Status: %s\n", status)
	fmt.Fprintf(&b, "- Decision Required: %d pending approvals\n\n", snap.PendingReservations)

	b.WriteString("OPTIMIZATION GOALS:\n")
	b.WriteString("1. Optimize class profitability\n")
	b.WriteString("2. Balance fairness with business needs\n")
	b.WriteString("3. Minimize no-shows and cancellations\n")
	b.WriteString("4. Achieve optimal attendance without overcrowding\n\n")
	b.WriteString("Recommend an optimal confirmation strategy, risk mitigation approaches and actionable next steps.\n")

	return b.String()
}

func SummaryPrompt(snap *reservation.SlotSnapshot) string {
	challenge := "Standard capacity management"
	if snap.IsOverbooked {
		challenge = "Overbooked - selective approval needed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EXECUTIVE SUMMARY REQUEST for %s at %s\n", snap.ProductName, snap.GymName)
	fmt.Fprintf(&b, "Class Date: %s\n", snap.SlotDateTime.Format(promptTimeLayout))
	fmt.Fprintf(&b, "Current Status: %d confirmed + %d pending = %d total\n",
		snap.ConfirmedReservations, snap.PendingReservations, snap.TotalReservations)
	fmt.Fprintf(&b, "Capacity: %s (Utilization: %.1f%%)\n", capacityLabel(snap.MaxCapacity, "Unlimited"), demandRatio(snap)*100)
	fmt.Fprintf(&b, "Management Challenge: %s\n\n", challenge)
	b.WriteString("Please provide a concise executive summary covering key insights about reservation patterns, ")
	b.WriteString("the suggested management approach, critical success factors and next actions required.\n")
	b.WriteString("Keep it brief but actionable for gym management decision-making.")

	return b.String()
}

// EnrichSummary prefixes generated text with the slot's current numbers.
func EnrichSummary(snap *reservation.SlotSnapshot, text string) string {
	overbooked := "No"
	if snap.IsOverbooked {
		overbooked = "Yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s at %s**\n", snap.ProductName, snap.GymName)
	fmt.Fprintf(&b, "%s | %s\n\n", snap.SlotDateTime.Format(promptTimeLayout), snap.TimeSlot)
	b.WriteString("**Current Status:**\n")
	fmt.Fprintf(&b, "- Total Reservations: %d\n", snap.TotalReservations)
	fmt.Fprintf(&b, "- Confirmed: %d\n", snap.ConfirmedReservations)
	fmt.Fprintf(&b, "- Pending: %d\n", snap.PendingReservations)
	fmt.Fprintf(&b, "- Capacity: %s\n", capacityLabel(snap.MaxCapacity, "Unlimited"))
	fmt.Fprintf(&b, "- Overbooked: %s\n\n", overbooked)
	fmt.Fprintf(&b, "**Advisor Analysis:**\n%s", text)

	return b.String()
}
