package advisor

import (
	"context"
	"strings"
	"time"

	"gymslot/internal/logger"
)

const (
	mockRecommendations = "Based on the reservation analysis, I recommend confirming the first 80% of reservations based on capacity, placing remaining in waiting list, and considering user registration time for priority."
	mockSummary         = "Class shows healthy demand with manageable overbooking. Recommend selective confirmation based on capacity optimization."
	mockDefault         = "Analysis completed. The reservation pattern suggests optimal management through selective confirmation strategy."
)

// Mock answers with canned text chosen by keywords in the prompt.
type Mock struct {
	Delay time.Duration
}

func NewMock() *Mock {
	return &Mock{Delay: 500 * time.Millisecond}
}

func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	logger.Debug("mock advisor called", "prompt", prompt[:min(100, len(prompt))])

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	switch {
	case strings.Contains(prompt, "recommendations"):
		return mockRecommendations, nil
	case strings.Contains(prompt, "summary"):
		return mockSummary, nil
	default:
		return mockDefault, nil
	}
}
