package recommend

import (
	"context"
	"time"

	"gymslot/internal/advisor"
	"gymslot/internal/apperr"
	"gymslot/internal/logger"
	"gymslot/internal/metrics"
	"gymslot/internal/reservation"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const DefaultAdvisoryTimeout = 30 * time.Second

// SlotSource loads the snapshot the engine works on.
type SlotSource interface {
	GetReservationsForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*reservation.SlotSnapshot, error)
}

type Service interface {
	AnalyzeSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*Analysis, error)
	GetRecommendations(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*Recommendations, error)
	OptimizeSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*SlotOptimization, error)
	Summary(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*Summary, error)
}

// Analyzer runs the engine over live slot data and attaches advisory text.
// Numbers never depend on the generator.
type Analyzer struct {
	slots     SlotSource
	generator advisor.Generator
	clock     clockwork.Clock
	timeout   time.Duration
}

func NewAnalyzer(slots SlotSource, generator advisor.Generator, clock clockwork.Clock, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultAdvisoryTimeout
	}
	return &Analyzer{
		slots:     slots,
		generator: generator,
		clock:     clock,
		timeout:   timeout,
	}
}

func (a *Analyzer) generate(ctx context.Context, operation, prompt string) (string, error) {
	if a.generator == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		metrics.RecordAdvisorRequest(operation, "error")
		return "", err
	}
	metrics.RecordAdvisorRequest(operation, "ok")
	return text, nil
}

// advise returns generated text or an empty string when the generator fails.
func (a *Analyzer) advise(ctx context.Context, operation, prompt string) string {
	text, err := a.generate(ctx, operation, prompt)
	if err != nil {
		logger.Warn("advisory text unavailable", "operation", operation, "error", err)
		return ""
	}
	return text
}

func (a *Analyzer) AnalyzeSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*Analysis, error) {
	snap, err := a.slots.GetReservationsForSlot(ctx, gymProductID, at)
	if err != nil {
		return nil, err
	}

	advisory := a.advise(ctx, "analysis", AnalysisPrompt(snap))
	analysis := Analyze(snap, advisory)
	analysis.ResponseTimestamp = a.clock.Now().UTC()

	logger.Info("slot analysis completed",
		"gym_product_id", gymProductID,
		"slot_date_time", snap.SlotDateTime,
		"confidence", analysis.ConfidenceScore,
	)
	return &analysis, nil
}

func (a *Analyzer) GetRecommendations(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*Recommendations, error) {
	snap, err := a.slots.GetReservationsForSlot(ctx, gymProductID, at)
	if err != nil {
		return nil, err
	}

	recs := Recommend(snap, a.advise(ctx, "recommendations", RecommendationPrompt(snap)))

	logger.Info("slot recommendations generated",
		"gym_product_id", gymProductID,
		"slot_date_time", snap.SlotDateTime,
		"count", len(recs),
	)
	return &Recommendations{
		Recommendations:      recs,
		TotalRecommendations: len(recs),
		ResponseTimestamp:    a.clock.Now().UTC(),
	}, nil
}

func (a *Analyzer) OptimizeSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*SlotOptimization, error) {
	snap, err := a.slots.GetReservationsForSlot(ctx, gymProductID, at)
	if err != nil {
		return nil, err
	}

	advisory := a.advise(ctx, "optimization", OptimizationPrompt(snap))
	recs := Recommend(snap, a.advise(ctx, "recommendations", RecommendationPrompt(snap)))

	opt := Optimize(snap, advisory, recs)
	opt.ResponseTimestamp = a.clock.Now().UTC()

	logger.Info("slot optimization completed",
		"gym_product_id", gymProductID,
		"slot_date_time", snap.SlotDateTime,
		"strategy", opt.OverallStrategy,
	)
	return &opt, nil
}

// Summary is the one operation whose whole value is the generated text, so a
// generator failure is surfaced.
func (a *Analyzer) Summary(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*Summary, error) {
	snap, err := a.slots.GetReservationsForSlot(ctx, gymProductID, at)
	if err != nil {
		return nil, err
	}

	text, err := a.generate(ctx, "summary", SummaryPrompt(snap))
	if err == nil && text == "" {
		err = advisor.ErrEmptyResponse
	}
	if err != nil {
		logger.Error("failed to generate slot summary",
			"gym_product_id", gymProductID,
			"slot_date_time", snap.SlotDateTime,
			"error", err,
		)
		return nil, apperr.Failure("AI.SummaryError", "Failed to generate slot summary", err)
	}

	return &Summary{
		Summary:           EnrichSummary(snap, text),
		ResponseTimestamp: a.clock.Now().UTC(),
	}, nil
}
