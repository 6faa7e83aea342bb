package recommend

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"gymslot/internal/advisor"
	"gymslot/internal/apperr"
	"gymslot/internal/logger"
	"gymslot/internal/reservation"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockSlotSource struct{ mock.Mock }

func (m *MockSlotSource) GetReservationsForSlot(ctx context.Context, gymProductID uuid.UUID, at time.Time) (*reservation.SlotSnapshot, error) {
	args := m.Called(ctx, gymProductID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.SlotSnapshot), args.Error(1)
}

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// blockingGenerator waits for the context to end.
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var analyzedAt = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func contested() *reservation.SlotSnapshot {
	return snapshot(tuesdayNoon, intPtr(2),
		booked(reservation.StatusPending, tuesdayNoon, 7, ""),
		booked(reservation.StatusPending, tuesdayNoon, 3, ""),
		booked(reservation.StatusPending, tuesdayNoon, 0, ""),
	)
}

func newAnalyzer(slots SlotSource, gen advisor.Generator) *Analyzer {
	return NewAnalyzer(slots, gen, clockwork.NewFakeClockAt(analyzedAt), 50*time.Millisecond)
}

func TestAnalyzeSlot(t *testing.T) {
	snap := contested()
	slots := new(MockSlotSource)
	slots.On("GetReservationsForSlot", mock.Anything, snap.GymProductID, tuesdayNoon).Return(snap, nil)

	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "RESERVATION ANALYSIS REQUEST")
	})).Return("Demand is strong", nil)

	analysis, err := newAnalyzer(slots, gen).AnalyzeSlot(context.Background(), snap.GymProductID, tuesdayNoon)
	require.NoError(t, err)

	assert.Equal(t, analyzedAt, analysis.ResponseTimestamp)
	assert.Len(t, analysis.UserAnalyses, 3)
	assert.Contains(t, analysis.Recommendations, "Advisor recommends: Demand is strong")
	gen.AssertExpectations(t)
}

func TestAdvisorFailureDoesNotChangeNumbers(t *testing.T) {
	snap := contested()
	slots := new(MockSlotSource)
	slots.On("GetReservationsForSlot", mock.Anything, snap.GymProductID, tuesdayNoon).Return(snap, nil)

	failing := new(MockGenerator)
	failing.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("provider down"))

	analysis, err := newAnalyzer(slots, failing).AnalyzeSlot(context.Background(), snap.GymProductID, tuesdayNoon)
	require.NoError(t, err)

	baseline := Analyze(snap, "")
	baseline.ResponseTimestamp = analyzedAt
	assert.Equal(t, &baseline, analysis)

	recs, err := newAnalyzer(slots, failing).GetRecommendations(context.Background(), snap.GymProductID, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, 3, recs.TotalRecommendations)
	assert.Equal(t, Recommend(snap, ""), recs.Recommendations)

	opt, err := newAnalyzer(slots, failing).OptimizeSlot(context.Background(), snap.GymProductID, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, StrategyOptimalCapacity, opt.OverallStrategy)
}

func TestAdvisorTimeoutIsTolerated(t *testing.T) {
	snap := contested()
	slots := new(MockSlotSource)
	slots.On("GetReservationsForSlot", mock.Anything, snap.GymProductID, tuesdayNoon).Return(snap, nil)

	recs, err := newAnalyzer(slots, blockingGenerator{}).GetRecommendations(context.Background(), snap.GymProductID, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, ActionConfirm, recs.Recommendations[0].RecommendedAction)
	assert.NotContains(t, recs.Recommendations[0].Metadata, "advisory_insight")
}

func TestOptimizeSlotUsesBothPrompts(t *testing.T) {
	snap := contested()
	slots := new(MockSlotSource)
	slots.On("GetReservationsForSlot", mock.Anything, snap.GymProductID, tuesdayNoon).Return(snap, nil)

	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "SLOT OPTIMIZATION")
	})).Return("Open a second session", nil).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "RESERVATION RECOMMENDATIONS")
	})).Return("Favor early bookings", nil).Once()

	opt, err := newAnalyzer(slots, gen).OptimizeSlot(context.Background(), snap.GymProductID, tuesdayNoon)
	require.NoError(t, err)

	assert.Contains(t, opt.Insights, "Advisor analysis: Open a second session")
	assert.Equal(t, "Favor early bookings", opt.Recommendations[0].Metadata["advisory_insight"])
	assert.Equal(t, analyzedAt, opt.ResponseTimestamp)
	gen.AssertExpectations(t)
}

func TestSummary(t *testing.T) {
	snap := contested()
	slots := new(MockSlotSource)
	slots.On("GetReservationsForSlot", mock.Anything, snap.GymProductID, tuesdayNoon).Return(snap, nil)

	t.Run("enriched text", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("Healthy demand.", nil)

		summary, err := newAnalyzer(slots, gen).Summary(context.Background(), snap.GymProductID, tuesdayNoon)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(summary.Summary, "**Spinning at Downtown**\n2025-01-14 12:00 | 12:00-13:00"))
		assert.Contains(t, summary.Summary, "- Capacity: 2\n")
		assert.Contains(t, summary.Summary, "- Overbooked: Yes\n")
		assert.True(t, strings.HasSuffix(summary.Summary, "**Advisor Analysis:**\nHealthy demand."))
	})

	t.Run("generator failure surfaces", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

		_, err := newAnalyzer(slots, gen).Summary(context.Background(), snap.GymProductID, tuesdayNoon)
		require.Error(t, err)
		assert.Equal(t, apperr.KindFailure, apperr.KindOf(err))
		assert.Equal(t, "AI.SummaryError", apperr.CodeOf(err))
		assert.Equal(t, "Failed to generate slot summary", apperr.From(err).Description)
	})

	t.Run("timeout surfaces", func(t *testing.T) {
		_, err := newAnalyzer(slots, blockingGenerator{}).Summary(context.Background(), snap.GymProductID, tuesdayNoon)
		assert.Equal(t, "AI.SummaryError", apperr.CodeOf(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("empty text surfaces", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return("", nil)

		_, err := newAnalyzer(slots, gen).Summary(context.Background(), snap.GymProductID, tuesdayNoon)
		assert.Equal(t, "AI.SummaryError", apperr.CodeOf(err))
	})
}

func TestSlotErrorsPassThrough(t *testing.T) {
	productID := uuid.New()
	notFound := apperr.NotFound("Product.NotFound", "missing")

	slots := new(MockSlotSource)
	slots.On("GetReservationsForSlot", mock.Anything, productID, tuesdayNoon).Return(nil, notFound)

	gen := new(MockGenerator)
	a := newAnalyzer(slots, gen)

	_, err := a.AnalyzeSlot(context.Background(), productID, tuesdayNoon)
	assert.Equal(t, notFound, err)
	_, err = a.Summary(context.Background(), productID, tuesdayNoon)
	assert.Equal(t, notFound, err)

	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}
