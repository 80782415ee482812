package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/analysis"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/repository"
)

func newTestEngine(t *testing.T) (*Engine, *evalFixture) {
	t.Helper()
	f := newEvalFixture(t)
	scorer := analysis.NewScorer(analysis.ScorerConfig{
		MinBucketSamples:   2,
		MinReliableSamples: 20,
		SampleSaturation:   30,
		ConfidenceK:        12,
		SNRClip:            2.0,
		Weights:            analysis.Weights{Information: 0.30, Pattern: 0.25, Timing: 0.25, Direction: 0.20},
		Thresholds:         analysis.Thresholds{TradeThis: 70, Maybe: 45},
	})
	en := NewEngine(EngineConfig{
		LaggedOffsetDays:     4,
		VolumeBaselineWindow: 20,
		ScoreCacheTTL:        time.Minute,
	}, scorer, f.evaluator, nil, nil, noopMetrics{}, testLogger(t))
	return en, f
}

func engineDay(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func ingestHistory(t *testing.T, en *Engine, symbol string) {
	t.Helper()
	ctx := context.Background()
	closes := []float64{100, 103, 104, 105, 107, 108, 109, 111, 113, 115, 117, 118, 119, 120}
	for i, c := range closes {
		require.NoError(t, en.IngestBar(ctx, &models.Bar{
			Symbol: symbol, Timestamp: engineDay(i), Close: c, Volume: 1000,
		}))
		// Earnings after bars 1 and 5, both followed by up moves.
		if i == 1 || i == 5 {
			require.NoError(t, en.IngestEvent(ctx, &models.NewsEvent{
				ID: "e", Symbol: symbol, Timestamp: engineDay(i).Add(12 * time.Hour), Type: models.EventEarnings,
			}))
		}
	}
}

func TestEngineRejectsOutOfOrderBar(t *testing.T) {
	en, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, en.IngestBar(ctx, &models.Bar{Symbol: "ACME", Timestamp: engineDay(1), Close: 100}))
	err := en.IngestBar(ctx, &models.Bar{Symbol: "ACME", Timestamp: engineDay(0), Close: 90})
	require.ErrorIs(t, err, models.ErrOutOfOrderInput)
}

func TestEngineScoreAfterHistory(t *testing.T) {
	en, _ := newTestEngine(t)
	ingestHistory(t, en, "ACME")

	score, err := en.GetScore(context.Background(), "ACME")
	require.NoError(t, err)
	require.Equal(t, "ACME", score.Symbol)
	require.Greater(t, score.Score, 0.0)
	require.Greater(t, score.Confidence, 0.0)

	pred, err := en.GetPrediction(context.Background(), "ACME")
	require.NoError(t, err)
	require.Equal(t, 1, pred.Direction) // every resolved window moved up
	require.Equal(t, models.EventEarnings, pred.EventType)
}

func TestEngineScoreIsDeterministicAcrossReplays(t *testing.T) {
	en1, _ := newTestEngine(t)
	en2, _ := newTestEngine(t)
	ingestHistory(t, en1, "ACME")
	ingestHistory(t, en2, "ACME")

	s1, err := en1.GetScore(context.Background(), "ACME")
	require.NoError(t, err)
	s2, err := en2.GetScore(context.Background(), "ACME")
	require.NoError(t, err)

	require.Equal(t, s1.Score, s2.Score)
	require.Equal(t, s1.Sub, s2.Sub)
	require.Equal(t, s1.Classification, s2.Classification)
	require.Equal(t, s1.SampleCount, s2.SampleCount)
}

func TestEngineIndependentLanes(t *testing.T) {
	en, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, en.IngestBar(ctx, &models.Bar{Symbol: "AAA", Timestamp: engineDay(5), Close: 100}))
	// A rejection on AAA must not affect BBB.
	require.Error(t, en.IngestBar(ctx, &models.Bar{Symbol: "AAA", Timestamp: engineDay(4), Close: 90}))
	require.NoError(t, en.IngestBar(ctx, &models.Bar{Symbol: "BBB", Timestamp: engineDay(4), Close: 50}))

	require.True(t, en.HasData("AAA"))
	require.True(t, en.HasData("BBB"))
	require.False(t, en.HasData("CCC"))
}

func TestEngineTriggersAlertOnIngestedBar(t *testing.T) {
	en, f := newTestEngine(t)
	ctx := context.Background()

	a, err := f.manager.Create(ctx, &models.CreateAlertRequest{
		Symbol: "ACME", Type: "price_up", Condition: "absolute", Threshold: 110, Frequency: "realtime",
	})
	require.NoError(t, err)

	ingestHistory(t, en, "ACME") // closes cross 110 at day 7 (111)
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	got, err := f.triggers.ListByAlert(ctx, a.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "ACME", got[0].Symbol)
	require.InDelta(t, 111, got[0].Value, 1e-9)
}

func TestEngineAlertForUnknownStockIsNoOp(t *testing.T) {
	en, f := newTestEngine(t)
	ctx := context.Background()

	a, err := f.manager.Create(ctx, &models.CreateAlertRequest{
		Symbol: "GHOST", Type: "price_up", Condition: "absolute", Threshold: 1, Frequency: "realtime",
	})
	require.NoError(t, err)

	// Data for another stock produces no signals for GHOST.
	ingestHistory(t, en, "ACME")
	require.Equal(t, 0, f.triggerCount(t, a.ID))
	require.False(t, en.HasData("GHOST"))
}

func TestEngineRemoveStock(t *testing.T) {
	en, _ := newTestEngine(t)
	ctx := context.Background()

	ingestHistory(t, en, "ACME")
	en.RemoveStock(ctx, "ACME")
	require.False(t, en.HasData("ACME"))

	_, err := en.GetScore(ctx, "ACME")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEngineColdStartScore(t *testing.T) {
	en, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, en.IngestBar(ctx, &models.Bar{Symbol: "NEWCO", Timestamp: engineDay(0), Close: 10}))
	score, err := en.GetScore(ctx, "NEWCO")
	require.NoError(t, err)
	require.Equal(t, 0.0, score.Score)
	require.Equal(t, 0.0, score.Confidence)
	require.Equal(t, models.ClassAvoid, score.Classification)

	_, err = en.GetPrediction(ctx, "NEWCO")
	require.ErrorIs(t, err, models.ErrInsufficientSamples)
}

func TestEngineUnknownEventTypeCreatesBucketLazily(t *testing.T) {
	en, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, en.IngestBar(ctx, &models.Bar{Symbol: "ACME", Timestamp: engineDay(0), Close: 100}))
	require.NoError(t, en.IngestEvent(ctx, &models.NewsEvent{
		ID: "x", Symbol: "ACME", Timestamp: engineDay(0).Add(time.Hour), Type: models.EventType("ceo_resignation"),
	}))
	require.True(t, models.KnownEventType(models.EventType("ceo_resignation")))
}

func TestMemoryAlertStoreCopiesOnRead(t *testing.T) {
	store := repository.NewMemoryAlertStore()
	ctx := context.Background()

	a := &models.Alert{ID: "a1", Symbol: "ACME", Type: models.AlertPriceUp, Condition: models.ConditionAbsolute,
		Threshold: 10, Frequency: models.FreqRealtime, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, store.Create(ctx, a))

	got, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	got.Threshold = 999

	again, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, 10.0, again.Threshold)
}

func TestEngineQueryForUnknownSymbolCreatesNoLane(t *testing.T) {
	en, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := en.GetScore(ctx, "GHOST")
	require.ErrorIs(t, err, models.ErrNotFound)
	_, err = en.GetPrediction(ctx, "GHOST")
	require.ErrorIs(t, err, models.ErrNotFound)

	// Reads never allocate lanes, so repeated lookups of arbitrary symbols
	// leave the engine untouched.
	en.mu.RLock()
	_, ok := en.lanes["GHOST"]
	en.mu.RUnlock()
	require.False(t, ok)
	require.False(t, en.HasData("GHOST"))
}
