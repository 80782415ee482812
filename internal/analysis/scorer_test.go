package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

func defaultScorer() *Scorer {
	return NewScorer(ScorerConfig{
		MinBucketSamples:   5,
		MinReliableSamples: 20,
		SampleSaturation:   30,
		ConfidenceK:        12,
		SNRClip:            2.0,
		Weights:            Weights{Information: 0.30, Pattern: 0.25, Timing: 0.25, Direction: 0.20},
		Thresholds:         Thresholds{TradeThis: 70, Maybe: 45},
	})
}

func strongSnapshot() Snapshot {
	return Snapshot{
		Symbol: "ACME",
		Buckets: []models.BucketStats{
			{
				Symbol:        "ACME",
				EventType:     models.EventEarnings,
				Horizon:       string(repository.HSameDay),
				SampleCount:   25,
				MeanReturn:    0.03,
				ReturnStdDev:  0.02,
				PositiveCount: 22,
				NegativeCount: 3,
				PValue:        0.001,
			},
			{
				Symbol:        "ACME",
				EventType:     models.EventEarnings,
				Horizon:       string(repository.HNextDay),
				SampleCount:   25,
				MeanReturn:    0.01,
				ReturnStdDev:  0.03,
				PositiveCount: 15,
				NegativeCount: 10,
				PValue:        0.12,
			},
		},
		TotalSamples: 50,
	}
}

func TestScorerDeterministic(t *testing.T) {
	s := defaultScorer()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	first := s.Score(strongSnapshot(), now)
	for i := 0; i < 10; i++ {
		again := s.Score(strongSnapshot(), now)
		require.Equal(t, first, again)
	}
}

func TestScorerColdStart(t *testing.T) {
	s := defaultScorer()
	snap := Snapshot{
		Symbol: "NEWCO",
		Buckets: []models.BucketStats{
			{EventType: models.EventEarnings, Horizon: string(repository.HSameDay), SampleCount: 3, MeanReturn: 0.5, PValue: 0.01},
		},
		TotalSamples: 3,
	}

	got := s.Score(snap, time.Now())
	require.Equal(t, 0.0, got.Score)
	require.Equal(t, 0.0, got.Confidence)
	require.Equal(t, models.ClassAvoid, got.Classification)
	require.Equal(t, models.SubScores{}, got.Sub)
	require.Equal(t, 3, got.SampleCount)
}

func TestScorerEmptySnapshot(t *testing.T) {
	got := defaultScorer().Score(Snapshot{Symbol: "EMPTY"}, time.Now())
	require.Equal(t, 0.0, got.Score)
	require.Equal(t, models.ClassAvoid, got.Classification)
}

func TestClassificationBoundaries(t *testing.T) {
	s := defaultScorer()
	cases := []struct {
		score float64
		want  models.Classification
	}{
		{70.0, models.ClassTradeThis},
		{69.9, models.ClassMaybe},
		{45.0, models.ClassMaybe},
		{44.9, models.ClassAvoid},
		{100, models.ClassTradeThis},
		{0, models.ClassAvoid},
	}
	for _, c := range cases {
		require.Equal(t, c.want, s.Classify(c.score), "score %.1f", c.score)
	}
}

func TestScorerSubScoreRanges(t *testing.T) {
	s := defaultScorer()
	got := s.Score(strongSnapshot(), time.Now())

	require.GreaterOrEqual(t, got.Score, 0.0)
	require.LessOrEqual(t, got.Score, 100.0)
	for _, v := range []float64{got.Sub.Information, got.Sub.Pattern, got.Sub.Timing, got.Sub.Direction} {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 100.0)
	}
	// Strong, consistent history must not land in AVOID.
	require.NotEqual(t, models.ClassAvoid, got.Classification)
}

func TestConfidenceSaturates(t *testing.T) {
	s := defaultScorer()
	require.Equal(t, 0.0, s.Confidence(0))
	low := s.Confidence(5)
	mid := s.Confidence(30)
	high := s.Confidence(200)
	require.Greater(t, mid, low)
	require.Greater(t, high, mid)
	require.LessOrEqual(t, high, 100.0)
}

func TestTimingScorePrefersSameDay(t *testing.T) {
	s := defaultScorer()
	sameDay := []models.BucketStats{{Horizon: string(repository.HSameDay), SampleCount: 10}}
	lagged := []models.BucketStats{{Horizon: string(repository.HLagged), SampleCount: 10}}
	require.Greater(t, s.timingScore(sameDay), s.timingScore(lagged))
}
