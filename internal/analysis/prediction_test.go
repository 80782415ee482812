package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

func TestBuildPredictionPicksMostSignificantBucket(t *testing.T) {
	s := defaultScorer()
	snap := strongSnapshot()

	got, err := s.BuildPrediction(snap, time.Now())
	require.NoError(t, err)
	require.Equal(t, models.EventEarnings, got.EventType)
	require.Equal(t, string(repository.HSameDay), got.Timing)
	require.Equal(t, 1, got.Direction)
	require.InDelta(t, 88.0, got.WinRate, 0.01)
	require.Less(t, got.MagnitudeMin, got.MagnitudeMax)
	require.Greater(t, got.MagnitudeMin, 0.0) // mean 3% with small stderr stays positive
	require.Contains(t, got.Reasoning, "earnings")
	require.Contains(t, got.Reasoning, "ACME")
}

func TestBuildPredictionPrefersUnresolvedEventType(t *testing.T) {
	s := defaultScorer()
	snap := strongSnapshot()
	// Guidance bucket is weaker but belongs to the most recent open event.
	snap.Buckets = append(snap.Buckets, models.BucketStats{
		Symbol:        "ACME",
		EventType:     models.EventGuidance,
		Horizon:       string(repository.HNextDay),
		SampleCount:   10,
		MeanReturn:    -0.02,
		ReturnStdDev:  0.03,
		PositiveCount: 2,
		NegativeCount: 8,
		PValue:        0.06,
	})
	snap.LastEventType = models.EventGuidance
	snap.HasUnresolvedEvent = true

	got, err := s.BuildPrediction(snap, time.Now())
	require.NoError(t, err)
	require.Equal(t, models.EventGuidance, got.EventType)
	require.Equal(t, -1, got.Direction)
}

func TestBuildPredictionInsufficientSamples(t *testing.T) {
	s := defaultScorer()
	snap := Snapshot{
		Symbol: "NEWCO",
		Buckets: []models.BucketStats{
			{EventType: models.EventEarnings, Horizon: string(repository.HSameDay), SampleCount: 2, PValue: 0.01},
		},
		TotalSamples: 2,
	}

	_, err := s.BuildPrediction(snap, time.Now())
	require.ErrorIs(t, err, models.ErrInsufficientSamples)
}

func TestBuildPredictionReasoningMentionsWindow(t *testing.T) {
	s := defaultScorer()
	got, err := s.BuildPrediction(strongSnapshot(), time.Now())
	require.NoError(t, err)
	require.True(t, strings.Contains(got.Reasoning, "same_day"), "reasoning: %s", got.Reasoning)
}
