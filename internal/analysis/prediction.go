package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
)

// BuildPrediction derives a forecast from the statistically strongest bucket.
// Buckets belonging to the most recent unresolved event are preferred; absent
// one, the lowest p-value bucket overall wins. Returns ErrInsufficientSamples
// when no bucket clears the minimum sample threshold.
func (s *Scorer) BuildPrediction(snap Snapshot, now time.Time) (*models.Prediction, error) {
	eligible := s.eligibleBuckets(snap)
	if len(eligible) == 0 {
		return nil, fmt.Errorf("predict %s: %w", snap.Symbol, models.ErrInsufficientSamples)
	}

	candidates := eligible
	if snap.HasUnresolvedEvent {
		var matched []models.BucketStats
		for _, b := range eligible {
			if b.EventType == snap.LastEventType {
				matched = append(matched, b)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	best := candidates[0]
	for _, b := range candidates[1:] {
		if b.PValue < best.PValue {
			best = b
		}
	}

	direction := 0
	switch {
	case best.MeanReturn > 0:
		direction = 1
	case best.MeanReturn < 0:
		direction = -1
	}

	stdErr := 0.0
	if best.SampleCount > 0 {
		stdErr = best.ReturnStdDev / math.Sqrt(float64(best.SampleCount))
	}

	dom := best.PositiveCount
	if best.NegativeCount > dom {
		dom = best.NegativeCount
	}
	winRate := 0.0
	if best.SampleCount > 0 {
		winRate = float64(dom) / float64(best.SampleCount) * 100
	}

	word := "flat"
	switch direction {
	case 1:
		word = "up"
	case -1:
		word = "down"
	}

	return &models.Prediction{
		Symbol:       snap.Symbol,
		EventType:    best.EventType,
		Direction:    direction,
		MagnitudeMin: (best.MeanReturn - stdErr) * 100,
		MagnitudeMax: (best.MeanReturn + stdErr) * 100,
		Timing:       best.Horizon,
		WinRate:      math.Round(winRate*10) / 10,
		Confidence:   s.Confidence(snap.TotalSamples),
		SampleCount:  best.SampleCount,
		Reasoning: fmt.Sprintf("After %d %s events, %s moved %s %.1f%% of the time over the %s window.",
			best.SampleCount, best.EventType, snap.Symbol, word, winRate, best.Horizon),
		ComputedAt: now,
	}, nil
}
