package analysis

import (
	"math"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

// Weights for the composite score. Must sum to 1.
type Weights struct {
	Information float64
	Pattern     float64
	Timing      float64
	Direction   float64
}

// Thresholds map a composite score onto a classification.
type Thresholds struct {
	TradeThis float64
	Maybe     float64
}

// ScorerConfig carries every tunable of the scoring pass.
type ScorerConfig struct {
	MinBucketSamples   int
	MinReliableSamples int
	SampleSaturation   int
	ConfidenceK        float64
	SNRClip            float64
	Weights            Weights
	Thresholds         Thresholds
}

// Scorer turns an aggregation snapshot into a composite predictability score.
// Scoring is a pure function of the snapshot: the same buckets always yield
// the same score.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the composite score for one stock. Stocks whose buckets are
// all below the minimum sample threshold get a zero score, zero confidence
// and an AVOID classification rather than an error.
func (s *Scorer) Score(snap Snapshot, now time.Time) *models.PredictabilityScore {
	out := &models.PredictabilityScore{
		Symbol:         snap.Symbol,
		Classification: models.ClassAvoid,
		SampleCount:    snap.TotalSamples,
		PendingCount:   snap.PendingCount,
		ComputedAt:     now,
	}

	eligible := s.eligibleBuckets(snap)
	if len(eligible) == 0 {
		return out
	}

	out.Sub = models.SubScores{
		Information: s.informationScore(eligible, snap.TotalSamples),
		Pattern:     s.patternScore(eligible),
		Timing:      s.timingScore(eligible),
		Direction:   s.directionScore(eligible),
	}

	w := s.cfg.Weights
	composite := w.Information*out.Sub.Information +
		w.Pattern*out.Sub.Pattern +
		w.Timing*out.Sub.Timing +
		w.Direction*out.Sub.Direction
	out.Score = clamp(math.Round(composite*100)/100, 0, 100)
	out.Confidence = s.Confidence(snap.TotalSamples)
	out.Classification = s.Classify(out.Score)
	return out
}

// Classify maps a composite score to a recommendation. Boundaries are
// inclusive: a score exactly at a threshold takes the stronger class.
func (s *Scorer) Classify(score float64) models.Classification {
	switch {
	case score >= s.cfg.Thresholds.TradeThis:
		return models.ClassTradeThis
	case score >= s.cfg.Thresholds.Maybe:
		return models.ClassMaybe
	default:
		return models.ClassAvoid
	}
}

// Confidence saturates toward 100 as the total sample count grows.
func (s *Scorer) Confidence(totalSamples int) float64 {
	if totalSamples <= 0 {
		return 0
	}
	c := 100 * (1 - math.Exp(-float64(totalSamples)/s.cfg.ConfidenceK))
	return math.Round(c*100) / 100
}

func (s *Scorer) eligibleBuckets(snap Snapshot) []models.BucketStats {
	var out []models.BucketStats
	for _, b := range snap.Buckets {
		if b.SampleCount >= s.cfg.MinBucketSamples {
			out = append(out, b)
		}
	}
	return out
}

// informationScore blends statistical significance (lowest p-value among
// eligible buckets) with sample volume relative to the saturation point.
func (s *Scorer) informationScore(eligible []models.BucketStats, totalSamples int) float64 {
	minP := 1.0
	for _, b := range eligible {
		if b.PValue < minP {
			minP = b.PValue
		}
	}
	volume := math.Min(1, float64(totalSamples)/float64(s.cfg.SampleSaturation))
	return 100 * (0.6*(1-minP) + 0.4*volume)
}

// patternScore is the best directional consistency, discounted for buckets
// below the reliable sample count.
func (s *Scorer) patternScore(eligible []models.BucketStats) float64 {
	best := 0.0
	for _, b := range eligible {
		if b.SampleCount == 0 {
			continue
		}
		dom := b.PositiveCount
		if b.NegativeCount > dom {
			dom = b.NegativeCount
		}
		consistency := float64(dom) / float64(b.SampleCount)
		reliability := math.Min(1, float64(b.SampleCount)/float64(s.cfg.MinReliableSamples))
		if v := consistency * reliability * 100; v > best {
			best = v
		}
	}
	return best
}

// timingScore rewards reactions concentrated in earlier horizons.
func (s *Scorer) timingScore(eligible []models.BucketStats) float64 {
	weights := map[string]float64{
		string(repository.HSameDay): 1.0,
		string(repository.HNextDay): 0.7,
		string(repository.HLagged):  0.4,
	}
	total := 0
	weighted := 0.0
	for _, b := range eligible {
		total += b.SampleCount
		weighted += float64(b.SampleCount) * weights[b.Horizon]
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total) * 100
}

// directionScore measures signal-to-noise of the strongest bucket mean.
func (s *Scorer) directionScore(eligible []models.BucketStats) float64 {
	best := 0.0
	for _, b := range eligible {
		var snr float64
		switch {
		case b.ReturnStdDev > 0:
			snr = math.Abs(b.MeanReturn) / b.ReturnStdDev
		case b.MeanReturn != 0:
			snr = s.cfg.SNRClip
		}
		if snr > s.cfg.SNRClip {
			snr = s.cfg.SNRClip
		}
		if v := snr / s.cfg.SNRClip * 100; v > best {
			best = v
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
