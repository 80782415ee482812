package models

import "time"

// Classification buckets a composite score into a recommendation.
type Classification string

const (
	ClassTradeThis Classification = "TRADE_THIS"
	ClassMaybe     Classification = "MAYBE"
	ClassAvoid     Classification = "AVOID"
)

// SubScores are the weighted components of a composite score, each on [0, 100].
type SubScores struct {
	Information float64
	Pattern     float64
	Timing      float64
	Direction   float64
}

// PredictabilityScore is the latest composite score for one stock.
// Overwritten on each recompute.
type PredictabilityScore struct {
	Symbol         string
	Score          float64
	Sub            SubScores
	Confidence     float64
	Classification Classification
	SampleCount    int
	PendingCount   int
	ComputedAt     time.Time
}

// Prediction is an actionable forecast derived from the strongest bucket.
type Prediction struct {
	Symbol       string
	EventType    EventType
	Direction    int // +1 up, -1 down, 0 flat
	MagnitudeMin float64
	MagnitudeMax float64
	Timing       string
	WinRate      float64
	Confidence   float64
	SampleCount  int
	Reasoning    string
	ComputedAt   time.Time
}

// BucketStats is a read-only snapshot of one correlation bucket.
type BucketStats struct {
	Symbol        string
	EventType     EventType
	Horizon       string
	SampleCount   int
	MeanReturn    float64
	ReturnStdDev  float64
	PositiveCount int
	NegativeCount int
	PValue        float64
}
