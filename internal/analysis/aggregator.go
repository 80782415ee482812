package analysis

import (
	"fmt"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

type barPoint struct {
	ts     time.Time
	close  float64
	volume float64
}

// pendingPair is an event waiting for the bar that closes its horizon window.
// refIndex is the bar the event is anchored to (-1 until a bar exists);
// the window resolves when bar targetIndex(refIndex) has been ingested.
type pendingPair struct {
	eventType models.EventType
	horizon   repository.Horizon
	refIndex  int
	refClose  float64
}

// Aggregator maintains correlation buckets for one stock. It is not safe for
// concurrent use; callers serialize access per stock.
type Aggregator struct {
	symbol       string
	laggedOffset int

	bars        []barPoint
	lastEventTS time.Time

	pending []pendingPair
	buckets map[bucketKey]*bucket

	lastEventType models.EventType
}

func NewAggregator(symbol string, laggedOffset int) *Aggregator {
	return &Aggregator{
		symbol:       symbol,
		laggedOffset: laggedOffset,
		buckets:      make(map[bucketKey]*bucket),
	}
}

func (a *Aggregator) targetIndex(p pendingPair) int {
	return p.refIndex + 1 + p.horizon.BarOffset(a.laggedOffset)
}

// IngestBar appends one daily bar. Bars must arrive in strictly increasing
// timestamp order; violations are rejected without touching any state.
func (a *Aggregator) IngestBar(b *models.Bar) error {
	if n := len(a.bars); n > 0 && !b.Timestamp.After(a.bars[n-1].ts) {
		return fmt.Errorf("bar %s at %s: %w", b.Symbol, b.Timestamp.Format(time.RFC3339), models.ErrOutOfOrderInput)
	}

	a.bars = append(a.bars, barPoint{ts: b.Timestamp, close: b.Close, volume: b.Volume})
	last := len(a.bars) - 1

	// Events that arrived before any bar anchor to this first bar.
	if last == 0 {
		for i := range a.pending {
			if a.pending[i].refIndex < 0 {
				a.pending[i].refIndex = 0
				a.pending[i].refClose = b.Close
			}
		}
	}

	a.resolvePending(last)
	return nil
}

// IngestEvent registers a news event and opens one pending pair per horizon.
// Events must arrive in non-decreasing timestamp order per stock.
func (a *Aggregator) IngestEvent(e *models.NewsEvent) error {
	if !a.lastEventTS.IsZero() && e.Timestamp.Before(a.lastEventTS) {
		return fmt.Errorf("event %s at %s: %w", e.Symbol, e.Timestamp.Format(time.RFC3339), models.ErrOutOfOrderInput)
	}
	a.lastEventTS = e.Timestamp

	if !models.KnownEventType(e.Type) {
		// New categories are admitted lazily, never rejected.
		models.RegisterEventType(e.Type)
	}

	refIndex := len(a.bars) - 1
	refClose := 0.0
	if refIndex >= 0 {
		refClose = a.bars[refIndex].close
	}

	a.lastEventType = e.Type
	for _, h := range repository.Horizons() {
		a.pending = append(a.pending, pendingPair{
			eventType: e.Type,
			horizon:   h,
			refIndex:  refIndex,
			refClose:  refClose,
		})
	}
	return nil
}

// resolvePending folds every pair whose window closed at bar index last into
// its bucket. Resolution depends only on bar indices, so feeding the same
// history one bar at a time or all at once produces identical buckets.
func (a *Aggregator) resolvePending(last int) {
	if len(a.pending) == 0 {
		return
	}

	remaining := a.pending[:0]
	for _, p := range a.pending {
		if p.refIndex < 0 || a.targetIndex(p) > last {
			remaining = append(remaining, p)
			continue
		}
		if p.refClose == 0 {
			// Degenerate anchor, drop rather than divide by zero.
			continue
		}
		r := (a.bars[a.targetIndex(p)].close - p.refClose) / p.refClose

		key := bucketKey{eventType: p.eventType, horizon: p.horizon}
		bkt, ok := a.buckets[key]
		if !ok {
			bkt = &bucket{}
			a.buckets[key] = bkt
		}
		bkt.observe(r)
	}
	a.pending = remaining
}

// PendingCount reports event windows still waiting for bars.
func (a *Aggregator) PendingCount() int {
	return len(a.pending)
}

// Snapshot is a consistent read-only view of one stock's aggregation state.
type Snapshot struct {
	Symbol             string
	Buckets            []models.BucketStats
	PendingCount       int
	BarCount           int
	TotalSamples       int
	LastEventType      models.EventType
	HasUnresolvedEvent bool
	LastBarTS          time.Time
	LastClose          float64
	PrevClose          float64
	LastVolume         float64
	BaselineVolume     float64
}

// Snapshot captures current buckets plus the evaluator-facing tail of the bar
// history. volumeWindow bounds the baseline used for volume spike detection.
func (a *Aggregator) Snapshot(volumeWindow int) Snapshot {
	snap := Snapshot{
		Symbol:        a.symbol,
		PendingCount:  len(a.pending),
		BarCount:      len(a.bars),
		LastEventType: a.lastEventType,
	}
	for _, p := range a.pending {
		if p.eventType == a.lastEventType {
			snap.HasUnresolvedEvent = true
			break
		}
	}

	for key, bkt := range a.buckets {
		st := bkt.stats(a.symbol, key)
		snap.Buckets = append(snap.Buckets, st)
		snap.TotalSamples += st.SampleCount
	}

	if n := len(a.bars); n > 0 {
		snap.LastBarTS = a.bars[n-1].ts
		snap.LastClose = a.bars[n-1].close
		snap.LastVolume = a.bars[n-1].volume
		if n > 1 {
			snap.PrevClose = a.bars[n-2].close
		}
		// Baseline excludes the latest bar.
		start := n - 1 - volumeWindow
		if start < 0 {
			start = 0
		}
		if count := n - 1 - start; count > 0 {
			sum := 0.0
			for _, bp := range a.bars[start : n-1] {
				sum += bp.volume
			}
			snap.BaselineVolume = sum / float64(count)
		}
	}
	return snap
}
