package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func bar(symbol string, n int, close, volume float64) *models.Bar {
	return &models.Bar{Symbol: symbol, Timestamp: day(n), Close: close, Volume: volume}
}

func event(symbol string, n int, typ models.EventType) *models.NewsEvent {
	return &models.NewsEvent{ID: "e", Symbol: symbol, Timestamp: day(n).Add(12 * time.Hour), Type: typ}
}

func bucketFor(t *testing.T, snap Snapshot, typ models.EventType, h repository.Horizon) models.BucketStats {
	t.Helper()
	for _, b := range snap.Buckets {
		if b.EventType == typ && b.Horizon == string(h) {
			return b
		}
	}
	t.Fatalf("no bucket for %s/%s", typ, h)
	return models.BucketStats{}
}

func TestAggregatorResolvesAllHorizons(t *testing.T) {
	agg := NewAggregator("ACME", 4)

	require.NoError(t, agg.IngestBar(bar("ACME", 0, 100, 1000)))
	require.NoError(t, agg.IngestBar(bar("ACME", 1, 101, 1000)))
	require.NoError(t, agg.IngestEvent(event("ACME", 1, models.EventEarnings)))
	require.Equal(t, 3, agg.PendingCount())

	require.NoError(t, agg.IngestBar(bar("ACME", 2, 103, 1000)))
	require.Equal(t, 2, agg.PendingCount())
	require.NoError(t, agg.IngestBar(bar("ACME", 3, 104, 1000)))
	require.Equal(t, 1, agg.PendingCount())
	require.NoError(t, agg.IngestBar(bar("ACME", 4, 105, 1000)))
	require.NoError(t, agg.IngestBar(bar("ACME", 5, 106, 1000)))
	require.NoError(t, agg.IngestBar(bar("ACME", 6, 110, 1000)))
	require.Equal(t, 0, agg.PendingCount())

	snap := agg.Snapshot(20)
	sameDay := bucketFor(t, snap, models.EventEarnings, repository.HSameDay)
	require.Equal(t, 1, sameDay.SampleCount)
	require.InDelta(t, (103.0-101.0)/101.0, sameDay.MeanReturn, 1e-12)

	nextDay := bucketFor(t, snap, models.EventEarnings, repository.HNextDay)
	require.InDelta(t, (104.0-101.0)/101.0, nextDay.MeanReturn, 1e-12)

	lagged := bucketFor(t, snap, models.EventEarnings, repository.HLagged)
	require.InDelta(t, (110.0-101.0)/101.0, lagged.MeanReturn, 1e-12)
}

func TestAggregatorRejectsOutOfOrderBar(t *testing.T) {
	agg := NewAggregator("ACME", 4)
	require.NoError(t, agg.IngestBar(bar("ACME", 0, 100, 0)))
	require.NoError(t, agg.IngestEvent(event("ACME", 0, models.EventEarnings)))
	require.NoError(t, agg.IngestBar(bar("ACME", 1, 110, 0)))

	before := agg.Snapshot(20)

	err := agg.IngestBar(bar("ACME", 1, 120, 0)) // equal timestamp
	require.ErrorIs(t, err, models.ErrOutOfOrderInput)
	err = agg.IngestBar(bar("ACME", 0, 120, 0)) // earlier timestamp
	require.ErrorIs(t, err, models.ErrOutOfOrderInput)

	after := agg.Snapshot(20)
	require.ElementsMatch(t, before.Buckets, after.Buckets)
	require.Equal(t, before.TotalSamples, after.TotalSamples)
	require.Equal(t, before.PendingCount, after.PendingCount)
	require.Equal(t, before.BarCount, after.BarCount)
	require.Equal(t, before.LastClose, after.LastClose)
}

func TestAggregatorRejectsOutOfOrderEvent(t *testing.T) {
	agg := NewAggregator("ACME", 4)
	require.NoError(t, agg.IngestEvent(event("ACME", 5, models.EventEarnings)))
	err := agg.IngestEvent(event("ACME", 2, models.EventGuidance))
	require.ErrorIs(t, err, models.ErrOutOfOrderInput)
	require.Equal(t, 3, agg.PendingCount())
}

func TestAggregatorCountsEachPairExactlyOnce(t *testing.T) {
	agg := NewAggregator("ACME", 4)
	require.NoError(t, agg.IngestBar(bar("ACME", 0, 100, 0)))
	require.NoError(t, agg.IngestEvent(event("ACME", 0, models.EventEarnings)))
	for i := 1; i <= 10; i++ {
		require.NoError(t, agg.IngestBar(bar("ACME", i, 100+float64(i), 0)))
	}

	snap := agg.Snapshot(20)
	require.Equal(t, 3, snap.TotalSamples)
	for _, b := range snap.Buckets {
		require.Equal(t, 1, b.SampleCount)
	}

	// Extra bars after full resolution must not add samples.
	require.NoError(t, agg.IngestBar(bar("ACME", 11, 120, 0)))
	require.Equal(t, 3, agg.Snapshot(20).TotalSamples)
}

func TestAggregatorBatchInvariance(t *testing.T) {
	run := func(checkpoints bool) Snapshot {
		agg := NewAggregator("ACME", 4)
		closes := []float64{100, 102, 99, 104, 101, 105, 107, 103, 108, 110, 109, 112}
		for i, c := range closes {
			require.NoError(t, agg.IngestBar(bar("ACME", i, c, 500)))
			if i == 1 {
				require.NoError(t, agg.IngestEvent(event("ACME", i, models.EventEarnings)))
			}
			if i == 4 {
				require.NoError(t, agg.IngestEvent(event("ACME", i, models.EventGuidance)))
			}
			if checkpoints {
				_ = agg.Snapshot(20) // interleaved reads must not disturb state
			}
		}
		return agg.Snapshot(20)
	}

	a := run(false)
	b := run(true)
	require.ElementsMatch(t, a.Buckets, b.Buckets)
	require.Equal(t, a.TotalSamples, b.TotalSamples)
	require.Equal(t, a.PendingCount, b.PendingCount)
}

func TestAggregatorEventBeforeFirstBar(t *testing.T) {
	agg := NewAggregator("ACME", 4)
	require.NoError(t, agg.IngestEvent(event("ACME", -1, models.EventAnalyst)))
	require.Equal(t, 3, agg.PendingCount())

	require.NoError(t, agg.IngestBar(bar("ACME", 0, 100, 0)))
	require.NoError(t, agg.IngestBar(bar("ACME", 1, 102, 0)))

	snap := agg.Snapshot(20)
	sameDay := bucketFor(t, snap, models.EventAnalyst, repository.HSameDay)
	require.InDelta(t, 0.02, sameDay.MeanReturn, 1e-12)
}

func TestAggregatorDirectionalCounts(t *testing.T) {
	agg := NewAggregator("ACME", 4)
	require.NoError(t, agg.IngestBar(bar("ACME", 0, 100, 0)))

	// Three earnings events, two up moves and one down on the same-day window.
	closes := []float64{105, 104, 106, 107, 103, 102}
	next := 1
	for i := 0; i < 3; i++ {
		require.NoError(t, agg.IngestEvent(event("ACME", next-1, models.EventEarnings)))
		require.NoError(t, agg.IngestBar(bar("ACME", next, closes[next-1], 0)))
		next++
		require.NoError(t, agg.IngestBar(bar("ACME", next, closes[next-1], 0)))
		next++
	}

	snap := agg.Snapshot(20)
	sameDay := bucketFor(t, snap, models.EventEarnings, repository.HSameDay)
	require.Equal(t, 3, sameDay.SampleCount)
	require.Equal(t, 2, sameDay.PositiveCount)
	require.Equal(t, 1, sameDay.NegativeCount)
}

func TestSnapshotVolumeBaselineExcludesLatestBar(t *testing.T) {
	agg := NewAggregator("ACME", 4)
	require.NoError(t, agg.IngestBar(bar("ACME", 0, 100, 1000)))
	require.NoError(t, agg.IngestBar(bar("ACME", 1, 101, 2000)))
	require.NoError(t, agg.IngestBar(bar("ACME", 2, 102, 9000)))

	snap := agg.Snapshot(20)
	require.InDelta(t, 1500, snap.BaselineVolume, 1e-9)
	require.InDelta(t, 9000, snap.LastVolume, 1e-9)
	require.InDelta(t, 101, snap.PrevClose, 1e-9)
	require.InDelta(t, 102, snap.LastClose, 1e-9)
}
