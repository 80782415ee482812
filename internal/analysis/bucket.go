package analysis

import (
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

type bucketKey struct {
	eventType models.EventType
	horizon   repository.Horizon
}

// bucket holds rolling return statistics for one (event type, horizon) pair.
// Directional counts track the sign of each observed return; a zero return
// counts as a sample but toward neither direction.
type bucket struct {
	welfordState
	positive int
	negative int
}

func (b *bucket) observe(r float64) {
	b.update(r)
	switch {
	case r > 0:
		b.positive++
	case r < 0:
		b.negative++
	}
}

// consistency is the share of samples agreeing with the dominant direction.
func (b *bucket) consistency() float64 {
	if b.count == 0 {
		return 0
	}
	dom := b.positive
	if b.negative > dom {
		dom = b.negative
	}
	return float64(dom) / float64(b.count)
}

func (b *bucket) stats(symbol string, key bucketKey) models.BucketStats {
	return models.BucketStats{
		Symbol:        symbol,
		EventType:     key.eventType,
		Horizon:       string(key.horizon),
		SampleCount:   b.count,
		MeanReturn:    b.mean,
		ReturnStdDev:  b.stdDev(),
		PositiveCount: b.positive,
		NegativeCount: b.negative,
		PValue:        TTestPValue(b.mean, b.stdDev(), b.count),
	}
}
