package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/analysis"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/cache"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
)

// EngineConfig carries the aggregation tunables.
type EngineConfig struct {
	LaggedOffsetDays     int
	VolumeBaselineWindow int
	ScoreCacheTTL        time.Duration
}

// Engine owns one processing lane per stock. All mutation for a stock
// (ingest, rescore, alert evaluation) happens under that stock's lane lock,
// so per-stock state is single-writer while distinct stocks run in parallel.
type Engine struct {
	cfg       EngineConfig
	scorer    *analysis.Scorer
	evaluator *AlertEvaluator
	store     drepo.MarketStore
	cache     cache.Service
	metrics   drepo.Metrics
	log       *logger.Logger

	mu    sync.RWMutex
	lanes map[string]*stockLane
}

type stockLane struct {
	mu         sync.Mutex
	agg        *analysis.Aggregator
	score      *models.PredictabilityScore
	prediction *models.Prediction
}

func NewEngine(
	cfg EngineConfig,
	scorer *analysis.Scorer,
	evaluator *AlertEvaluator,
	store drepo.MarketStore,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		scorer:    scorer,
		evaluator: evaluator,
		store:     store,
		cache:     cacheSvc,
		metrics:   metrics,
		log:       log,
		lanes:     make(map[string]*stockLane),
	}
}

func (en *Engine) lane(symbol string) *stockLane {
	en.mu.RLock()
	l, ok := en.lanes[symbol]
	en.mu.RUnlock()
	if ok {
		return l
	}

	en.mu.Lock()
	defer en.mu.Unlock()
	if l, ok = en.lanes[symbol]; ok {
		return l
	}
	l = &stockLane{agg: analysis.NewAggregator(symbol, en.cfg.LaggedOffsetDays)}
	en.lanes[symbol] = l
	return l
}

// peek looks up a lane without creating one. Read paths use this so queries
// for unknown symbols cannot grow the lane map.
func (en *Engine) peek(symbol string) *stockLane {
	en.mu.RLock()
	defer en.mu.RUnlock()
	return en.lanes[symbol]
}

// IngestBar feeds one daily bar through aggregation, rescoring and alert
// evaluation. Out-of-order bars are rejected without side effects.
func (en *Engine) IngestBar(ctx context.Context, b *models.Bar) error {
	l := en.lane(b.Symbol)
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	if err := l.agg.IngestBar(b); err != nil {
		if errors.Is(err, models.ErrOutOfOrderInput) {
			en.metrics.RecordRejectedInput("out_of_order_bar")
		}
		return err
	}

	if en.store != nil {
		if err := en.store.StoreBar(ctx, b); err != nil {
			// History persistence is best effort, buckets stay authoritative.
			en.metrics.RecordError("store_bar")
			en.log.Error("store bar", logger.String("symbol", b.Symbol), logger.Error(err))
		}
	}

	en.metrics.RecordBarIngested(b.Symbol)
	en.metrics.RecordLastClose(b.Symbol, b.Close)

	snap := l.agg.Snapshot(en.cfg.VolumeBaselineWindow)
	en.rescore(ctx, l, snap)

	tick := &models.PriceTick{
		Symbol:         b.Symbol,
		Timestamp:      b.Timestamp,
		Price:          b.Close,
		PrevClose:      snap.PrevClose,
		Volume:         b.Volume,
		BaselineVolume: snap.BaselineVolume,
	}
	en.evaluator.EvaluateTick(ctx, tick)

	en.metrics.RecordLatency("ingest_bar", time.Since(start).Seconds())
	return nil
}

// IngestEvent feeds one news event. Unknown event types open a fresh bucket
// lazily and are never rejected.
func (en *Engine) IngestEvent(ctx context.Context, e *models.NewsEvent) error {
	l := en.lane(e.Symbol)
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	if err := l.agg.IngestEvent(e); err != nil {
		if errors.Is(err, models.ErrOutOfOrderInput) {
			en.metrics.RecordRejectedInput("out_of_order_event")
		}
		return err
	}

	if en.store != nil {
		if err := en.store.StoreEvent(ctx, e); err != nil {
			en.metrics.RecordError("store_event")
			en.log.Error("store event", logger.String("symbol", e.Symbol), logger.Error(err))
		}
	}

	en.metrics.RecordEventIngested(e.Symbol, string(e.Type))
	en.metrics.RecordPendingPairs(e.Symbol, l.agg.PendingCount())
	en.metrics.RecordLatency("ingest_event", time.Since(start).Seconds())
	return nil
}

// IngestAction routes a corporate action straight to the evaluator; it takes
// no part in correlation buckets.
func (en *Engine) IngestAction(ctx context.Context, act *models.CorporateAction) {
	l := en.lane(act.Symbol)
	l.mu.Lock()
	defer l.mu.Unlock()

	en.evaluator.EvaluateAction(ctx, act)
}

// rescore recomputes score and prediction from a fresh snapshot and lets the
// evaluator see the transition. Runs under the lane lock.
func (en *Engine) rescore(ctx context.Context, l *stockLane, snap analysis.Snapshot) {
	now := time.Now().UTC()
	prevScore, prevPred := l.score, l.prediction

	score := en.scorer.Score(snap, now)
	pred, err := en.scorer.BuildPrediction(snap, now)
	if err != nil && !errors.Is(err, models.ErrInsufficientSamples) {
		en.log.Error("build prediction", logger.String("symbol", snap.Symbol), logger.Error(err))
	}

	l.score = score
	l.prediction = pred

	en.metrics.RecordScore(snap.Symbol, score.Score)
	en.metrics.RecordPendingPairs(snap.Symbol, snap.PendingCount)
	en.cacheScore(ctx, score, pred)

	en.evaluator.EvaluateScoreChange(ctx, &ScoreChange{
		Symbol:   snap.Symbol,
		Prev:     prevScore,
		Current:  score,
		PrevPred: prevPred,
		CurPred:  pred,
	})
}

func (en *Engine) cacheScore(ctx context.Context, score *models.PredictabilityScore, pred *models.Prediction) {
	if en.cache == nil {
		return
	}
	if err := en.cache.Set(ctx, scoreCacheKey(score.Symbol), score, en.cfg.ScoreCacheTTL); err != nil {
		en.log.Warn("cache score", logger.String("symbol", score.Symbol), logger.Error(err))
	}
	if pred != nil {
		if err := en.cache.Set(ctx, predictionCacheKey(pred.Symbol), pred, en.cfg.ScoreCacheTTL); err != nil {
			en.log.Warn("cache prediction", logger.String("symbol", pred.Symbol), logger.Error(err))
		}
	}
}

func scoreCacheKey(symbol string) string      { return "score:" + symbol }
func predictionCacheKey(symbol string) string { return "prediction:" + symbol }

// GetScore returns the latest score for a symbol.
func (en *Engine) GetScore(ctx context.Context, symbol string) (*models.PredictabilityScore, error) {
	l := en.peek(symbol)
	if l == nil {
		if en.cache != nil {
			var cached models.PredictabilityScore
			if err := en.cache.Get(ctx, scoreCacheKey(symbol), &cached); err == nil {
				return &cached, nil
			}
		}
		return nil, fmt.Errorf("score %s: %w", symbol, models.ErrNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.score == nil {
		if l.agg.PendingCount() == 0 && en.cache != nil {
			var cached models.PredictabilityScore
			if err := en.cache.Get(ctx, scoreCacheKey(symbol), &cached); err == nil {
				return &cached, nil
			}
		}
		return nil, fmt.Errorf("score %s: %w", symbol, models.ErrNotFound)
	}
	out := *l.score
	return &out, nil
}

// GetPrediction returns the latest prediction for a symbol.
func (en *Engine) GetPrediction(ctx context.Context, symbol string) (*models.Prediction, error) {
	l := en.peek(symbol)
	if l == nil {
		return nil, fmt.Errorf("prediction %s: %w", symbol, models.ErrNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.prediction == nil {
		return nil, fmt.Errorf("prediction %s: %w", symbol, models.ErrInsufficientSamples)
	}
	out := *l.prediction
	return &out, nil
}

// HasData reports whether a symbol has any ingested history.
func (en *Engine) HasData(symbol string) bool {
	l := en.peek(symbol)
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.agg.Snapshot(1).BarCount > 0
}

// RemoveStock drops a stock's lane and evicts its cached outputs. Pending
// pairs disappear with the lane, so no rule state leaks.
func (en *Engine) RemoveStock(ctx context.Context, symbol string) {
	en.mu.Lock()
	delete(en.lanes, symbol)
	en.mu.Unlock()

	if en.cache != nil {
		if err := en.cache.Delete(ctx, scoreCacheKey(symbol), predictionCacheKey(symbol)); err != nil {
			en.log.Warn("evict cached score", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	en.metrics.RecordPendingPairs(symbol, 0)
}
