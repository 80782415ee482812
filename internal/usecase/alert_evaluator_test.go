package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordBarIngested(string)           {}
func (noopMetrics) RecordEventIngested(string, string) {}
func (noopMetrics) RecordRejectedInput(string)         {}
func (noopMetrics) RecordTriggerFired(string, string)  {}
func (noopMetrics) RecordError(string)                 {}
func (noopMetrics) RecordScore(string, float64)        {}
func (noopMetrics) RecordPendingPairs(string, int)     {}
func (noopMetrics) RecordLastClose(string, float64)    {}
func (noopMetrics) RecordLatency(string, float64)      {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

type evalFixture struct {
	alerts    drepo.AlertStore
	triggers  drepo.TriggerStore
	evaluator *AlertEvaluator
	manager   *AlertManager
}

func newEvalFixture(t *testing.T) *evalFixture {
	t.Helper()
	log := testLogger(t)
	alerts := repository.NewMemoryAlertStore()
	triggers := repository.NewMemoryTriggerStore()
	dispatcher := NewTriggerDispatcher(nil, nil, noopMetrics{}, log)
	t.Cleanup(dispatcher.Close)

	evaluator := NewAlertEvaluator(alerts, triggers, dispatcher, noopMetrics{}, log)
	manager := NewAlertManager(alerts, triggers, evaluator, log)
	return &evalFixture{alerts: alerts, triggers: triggers, evaluator: evaluator, manager: manager}
}

func (f *evalFixture) createAlert(t *testing.T, typ, cond string, threshold float64, freq string) *models.Alert {
	t.Helper()
	a, err := f.manager.Create(context.Background(), &models.CreateAlertRequest{
		Symbol:    "ACME",
		Type:      typ,
		Condition: cond,
		Threshold: threshold,
		Frequency: freq,
	})
	require.NoError(t, err)
	return a
}

func (f *evalFixture) tick(price float64, at time.Time) *models.PriceTick {
	return &models.PriceTick{Symbol: "ACME", Timestamp: at, Price: price}
}

func (f *evalFixture) triggerCount(t *testing.T, alertID string) int {
	t.Helper()
	ts, err := f.triggers.ListByAlert(context.Background(), alertID, 0)
	require.NoError(t, err)
	return len(ts)
}

func TestRealtimeAlertIsEdgeTriggered(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_up", "absolute", 100, "realtime")

	at := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	for i, price := range []float64{95, 101, 102, 99, 103} {
		f.evaluator.EvaluateTick(context.Background(), f.tick(price, at.Add(time.Duration(i)*time.Minute)))
	}

	// Crossings at 101 and 103; 102 stays above and must not re-fire.
	require.Equal(t, 2, f.triggerCount(t, a.ID))
}

func TestDailyAlertFiresOncePerDay(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_up", "absolute", 100, "daily")

	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.evaluator.EvaluateTick(context.Background(), f.tick(105, day1))
	f.evaluator.EvaluateTick(context.Background(), f.tick(99, day1.Add(time.Hour)))
	f.evaluator.EvaluateTick(context.Background(), f.tick(110, day1.Add(2*time.Hour)))
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	// Next calendar day reopens the window even if the value never dipped.
	day2 := day1.AddDate(0, 0, 1)
	f.evaluator.EvaluateTick(context.Background(), f.tick(111, day2))
	require.Equal(t, 2, f.triggerCount(t, a.ID))
}

func TestWeeklyAlertFiresOncePerISOWeek(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_down", "absolute", 50, "weekly")

	// Monday and Friday of the same ISO week, then the following Monday.
	mon := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	fri := mon.AddDate(0, 0, 4)
	nextMon := mon.AddDate(0, 0, 7)

	f.evaluator.EvaluateTick(context.Background(), f.tick(45, mon))
	f.evaluator.EvaluateTick(context.Background(), f.tick(40, fri))
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	f.evaluator.EvaluateTick(context.Background(), f.tick(42, nextMon))
	require.Equal(t, 2, f.triggerCount(t, a.ID))
}

func TestDisabledAlertDoesNotFireAndRearmsOnEnable(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_up", "absolute", 100, "realtime")
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.evaluator.EvaluateTick(ctx, f.tick(101, at))
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	_, err := f.manager.Toggle(ctx, a.ID) // disable
	require.NoError(t, err)
	f.evaluator.EvaluateTick(ctx, f.tick(150, at.Add(time.Minute)))
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	_, err = f.manager.Toggle(ctx, a.ID) // re-enable, edge re-armed
	require.NoError(t, err)
	f.evaluator.EvaluateTick(ctx, f.tick(150, at.Add(2*time.Minute)))
	require.Equal(t, 2, f.triggerCount(t, a.ID))
}

func TestPercentagePriceAlert(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_up", "percentage", 5, "realtime")
	ctx := context.Background()
	at := time.Now().UTC()

	// No previous close yet: nothing to compare, treated as a quiet no-op.
	f.evaluator.EvaluateTick(ctx, f.tick(100, at))
	require.Equal(t, 0, f.triggerCount(t, a.ID))

	tick := f.tick(106, at.Add(time.Minute))
	tick.PrevClose = 100 // +6%
	f.evaluator.EvaluateTick(ctx, tick)
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	tick = f.tick(108, at.Add(2*time.Minute))
	tick.PrevClose = 106 // +1.9%, below threshold, resets the edge
	f.evaluator.EvaluateTick(ctx, tick)
	require.Equal(t, 1, f.triggerCount(t, a.ID))
}

func TestVolumeSpikeAgainstBaseline(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "volume_spike", "percentage", 100, "realtime")
	ctx := context.Background()

	tick := f.tick(100, time.Now().UTC())
	tick.Volume = 2500
	tick.BaselineVolume = 1000 // +150% over baseline
	f.evaluator.EvaluateTick(ctx, tick)
	require.Equal(t, 1, f.triggerCount(t, a.ID))

	tick.Volume = 1500 // +50%, below the 100% threshold
	f.evaluator.EvaluateTick(ctx, tick)
	require.Equal(t, 1, f.triggerCount(t, a.ID))
}

func TestPredictionChangeOnDirectionFlip(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "prediction_change", "absolute", 10, "realtime")
	ctx := context.Background()
	now := time.Now().UTC()

	prev := &models.PredictabilityScore{Symbol: "ACME", Score: 60, ComputedAt: now}
	cur := &models.PredictabilityScore{Symbol: "ACME", Score: 62, ComputedAt: now}
	f.evaluator.EvaluateScoreChange(ctx, &ScoreChange{
		Symbol:   "ACME",
		Prev:     prev,
		Current:  cur,
		PrevPred: &models.Prediction{Symbol: "ACME", Direction: 1},
		CurPred:  &models.Prediction{Symbol: "ACME", Direction: -1},
	})
	require.Equal(t, 1, f.triggerCount(t, a.ID))
}

func TestPredictionChangeOnScoreDelta(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "prediction_change", "absolute", 10, "realtime")
	ctx := context.Background()
	now := time.Now().UTC()

	// First score has no predecessor, never fires.
	f.evaluator.EvaluateScoreChange(ctx, &ScoreChange{
		Symbol:  "ACME",
		Current: &models.PredictabilityScore{Symbol: "ACME", Score: 55, ComputedAt: now},
	})
	require.Equal(t, 0, f.triggerCount(t, a.ID))

	f.evaluator.EvaluateScoreChange(ctx, &ScoreChange{
		Symbol:  "ACME",
		Prev:    &models.PredictabilityScore{Symbol: "ACME", Score: 55, ComputedAt: now},
		Current: &models.PredictabilityScore{Symbol: "ACME", Score: 70, ComputedAt: now},
	})
	require.Equal(t, 1, f.triggerCount(t, a.ID))
}

func TestDividendAlert(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "dividend", "absolute", 1.0, "realtime")
	ctx := context.Background()

	f.evaluator.EvaluateAction(ctx, &models.CorporateAction{
		Symbol: "ACME", Kind: "dividend", Amount: 0.5, Timestamp: time.Now().UTC(),
	})
	require.Equal(t, 0, f.triggerCount(t, a.ID))

	f.evaluator.EvaluateAction(ctx, &models.CorporateAction{
		Symbol: "ACME", Kind: "dividend", Amount: 1.5, Timestamp: time.Now().UTC(),
	})
	require.Equal(t, 1, f.triggerCount(t, a.ID))
}

func TestTriggerSetsLastTriggeredAt(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_up", "absolute", 100, "realtime")
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f.evaluator.EvaluateTick(ctx, f.tick(105, at))

	got, err := f.alerts.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastTriggeredAt)
	require.True(t, got.LastTriggeredAt.Equal(at))
}

func TestInvalidRulesRejectedAtCreation(t *testing.T) {
	f := newEvalFixture(t)
	ctx := context.Background()

	cases := []models.CreateAlertRequest{
		{Symbol: "ACME", Type: "price_up", Condition: "absolute", Threshold: -5, Frequency: "realtime"},
		{Symbol: "ACME", Type: "dividend", Condition: "percentage", Threshold: 2, Frequency: "realtime"},
		{Symbol: "ACME", Type: "prediction_change", Condition: "absolute", Threshold: 150, Frequency: "daily"},
	}
	for i := range cases {
		_, err := f.manager.Create(ctx, &cases[i])
		require.ErrorIs(t, err, models.ErrInvalidAlertRule, "case %d", i)
	}
}

func TestTriggerReadAndDismissLifecycle(t *testing.T) {
	f := newEvalFixture(t)
	a := f.createAlert(t, "price_up", "absolute", 100, "realtime")
	ctx := context.Background()

	f.evaluator.EvaluateTick(ctx, f.tick(105, time.Now().UTC()))
	unread, err := f.manager.ListUnreadTriggers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, a.ID, unread[0].AlertID)

	require.NoError(t, f.manager.MarkTriggerRead(ctx, unread[0].ID))
	unread, err = f.manager.ListUnreadTriggers(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, unread)

	all, err := f.manager.ListTriggers(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].IsRead)

	require.NoError(t, f.manager.DismissTrigger(ctx, all[0].ID))
	all, err = f.manager.ListTriggers(ctx, a.ID, 10)
	require.NoError(t, err)
	require.NotNil(t, all[0].DismissedAt)
}

func TestEvaluatorHandlesStocksIndependentlyUnderConcurrency(t *testing.T) {
	f := newEvalFixture(t)
	ctx := context.Background()

	symbols := []string{"ACME", "GLOBEX", "INITECH", "UMBRELLA"}
	ids := make(map[string]string, len(symbols))
	for _, sym := range symbols {
		a, err := f.manager.Create(ctx, &models.CreateAlertRequest{
			Symbol:    sym,
			Type:      "price_up",
			Condition: "absolute",
			Threshold: 100,
			Frequency: "realtime",
		})
		require.NoError(t, err)
		ids[sym] = a.ID
	}

	// Signals for one stock stay ordered; stocks run in parallel.
	at := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			for i, price := range []float64{95, 101, 102, 99, 103} {
				f.evaluator.EvaluateTick(ctx, &models.PriceTick{
					Symbol:    sym,
					Timestamp: at.Add(time.Duration(i) * time.Minute),
					Price:     price,
				})
			}
		}(sym)
	}
	wg.Wait()

	// Each stock sees its own two threshold crossings.
	for _, sym := range symbols {
		require.Equal(t, 2, f.triggerCount(t, ids[sym]), sym)
	}
}
