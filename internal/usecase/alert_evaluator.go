package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/util"
)

// AlertEvaluator matches signals against alert rules. Realtime rules are
// edge-triggered: a trigger fires only on a false-to-true transition of the
// condition, so a value staying beyond the threshold fires once until the
// condition first resets. Daily and weekly rules fire at most once per UTC
// calendar day / ISO week.
//
// Evaluation of all rules for one stock against one signal is a single atomic
// step; callers serialize signals per stock.
type AlertEvaluator struct {
	alerts     drepo.AlertStore
	triggers   drepo.TriggerStore
	dispatcher *TriggerDispatcher
	metrics    drepo.Metrics
	log        *logger.Logger

	// mu guards edge only. Per-stock signal ordering comes from the callers,
	// so rules for different stocks evaluate concurrently without convoying
	// on one process-wide lock.
	mu   sync.Mutex
	edge map[string]bool // alert ID -> last observed condition state
}

func NewAlertEvaluator(
	alerts drepo.AlertStore,
	triggers drepo.TriggerStore,
	dispatcher *TriggerDispatcher,
	metrics drepo.Metrics,
	log *logger.Logger,
) *AlertEvaluator {
	return &AlertEvaluator{
		alerts:     alerts,
		triggers:   triggers,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
		edge:       make(map[string]bool),
	}
}

// ScoreChange carries consecutive scoring outputs for one stock.
type ScoreChange struct {
	Symbol   string
	Prev     *models.PredictabilityScore
	Current  *models.PredictabilityScore
	PrevPred *models.Prediction
	CurPred  *models.Prediction
}

// EvaluateTick evaluates price and volume rules against the latest bar.
func (e *AlertEvaluator) EvaluateTick(ctx context.Context, tick *models.PriceTick) {
	e.evaluate(ctx, tick.Symbol, tick.Timestamp, func(a *models.Alert) (bool, float64, bool) {
		switch a.Type {
		case models.AlertPriceUp, models.AlertPriceDown:
			return e.priceCondition(a, tick)
		case models.AlertVolumeSpike:
			return e.volumeCondition(a, tick)
		default:
			return false, 0, false
		}
	})
}

// EvaluateScoreChange evaluates prediction_change rules.
func (e *AlertEvaluator) EvaluateScoreChange(ctx context.Context, ch *ScoreChange) {
	if ch.Current == nil {
		return
	}
	e.evaluate(ctx, ch.Symbol, ch.Current.ComputedAt, func(a *models.Alert) (bool, float64, bool) {
		if a.Type != models.AlertPredictionChange {
			return false, 0, false
		}
		return e.predictionCondition(a, ch)
	})
}

// EvaluateAction evaluates dividend rules against a corporate action.
func (e *AlertEvaluator) EvaluateAction(ctx context.Context, act *models.CorporateAction) {
	e.evaluate(ctx, act.Symbol, act.Timestamp, func(a *models.Alert) (bool, float64, bool) {
		if a.Type != models.AlertDividend || act.Kind != "dividend" {
			return false, 0, false
		}
		return act.Amount >= a.Threshold, act.Amount, true
	})
}

// evaluate runs every active rule for a symbol against one signal. cond
// reports (condition met, observed value, rule applies to this signal kind).
// Internal failures are absorbed and logged, never propagated.
func (e *AlertEvaluator) evaluate(ctx context.Context, symbol string, at time.Time, cond func(*models.Alert) (bool, float64, bool)) {
	rules, err := e.alerts.ListBySymbol(ctx, symbol)
	if err != nil {
		e.metrics.RecordError("alert_list")
		e.log.Error("list alerts", logger.String("symbol", symbol), logger.Error(err))
		return
	}

	for _, a := range rules {
		met, value, applies := cond(a)
		if !applies {
			continue
		}
		if !a.IsActive {
			// Inactive rules do not track edges either, so re-enabling
			// starts from a fresh armed state.
			continue
		}

		fire := false
		switch a.Frequency {
		case models.FreqRealtime:
			fire = met && !e.swapEdge(a.ID, met)
		case models.FreqDaily:
			fire = met && (a.LastTriggeredAt == nil || util.DayKey(*a.LastTriggeredAt) != util.DayKey(at))
		case models.FreqWeekly:
			fire = met && (a.LastTriggeredAt == nil || util.WeekKey(*a.LastTriggeredAt) != util.WeekKey(at))
		}
		if !fire {
			continue
		}

		if err := e.fire(ctx, a, value, at); err != nil {
			e.metrics.RecordError("alert_fire")
			e.log.Error("fire alert",
				logger.String("alert_id", a.ID),
				logger.String("symbol", symbol),
				logger.Error(err))
			continue
		}
		ts := at
		a.LastTriggeredAt = &ts
	}
}

func (e *AlertEvaluator) fire(ctx context.Context, a *models.Alert, value float64, at time.Time) error {
	trigger := &models.AlertTrigger{
		ID:          uuid.NewString(),
		AlertID:     a.ID,
		Symbol:      a.Symbol,
		Type:        a.Type,
		Value:       value,
		Threshold:   a.Threshold,
		Message:     triggerMessage(a, value),
		TriggeredAt: at,
	}

	if err := e.triggers.Append(ctx, trigger); err != nil {
		return fmt.Errorf("append trigger: %w", err)
	}
	if err := e.alerts.SetLastTriggered(ctx, a.ID, at); err != nil {
		return fmt.Errorf("set last triggered: %w", err)
	}

	e.metrics.RecordTriggerFired(string(a.Type), string(a.Frequency))
	e.dispatcher.Dispatch(trigger)

	e.log.Info("alert triggered",
		logger.String("alert_id", a.ID),
		logger.String("symbol", a.Symbol),
		logger.String("type", string(a.Type)),
		logger.Float64("value", value))
	return nil
}

// swapEdge records the latest observed condition state for a rule and
// returns the previous one.
func (e *AlertEvaluator) swapEdge(alertID string, met bool) bool {
	e.mu.Lock()
	prev := e.edge[alertID]
	e.edge[alertID] = met
	e.mu.Unlock()
	return prev
}

// ResetEdge re-arms the edge state for a rule. Called when a rule is updated,
// toggled or deleted so the next evaluation starts fresh.
func (e *AlertEvaluator) ResetEdge(alertID string) {
	e.mu.Lock()
	delete(e.edge, alertID)
	e.mu.Unlock()
}

func (e *AlertEvaluator) priceCondition(a *models.Alert, tick *models.PriceTick) (bool, float64, bool) {
	switch a.Condition {
	case models.ConditionAbsolute:
		if a.Type == models.AlertPriceUp {
			return tick.Price >= a.Threshold, tick.Price, true
		}
		return tick.Price <= a.Threshold, tick.Price, true
	case models.ConditionPercentage:
		if tick.PrevClose == 0 {
			// First bar for the stock, nothing to compare against yet.
			return false, 0, true
		}
		change := (tick.Price - tick.PrevClose) / tick.PrevClose * 100
		if a.Type == models.AlertPriceUp {
			return change >= a.Threshold, change, true
		}
		return change <= -a.Threshold, change, true
	}
	return false, 0, false
}

func (e *AlertEvaluator) volumeCondition(a *models.Alert, tick *models.PriceTick) (bool, float64, bool) {
	switch a.Condition {
	case models.ConditionAbsolute:
		return tick.Volume >= a.Threshold, tick.Volume, true
	case models.ConditionPercentage:
		if tick.BaselineVolume == 0 {
			return false, 0, true
		}
		return tick.Volume >= tick.BaselineVolume*(1+a.Threshold/100), tick.Volume, true
	}
	return false, 0, false
}

func (e *AlertEvaluator) predictionCondition(a *models.Alert, ch *ScoreChange) (bool, float64, bool) {
	if ch.Prev == nil {
		// First score for the stock, no change to react to.
		return false, ch.Current.Score, true
	}
	if ch.PrevPred != nil && ch.CurPred != nil &&
		ch.PrevPred.Direction != 0 && ch.CurPred.Direction != 0 &&
		ch.PrevPred.Direction != ch.CurPred.Direction {
		return true, ch.Current.Score, true
	}

	delta := ch.Current.Score - ch.Prev.Score
	if delta < 0 {
		delta = -delta
	}
	switch a.Condition {
	case models.ConditionAbsolute:
		return delta >= a.Threshold, ch.Current.Score, true
	case models.ConditionPercentage:
		if ch.Prev.Score == 0 {
			return false, ch.Current.Score, true
		}
		return delta/ch.Prev.Score*100 >= a.Threshold, ch.Current.Score, true
	}
	return false, 0, false
}

func triggerMessage(a *models.Alert, value float64) string {
	switch a.Type {
	case models.AlertPriceUp:
		return fmt.Sprintf("%s rose past %.2f (observed %.2f)", a.Symbol, a.Threshold, value)
	case models.AlertPriceDown:
		return fmt.Sprintf("%s fell past %.2f (observed %.2f)", a.Symbol, a.Threshold, value)
	case models.AlertVolumeSpike:
		return fmt.Sprintf("%s volume spiked to %.0f", a.Symbol, value)
	case models.AlertPredictionChange:
		return fmt.Sprintf("%s prediction shifted, score now %.1f", a.Symbol, value)
	case models.AlertDividend:
		return fmt.Sprintf("%s declared a dividend of %.2f", a.Symbol, value)
	}
	return fmt.Sprintf("%s alert fired at %.2f", a.Symbol, value)
}
