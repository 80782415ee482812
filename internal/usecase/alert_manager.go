package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
)

// AlertManager owns the alert rule lifecycle. The evaluator never mutates
// rules except LastTriggeredAt; every other mutation goes through here.
type AlertManager struct {
	alerts    drepo.AlertStore
	triggers  drepo.TriggerStore
	evaluator *AlertEvaluator
	log       *logger.Logger
}

func NewAlertManager(
	alerts drepo.AlertStore,
	triggers drepo.TriggerStore,
	evaluator *AlertEvaluator,
	log *logger.Logger,
) *AlertManager {
	return &AlertManager{alerts: alerts, triggers: triggers, evaluator: evaluator, log: log}
}

// Create validates and stores a new rule. Malformed threshold/condition
// combinations are rejected here and never reach the evaluator.
func (m *AlertManager) Create(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	a := &models.Alert{
		ID:        uuid.NewString(),
		Symbol:    strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Type:      models.AlertType(req.Type),
		Condition: models.ConditionType(req.Condition),
		Threshold: req.Threshold,
		Frequency: models.Frequency(req.Frequency),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := validateRule(a); err != nil {
		return nil, err
	}
	if err := m.alerts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	m.log.Info("alert created",
		logger.String("alert_id", a.ID),
		logger.String("symbol", a.Symbol),
		logger.String("type", string(a.Type)))
	return a, nil
}

// CreateBulk creates several rules atomically from the caller's view: the
// whole batch is validated before any rule is stored.
func (m *AlertManager) CreateBulk(ctx context.Context, req *models.BulkCreateAlertsRequest) ([]*models.Alert, error) {
	batch := make([]*models.Alert, 0, len(req.Alerts))
	for i := range req.Alerts {
		r := &req.Alerts[i]
		a := &models.Alert{
			ID:        uuid.NewString(),
			Symbol:    strings.ToUpper(strings.TrimSpace(r.Symbol)),
			Type:      models.AlertType(r.Type),
			Condition: models.ConditionType(r.Condition),
			Threshold: r.Threshold,
			Frequency: models.Frequency(r.Frequency),
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := validateRule(a); err != nil {
			return nil, fmt.Errorf("alert %d: %w", i, err)
		}
		batch = append(batch, a)
	}
	for _, a := range batch {
		if err := m.alerts.Create(ctx, a); err != nil {
			return nil, fmt.Errorf("create alert %s: %w", a.ID, err)
		}
	}
	return batch, nil
}

// Get returns one rule by ID.
func (m *AlertManager) Get(ctx context.Context, id string) (*models.Alert, error) {
	return m.alerts.Get(ctx, id)
}

// List returns all rules.
func (m *AlertManager) List(ctx context.Context) ([]*models.Alert, error) {
	return m.alerts.List(ctx)
}

// Update applies a partial update and re-arms the rule's edge state.
func (m *AlertManager) Update(ctx context.Context, id string, req *models.UpdateAlertRequest) (*models.Alert, error) {
	a, err := m.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Condition != "" {
		a.Condition = models.ConditionType(req.Condition)
	}
	if req.Threshold != nil {
		a.Threshold = *req.Threshold
	}
	if req.Frequency != "" {
		a.Frequency = models.Frequency(req.Frequency)
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	a.UpdatedAt = time.Now().UTC()

	if err := validateRule(a); err != nil {
		return nil, err
	}
	if err := m.alerts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	m.evaluator.ResetEdge(id)
	return a, nil
}

// Toggle flips a rule between active and inactive. Re-enabling re-arms the
// edge state so the rule can fire immediately if its condition holds.
func (m *AlertManager) Toggle(ctx context.Context, id string) (*models.Alert, error) {
	a, err := m.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.IsActive = !a.IsActive
	a.UpdatedAt = time.Now().UTC()
	if err := m.alerts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("toggle alert: %w", err)
	}
	m.evaluator.ResetEdge(id)
	return a, nil
}

// Delete removes a rule and its edge state.
func (m *AlertManager) Delete(ctx context.Context, id string) error {
	if err := m.alerts.Delete(ctx, id); err != nil {
		return err
	}
	m.evaluator.ResetEdge(id)
	return nil
}

// ListTriggers returns trigger history, optionally scoped to one rule.
func (m *AlertManager) ListTriggers(ctx context.Context, alertID string, limit int) ([]*models.AlertTrigger, error) {
	return m.triggers.ListByAlert(ctx, alertID, limit)
}

// ListUnreadTriggers returns triggers not yet read or dismissed.
func (m *AlertManager) ListUnreadTriggers(ctx context.Context, limit int) ([]*models.AlertTrigger, error) {
	return m.triggers.ListUnread(ctx, limit)
}

// MarkTriggerRead marks one trigger as read.
func (m *AlertManager) MarkTriggerRead(ctx context.Context, id string) error {
	return m.triggers.MarkRead(ctx, id)
}

// DismissTrigger dismisses one trigger.
func (m *AlertManager) DismissTrigger(ctx context.Context, id string) error {
	return m.triggers.Dismiss(ctx, id, time.Now().UTC())
}

// validateRule enforces the threshold/condition combinations that struct tags
// cannot express.
func validateRule(a *models.Alert) error {
	if a.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive: %w", models.ErrInvalidAlertRule)
	}
	switch a.Type {
	case models.AlertPriceUp, models.AlertPriceDown, models.AlertVolumeSpike:
	case models.AlertPredictionChange:
		if a.Condition == models.ConditionAbsolute && a.Threshold > 100 {
			return fmt.Errorf("score delta above 100 can never fire: %w", models.ErrInvalidAlertRule)
		}
	case models.AlertDividend:
		if a.Condition == models.ConditionPercentage {
			return fmt.Errorf("dividend alerts accept absolute thresholds only: %w", models.ErrInvalidAlertRule)
		}
	default:
		return fmt.Errorf("unknown alert type %q: %w", a.Type, models.ErrInvalidAlertRule)
	}
	switch a.Condition {
	case models.ConditionAbsolute, models.ConditionPercentage:
	default:
		return fmt.Errorf("unknown condition type %q: %w", a.Condition, models.ErrInvalidAlertRule)
	}
	switch a.Frequency {
	case models.FreqRealtime, models.FreqDaily, models.FreqWeekly:
	default:
		return fmt.Errorf("unknown frequency %q: %w", a.Frequency, models.ErrInvalidAlertRule)
	}
	return nil
}
