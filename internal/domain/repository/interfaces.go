package repository

import (
	"context"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
)

// MarketUpdate is one message from the upstream feed.
type MarketUpdate struct {
	Bar    *models.Bar
	Event  *models.NewsEvent
	Action *models.CorporateAction
}

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *MarketUpdate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// MarketStore persists the append-only bar and event history. Init owns the
// table schema; the underlying connection is owned by whoever created it.
type MarketStore interface {
	Init(ctx context.Context) error
	StoreBar(ctx context.Context, b *models.Bar) error
	StoreEvent(ctx context.Context, e *models.NewsEvent) error
	QueryBars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error)
	QueryEvents(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.NewsEvent, error)
	Health(ctx context.Context) error
}

// AlertStore owns alert rules. The evaluator only ever calls SetLastTriggered.
type AlertStore interface {
	Create(ctx context.Context, a *models.Alert) error
	Get(ctx context.Context, id string) (*models.Alert, error)
	Update(ctx context.Context, a *models.Alert) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Alert, error)
	ListBySymbol(ctx context.Context, symbol string) ([]*models.Alert, error)
	SetLastTriggered(ctx context.Context, id string, ts time.Time) error
}

// TriggerStore is the append-only trigger history.
type TriggerStore interface {
	Append(ctx context.Context, t *models.AlertTrigger) error
	ListByAlert(ctx context.Context, alertID string, limit int) ([]*models.AlertTrigger, error)
	ListUnread(ctx context.Context, limit int) ([]*models.AlertTrigger, error)
	MarkRead(ctx context.Context, id string) error
	Dismiss(ctx context.Context, id string, at time.Time) error
}

// TriggerPublisher delivers fired triggers to downstream consumers.
type TriggerPublisher interface {
	Publish(ctx context.Context, t *models.AlertTrigger) error
	PublishBatch(ctx context.Context, ts []*models.AlertTrigger) error
	Close() error
}

type Metrics interface {
	RecordBarIngested(symbol string)
	RecordEventIngested(symbol, eventType string)
	RecordRejectedInput(reason string)
	RecordTriggerFired(alertType, frequency string)
	RecordError(kind string)
	RecordScore(symbol string, score float64)
	RecordPendingPairs(symbol string, n int)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
