package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
)

const triggerColumns = "id, alert_id, symbol, alert_type, value, threshold, message, triggered_at"

// ClickHouseTriggerHistory archives fired triggers for offline analysis.
type ClickHouseTriggerHistory struct {
	db    *sql.DB
	table string
}

func NewClickHouseTriggerHistory(db *sql.DB, table string) *ClickHouseTriggerHistory {
	return &ClickHouseTriggerHistory{db: db, table: table}
}

func (h *ClickHouseTriggerHistory) schema() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"id String, alert_id String, symbol String, alert_type String, value Float64, threshold Float64, message String, triggered_at DateTime64(3)"+
		") ENGINE=MergeTree ORDER BY (symbol, triggered_at)", h.table)
}

// Init creates the archive table if it does not exist yet.
func (h *ClickHouseTriggerHistory) Init(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, h.schema()); err != nil {
		return fmt.Errorf("trigger schema: %w", err)
	}
	return nil
}

func (h *ClickHouseTriggerHistory) Archive(ctx context.Context, t *models.AlertTrigger) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", h.table, triggerColumns)
	_, err := h.db.ExecContext(ctx, q, t.ID, t.AlertID, t.Symbol, string(t.Type), t.Value, t.Threshold, t.Message, t.TriggeredAt)
	return err
}

var _ TriggerArchiver = (*ClickHouseTriggerHistory)(nil)
