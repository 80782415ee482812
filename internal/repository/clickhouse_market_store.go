package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

// Column lists shared by every insert and select. Init's DDL must define
// exactly these columns so the schema and the statements cannot drift apart.
const (
	barColumns   = "symbol, ts, open, high, low, close, volume"
	eventColumns = "id, symbol, ts, event_type, headline, payload"
)

// ClickHouseMarketStore persists the append-only bar and event history.
type ClickHouseMarketStore struct {
	db         *sql.DB
	barsTable  string
	eventTable string
}

// NewClickHouseMarketStore creates ClickHouse-backed market history storage.
func NewClickHouseMarketStore(db *sql.DB, barsTable, eventTable string) repository.MarketStore {
	return &ClickHouseMarketStore{db: db, barsTable: barsTable, eventTable: eventTable}
}

func (s *ClickHouseMarketStore) schema() []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
			"symbol String, ts DateTime64(3), open Float64, high Float64, low Float64, close Float64, volume Float64"+
			") ENGINE=MergeTree ORDER BY (symbol, ts)", s.barsTable),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
			"id String, symbol String, ts DateTime64(3), event_type String, headline String, payload String"+
			") ENGINE=MergeTree ORDER BY (symbol, ts)", s.eventTable),
	}
}

// Init creates the history tables if they do not exist yet.
func (s *ClickHouseMarketStore) Init(ctx context.Context) error {
	for _, q := range s.schema() {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("market schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseMarketStore) StoreBar(ctx context.Context, b *models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", s.barsTable, barColumns)
	_, err := s.db.ExecContext(ctx, q, b.Symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume)
	return err
}

func (s *ClickHouseMarketStore) StoreEvent(ctx context.Context, e *models.NewsEvent) error {
	payload := "{}"
	if e.Payload != nil {
		if raw, err := json.Marshal(e.Payload); err == nil {
			payload = string(raw)
		}
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)", s.eventTable, eventColumns)
	_, err := s.db.ExecContext(ctx, q, e.ID, e.Symbol, e.Timestamp, string(e.Type), e.Headline, payload)
	return err
}

func (s *ClickHouseMarketStore) QueryBars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?", barColumns, s.barsTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []*models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseMarketStore) QueryEvents(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.NewsEvent, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?", eventColumns, s.eventTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.NewsEvent
	for rows.Next() {
		var (
			e       models.NewsEvent
			typ     string
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Timestamp, &typ, &e.Headline, &payload); err != nil {
			return nil, err
		}
		e.Type = models.EventType(typ)
		if payload != "" && payload != "{}" {
			_ = json.Unmarshal([]byte(payload), &e.Payload)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (s *ClickHouseMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
