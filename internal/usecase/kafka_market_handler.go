package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	domrepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	pkgkafka "github.com/ElectricHyena/stock-predictor-sub001/pkg/kafka"
)

// KafkaBarsHandler consumes daily bar messages and feeds them to the engine.
type KafkaBarsHandler struct {
	topic   string
	engine  *Engine
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, engine *Engine, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, engine: engine, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, o, h, l, c, v}
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		O      float64 `json:"o"`
		H      float64 `json:"h"`
		L      float64 `json:"l"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}

	err := h.engine.IngestBar(ctx, &models.Bar{
		Symbol:    m.Symbol,
		Timestamp: time.Unix(m.T, 0).UTC(),
		Open:      m.O,
		High:      m.H,
		Low:       m.L,
		Close:     m.C,
		Volume:    m.V,
	})
	if errors.Is(err, models.ErrOutOfOrderInput) {
		// Duplicate or replayed bar; dropping it keeps the partition moving.
		return nil
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)

// KafkaNewsHandler consumes categorized news events.
type KafkaNewsHandler struct {
	topic   string
	engine  *Engine
	metrics domrepo.Metrics
}

func NewKafkaNewsHandler(topic string, engine *Engine, metrics domrepo.Metrics) *KafkaNewsHandler {
	return &KafkaNewsHandler{topic: topic, engine: engine, metrics: metrics}
}

func (h *KafkaNewsHandler) Topic() string { return h.topic }

// incoming message schema: {id, symbol, t, event_type, headline, payload}
func (h *KafkaNewsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ID       string                 `json:"id"`
		Symbol   string                 `json:"symbol"`
		T        int64                  `json:"t"`
		Type     string                 `json:"event_type"`
		Headline string                 `json:"headline"`
		Payload  map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 {
		m.T = m.T / 1000
	}

	err := h.engine.IngestEvent(ctx, &models.NewsEvent{
		ID:        m.ID,
		Symbol:    m.Symbol,
		Timestamp: time.Unix(m.T, 0).UTC(),
		Type:      models.EventType(m.Type),
		Headline:  m.Headline,
		Payload:   m.Payload,
	})
	if errors.Is(err, models.ErrOutOfOrderInput) {
		return nil
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaNewsHandler)(nil)
