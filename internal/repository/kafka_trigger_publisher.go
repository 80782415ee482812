package repository

import (
	"context"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	pkgkafka "github.com/ElectricHyena/stock-predictor-sub001/pkg/kafka"
)

// KafkaTriggerPublisher implements TriggerPublisher on the Kafka producer.
type KafkaTriggerPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTriggerPublisher creates a Kafka trigger publisher.
func NewKafkaTriggerPublisher(producer *pkgkafka.Producer, topic string) repository.TriggerPublisher {
	return &KafkaTriggerPublisher{producer: producer, topic: topic}
}

func triggerPayload(t *models.AlertTrigger) map[string]interface{} {
	return map[string]interface{}{
		"id":           t.ID,
		"alert_id":     t.AlertID,
		"symbol":       t.Symbol,
		"alert_type":   string(t.Type),
		"value":        t.Value,
		"threshold":    t.Threshold,
		"message":      t.Message,
		"triggered_at": t.TriggeredAt.Unix(),
	}
}

func (p *KafkaTriggerPublisher) Publish(ctx context.Context, t *models.AlertTrigger) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), triggerPayload(t))
}

func (p *KafkaTriggerPublisher) PublishBatch(ctx context.Context, ts []*models.AlertTrigger) error {
	if len(ts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ts))
	for i, t := range ts {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(t.Symbol),
			Value: triggerPayload(t),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTriggerPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
