package usecase

import (
	"context"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/queue"
)

const triggerJobType = "trigger.deliver"

// TriggerDispatcher moves fired triggers out of the evaluation path. Delivery
// goes through the Redis queue when one is configured (retries and DLQ come
// for free), otherwise straight to the publisher on a worker goroutine.
type TriggerDispatcher struct {
	publisher drepo.TriggerPublisher
	queue     queue.QueueService
	metrics   drepo.Metrics
	log       *logger.Logger

	ch     chan *models.AlertTrigger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTriggerDispatcher(
	publisher drepo.TriggerPublisher,
	q queue.QueueService,
	metrics drepo.Metrics,
	log *logger.Logger,
) *TriggerDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &TriggerDispatcher{
		publisher: publisher,
		queue:     q,
		metrics:   metrics,
		log:       log,
		ch:        make(chan *models.AlertTrigger, 256),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch hands a trigger to the delivery worker. Never blocks the
// evaluator; if the buffer is full the trigger is dropped and counted.
func (d *TriggerDispatcher) Dispatch(t *models.AlertTrigger) {
	select {
	case d.ch <- t:
	default:
		d.metrics.RecordError("dispatch_overflow")
		d.log.Warn("trigger dispatch buffer full, dropping",
			logger.String("trigger_id", t.ID),
			logger.String("symbol", t.Symbol))
	}
}

func (d *TriggerDispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.ctx.Done():
			// Drain what is already buffered before exiting.
			for {
				select {
				case t := <-d.ch:
					d.deliver(t)
				default:
					return
				}
			}
		case t := <-d.ch:
			d.deliver(t)
		}
	}
}

func (d *TriggerDispatcher) deliver(t *models.AlertTrigger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if d.queue != nil {
		if err := d.queue.PublishMessage(ctx, triggerJobType, t); err == nil {
			return
		} else {
			d.log.Warn("queue enqueue failed, publishing directly",
				logger.String("trigger_id", t.ID), logger.Error(err))
		}
	}
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, t); err != nil {
		d.metrics.RecordError("trigger_publish")
		d.log.Error("publish trigger",
			logger.String("trigger_id", t.ID),
			logger.String("symbol", t.Symbol),
			logger.Error(err))
	}
}

// Close stops the worker after draining buffered triggers.
func (d *TriggerDispatcher) Close() {
	d.cancel()
	<-d.done
}

// TriggerDeliveryJob is the queue consumer side of trigger delivery.
type TriggerDeliveryJob struct {
	publisher drepo.TriggerPublisher
	log       *logger.Logger
}

func NewTriggerDeliveryJob(publisher drepo.TriggerPublisher, log *logger.Logger) *TriggerDeliveryJob {
	return &TriggerDeliveryJob{publisher: publisher, log: log}
}

func (j *TriggerDeliveryJob) Name() string { return "trigger-delivery" }
func (j *TriggerDeliveryJob) Type() string { return triggerJobType }

func (j *TriggerDeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	t, err := queue.ParsePayload[models.AlertTrigger](payload)
	if err != nil {
		return err
	}
	return j.publisher.Publish(ctx, t)
}
