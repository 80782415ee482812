package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsIngested   *prometheus.CounterVec
	eventsIngested *prometheus.CounterVec
	rejectedInput  *prometheus.CounterVec
	triggersFired  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	score          *prometheus.GaugeVec
	pendingPairs   *prometheus.GaugeVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_bars_ingested_total",
				Help: "Total number of daily bars accepted per symbol",
			},
			[]string{"symbol"},
		),
		eventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_events_ingested_total",
				Help: "Total number of news events accepted per symbol",
			},
			[]string{"symbol", "event_type"},
		),
		rejectedInput: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_rejected_input_total",
				Help: "Inputs rejected before mutating state",
			},
			[]string{"reason"},
		),
		triggersFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_alert_triggers_total",
				Help: "Alert triggers fired per alert type",
			},
			[]string{"alert_type", "frequency"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		score: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "predictor_predictability_score",
				Help: "Latest composite predictability score per symbol",
			},
			[]string{"symbol"},
		),
		pendingPairs: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "predictor_pending_pairs",
				Help: "Event-move pairs waiting for their target bar",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "predictor_last_close",
				Help: "Last recorded close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "predictor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBarIngested records an accepted daily bar.
func (r *Recorder) RecordBarIngested(symbol string) {
	r.barsIngested.WithLabelValues(symbol).Inc()
}

// RecordEventIngested records an accepted news event.
func (r *Recorder) RecordEventIngested(symbol, eventType string) {
	r.eventsIngested.WithLabelValues(symbol, eventType).Inc()
}

// RecordRejectedInput records an input rejected before any state change.
func (r *Recorder) RecordRejectedInput(reason string) {
	r.rejectedInput.WithLabelValues(reason).Inc()
}

// RecordTriggerFired records one alert trigger.
func (r *Recorder) RecordTriggerFired(alertType, frequency string) {
	r.triggersFired.WithLabelValues(alertType, frequency).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScore records the latest composite score for a symbol.
func (r *Recorder) RecordScore(symbol string, score float64) {
	r.score.WithLabelValues(symbol).Set(score)
}

// RecordPendingPairs records the number of unresolved event-move pairs.
func (r *Recorder) RecordPendingPairs(symbol string, n int) {
	r.pendingPairs.WithLabelValues(symbol).Set(float64(n))
}

// RecordLastClose records the last close for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
