package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	domrepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

// Ingestor is the minimal engine surface the pipeline needs.
type Ingestor interface {
	IngestBar(ctx context.Context, b *models.Bar) error
	IngestEvent(ctx context.Context, e *models.NewsEvent) error
	IngestAction(ctx context.Context, act *models.CorporateAction)
}

// IngestPipeline sits between the feed and the engine. It validates updates,
// throttles bursty symbols, and buffers when the engine is transiently
// unavailable. Rejections for out-of-order input are terminal and never
// re-queued.
type IngestPipeline struct {
	ing      Ingestor
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *domrepo.MarketUpdate
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max updates per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when the engine is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(ing Ingestor, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		ing:      ing,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		bufCh:    make(chan *domrepo.MarketUpdate, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *domrepo.MarketUpdate, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered updates.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case u := <-p.bufCh:
				if u == nil {
					continue
				}
				if err := p.forward(ctx, u); err != nil && !errors.Is(err, models.ErrOutOfOrderInput) {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- u:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards an update, buffering on
// transient failures.
func (p *IngestPipeline) Process(ctx context.Context, u *domrepo.MarketUpdate) error {
	start := time.Now()
	symbol, err := validateUpdate(u)
	if err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(symbol, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.forward(ctx, u); err != nil {
		if errors.Is(err, models.ErrOutOfOrderInput) {
			// The aggregator already counted the rejection; re-queueing an
			// out-of-order bar can never succeed.
			return err
		}
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- u:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func (p *IngestPipeline) forward(ctx context.Context, u *domrepo.MarketUpdate) error {
	switch {
	case u.Bar != nil:
		return p.ing.IngestBar(ctx, u.Bar)
	case u.Event != nil:
		return p.ing.IngestEvent(ctx, u.Event)
	case u.Action != nil:
		p.ing.IngestAction(ctx, u.Action)
		return nil
	}
	return nil
}

func validateUpdate(u *domrepo.MarketUpdate) (string, error) {
	if u == nil {
		return "", fmt.Errorf("update nil")
	}
	switch {
	case u.Bar != nil:
		b := u.Bar
		if b.Symbol == "" {
			return "", fmt.Errorf("bar symbol empty")
		}
		if b.Timestamp.IsZero() {
			return "", fmt.Errorf("bar timestamp invalid")
		}
		if b.Close < 0 || b.Volume < 0 {
			return "", fmt.Errorf("negative close/volume")
		}
		return b.Symbol, nil
	case u.Event != nil:
		e := u.Event
		if e.Symbol == "" {
			return "", fmt.Errorf("event symbol empty")
		}
		if e.Timestamp.IsZero() {
			return "", fmt.Errorf("event timestamp invalid")
		}
		if e.Type == "" {
			return "", fmt.Errorf("event type empty")
		}
		return e.Symbol, nil
	case u.Action != nil:
		a := u.Action
		if a.Symbol == "" {
			return "", fmt.Errorf("action symbol empty")
		}
		return a.Symbol, nil
	}
	return "", fmt.Errorf("empty update")
}

func (p *IngestPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() {
		p.lastSeen[symbol] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
