package usecase

import (
	"context"

	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	mid "github.com/ElectricHyena/stock-predictor-sub001/internal/middleware"
)

// FeedCollector pulls market updates from the stream and pushes them through
// the ingest pipeline.
type FeedCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.IngestPipeline
	metrics drepo.Metrics
}

// NewFeedCollector creates a new FeedCollector instance.
func NewFeedCollector(stream drepo.MarketStream, pipe *mid.IngestPipeline, metrics drepo.Metrics) *FeedCollector {
	return &FeedCollector{stream: stream, pipe: pipe, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (c *FeedCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *FeedCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	upCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, upCh, errCh)
	return nil
}

func (c *FeedCollector) consume(ctx context.Context, upCh <-chan *drepo.MarketUpdate, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case u := <-upCh:
			if u == nil {
				continue
			}
			_ = c.pipe.Process(ctx, u)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *FeedCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
