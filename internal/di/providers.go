package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/analysis"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/handler/api"
	mid "github.com/ElectricHyena/stock-predictor-sub001/internal/middleware"
	internalrepo "github.com/ElectricHyena/stock-predictor-sub001/internal/repository"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/service/feed"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/usecase"
	pkgcache "github.com/ElectricHyena/stock-predictor-sub001/pkg/cache"
	pkgch "github.com/ElectricHyena/stock-predictor-sub001/pkg/clickhouse"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/config"
	xhttp "github.com/ElectricHyena/stock-predictor-sub001/pkg/http"
	pkgkafka "github.com/ElectricHyena/stock-predictor-sub001/pkg/kafka"
	applogger "github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/metrics"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/queue"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Table DDL lives with the stores that own the statements.
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates a shared Redis client, or nil when disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideCache creates the score cache, or nil when Redis is disabled.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(c), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideMarketStore creates ClickHouse persistence for bars and events and
// ensures its tables exist.
func ProvideMarketStore(chClient *pkgch.Client, cfg *config.Config) (repository.MarketStore, error) {
	db := cfg.ClickHouse.Database
	store := internalrepo.NewClickHouseMarketStore(chClient.DB(), db+".bars", db+".news_events")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("market store: %w", err)
	}
	return store, nil
}

// ProvideAlertStore creates the in-memory alert rule store.
func ProvideAlertStore() repository.AlertStore {
	return internalrepo.NewMemoryAlertStore()
}

// ProvideTriggerStore creates the trigger store with ClickHouse archival.
func ProvideTriggerStore(chClient *pkgch.Client, cfg *config.Config) (repository.TriggerStore, error) {
	archiver := internalrepo.NewClickHouseTriggerHistory(chClient.DB(), cfg.ClickHouse.Database+".alert_triggers")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archiver.Init(ctx); err != nil {
		return nil, fmt.Errorf("trigger store: %w", err)
	}
	return internalrepo.NewMemoryTriggerStore(internalrepo.WithArchiver(archiver)), nil
}

// ProvideTriggerPublisher creates the Kafka trigger publisher.
func ProvideTriggerPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.TriggerPublisher {
	return internalrepo.NewKafkaTriggerPublisher(producer, cfg.Kafka.TriggersTopic)
}

// ProvideTriggerQueue creates the Redis delivery queue with the trigger job
// registered, or nil when Redis is disabled. Queued triggers get retries and
// a dead letter key; the consumer side forwards them to Kafka.
func ProvideTriggerQueue(
	client *redis.Client,
	publisher repository.TriggerPublisher,
	l *applogger.Logger,
) *queue.RedisQueue {
	if client == nil {
		return nil
	}
	q := queue.NewRedisQueue(l,
		&queue.QueueConfig{Workers: 2, RetryLimit: 3, RetryDelay: 5 * time.Second},
		client, queue.ModeProducerConsumer,
	)
	q.RegisterJob(usecase.NewTriggerDeliveryJob(publisher, l))
	// Aggregated warn/error logs ride the same queue.
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "log.aggregate",
		Publisher:      q,
	})
	return q
}

// ProvideMarketStream creates the WebSocket market data stream.
func ProvideMarketStream(cfg *config.Config) repository.MarketStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideScorer creates the scorer from engine tunables.
func ProvideScorer(cfg *config.Config) *analysis.Scorer {
	return analysis.NewScorer(analysis.ScorerConfig{
		MinBucketSamples:   cfg.Engine.MinBucketSamples,
		MinReliableSamples: cfg.Engine.MinReliableSamples,
		SampleSaturation:   cfg.Engine.SampleSaturation,
		ConfidenceK:        cfg.Engine.ConfidenceK,
		SNRClip:            cfg.Engine.SNRClip,
		Weights: analysis.Weights{
			Information: cfg.Engine.Weights.Information,
			Pattern:     cfg.Engine.Weights.Pattern,
			Timing:      cfg.Engine.Weights.Timing,
			Direction:   cfg.Engine.Weights.Direction,
		},
		Thresholds: analysis.Thresholds{
			TradeThis: cfg.Engine.Thresholds.TradeThis,
			Maybe:     cfg.Engine.Thresholds.Maybe,
		},
	})
}

// ProvideDispatcher creates the trigger delivery worker.
func ProvideDispatcher(
	publisher repository.TriggerPublisher,
	q *queue.RedisQueue,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TriggerDispatcher {
	var qs queue.QueueService
	if q != nil {
		qs = q
	}
	return usecase.NewTriggerDispatcher(publisher, qs, m, l)
}

// ProvideAlertEvaluator creates the rule evaluator.
func ProvideAlertEvaluator(
	alerts repository.AlertStore,
	triggers repository.TriggerStore,
	dispatcher *usecase.TriggerDispatcher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AlertEvaluator {
	return usecase.NewAlertEvaluator(alerts, triggers, dispatcher, m, l)
}

// ProvideEngine creates the scoring engine.
func ProvideEngine(
	cfg *config.Config,
	scorer *analysis.Scorer,
	evaluator *usecase.AlertEvaluator,
	store repository.MarketStore,
	cacheSvc pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Engine {
	return usecase.NewEngine(
		usecase.EngineConfig{
			LaggedOffsetDays:     cfg.Engine.LaggedOffsetDays,
			VolumeBaselineWindow: cfg.Engine.VolumeBaselineWindow,
			ScoreCacheTTL:        cfg.Engine.ScoreCacheTTL,
		},
		scorer, evaluator, store, cacheSvc, m, l,
	)
}

// ProvideAlertManager creates the alert CRUD use case.
func ProvideAlertManager(
	alerts repository.AlertStore,
	triggers repository.TriggerStore,
	evaluator *usecase.AlertEvaluator,
	l *applogger.Logger,
) *usecase.AlertManager {
	return usecase.NewAlertManager(alerts, triggers, evaluator, l)
}

// ProvideFeedCollector builds the stream-to-engine path with validation and throttling.
func ProvideFeedCollector(
	stream repository.MarketStream,
	engine *usecase.Engine,
	m repository.Metrics,
) *usecase.FeedCollector {
	pipe := mid.NewIngestPipeline(engine, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewFeedCollector(stream, pipe, m)
}

// ProvideKafkaBarsHandler registers the handler for the bars topic.
func ProvideKafkaBarsHandler(engine *usecase.Engine, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, engine, m)
}

// ProvideKafkaNewsHandler registers the handler for the news topic.
func ProvideKafkaNewsHandler(engine *usecase.Engine, m repository.Metrics, cfg *config.Config) *usecase.KafkaNewsHandler {
	return usecase.NewKafkaNewsHandler(cfg.Kafka.NewsTopic, engine, m)
}

// ProvideHTTPHandler composes the score, alert and history endpoint handlers.
func ProvideHTTPHandler(
	l *applogger.Logger,
	engine *usecase.Engine,
	manager *usecase.AlertManager,
	store repository.MarketStore,
) xhttp.Handler {
	return api.NewRootHandler(
		api.NewScoresEchoHandler(l, engine),
		api.NewAlertsEchoHandler(l, manager),
		api.NewHistoryEchoHandler(l, store),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	bars *usecase.KafkaBarsHandler,
	news *usecase.KafkaNewsHandler,
	dispatcher *usecase.TriggerDispatcher,
	q *queue.RedisQueue,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, collector, consumer, []pkgkafka.MessageHandler{bars, news}, dispatcher, q, chClient)
	app.SetHTTPHandler(httpHandler)
	return app
}
