//go:build wireinject
// +build wireinject

package di

import (
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/config"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCache,

		// Repositories
		ProvideMarketStore,
		ProvideAlertStore,
		ProvideTriggerStore,
		ProvideTriggerPublisher,
		ProvideTriggerQueue,
		ProvideMarketStream,

		// Use cases
		ProvideScorer,
		ProvideDispatcher,
		ProvideAlertEvaluator,
		ProvideEngine,
		ProvideAlertManager,
		ProvideFeedCollector,
		ProvideKafkaBarsHandler,
		ProvideKafkaNewsHandler,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
