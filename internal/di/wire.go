//go:build wireinject
// +build wireinject

package di

import (
	"QuantPanel/pkg/config"
	"QuantPanel/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup func releases infrastructure clients in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRedisCache,

		// Repositories and loaders
		ProvidePriceLoader,
		ProvideSnapshotPublisher,

		// Use cases
		ProvideIndicatorUseCase,

		// Transports
		ProvideRateLimiter,
		ProvideIndicatorHandler,
		ProvideHealthHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
