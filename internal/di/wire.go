//go:build wireinject
// +build wireinject

package di

import (
	"CryptoChat/pkg/config"
	"CryptoChat/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes infrastructure clients in reverse order of creation.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCaches,
		ProvideRateLimiter,
		ProvideClickHouseClient,

		// Repositories
		ProvideMarketData,
		ProvidePortfolioStore,
		ProvideEventStorage,
		ProvideEventStats,
		ProvideEventPublisher,

		// Services and use cases
		ProvideQueryParser,
		ProvideResponseGenerator,
		ProvideEventPipeline,
		ProvideChatUseCase,
		ProvideKafkaConsumer,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
