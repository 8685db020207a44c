//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"seismograph/pkg/config"
	"seismograph/pkg/server"
)

var analysisSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvideMetrics,

	// Infrastructure clients
	ProvideCacheService,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideInfra,

	// Repositories
	ProvideHistoryCache,
	ProvideBarStore,
	ProvideStatePublisher,
	ProvidePriceFetcher,

	// Domain services
	ProvideEngine,
	ProvideAnalyzer,

	// Use cases
	ProvideUseCaseOptions,
	ProvideMarketStateUseCase,
	ProvideAnalysisUseCase,
	ProvidePortfolioUseCase,
)

// InitializeApp wires the HTTP application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		analysisSet,
		ProvideMarketHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeServices wires the use cases for one-shot CLI commands.
func InitializeServices(cfg *config.Config) (*Services, error) {
	wire.Build(
		analysisSet,
		ProvideServices,
	)
	return &Services{}, nil
}
