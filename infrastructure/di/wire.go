//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"energy-dashboard/application/ports"
	"energy-dashboard/infrastructure/config"
	"energy-dashboard/infrastructure/persistence"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideCollector,
	ProvideTracer,
	ProvideStoreClient,
	ProvideDynamoDBRepository,
	ProvideSyntheticGenerator,
	ProvideEventBridgeClient,
	ProvideHealthNotifier,
	ProvideHealthTracker,
	wire.Bind(new(ports.StoreHealth), new(*persistence.HealthTracker)),
	ProvideEnergyRepository,
	ProvideQueryHandlers,
	ProvideCloudWatchClient,
	ProvideMetrics,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
