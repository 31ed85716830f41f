package di

import (
	"go.uber.org/zap"

	querybus "energy-dashboard/application/queries/bus"
	"energy-dashboard/infrastructure/config"
	"energy-dashboard/infrastructure/persistence"
	"energy-dashboard/interfaces/http/rest"
	"energy-dashboard/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	QueryBus  *querybus.QueryBus
	Health    *persistence.HealthTracker
	Metrics   *observability.Metrics
	Collector *observability.Collector
	Router    *rest.Router
}
