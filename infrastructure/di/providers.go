package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	querybus "energy-dashboard/application/queries/bus"
	queryhandlers "energy-dashboard/application/queries/handlers"
	"energy-dashboard/infrastructure/config"
	"energy-dashboard/infrastructure/messaging/eventbridge"
	"energy-dashboard/infrastructure/persistence"
	"energy-dashboard/infrastructure/persistence/dynamodb"
	"energy-dashboard/infrastructure/persistence/synthetic"
	"energy-dashboard/interfaces/http/rest"
	"energy-dashboard/pkg/auth"
	apperrors "energy-dashboard/pkg/errors"
	"energy-dashboard/pkg/observability"
)

// prometheusNamespace prefixes every exported Prometheus metric
const prometheusNamespace = "energy_dashboard"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideCollector creates the Prometheus collector served on /metrics
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(prometheusNamespace)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("energy-dashboard", cfg.EnableTracing)
}

// ProvideStoreClient creates a breaker-guarded DynamoDB client. Synthetic
// mode never talks to the store, so it gets no client.
func ProvideStoreClient(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) awsdynamodb.QueryAPIClient {
	if cfg.UseSyntheticData {
		return nil
	}
	return dynamodb.NewBreakerClient(awsdynamodb.NewFromConfig(awsCfg), dynamodb.BreakerConfig{
		Name:             "dynamodb-" + cfg.DynamoDBTable,
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         time.Duration(cfg.Breaker.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
		FailureThreshold: cfg.Breaker.FailureRatio,
		MinRequests:      cfg.Breaker.MinRequests,
	}, logger)
}

// ProvideDynamoDBRepository creates the DynamoDB-backed telemetry repository
func ProvideDynamoDBRepository(
	client awsdynamodb.QueryAPIClient,
	cfg *config.Config,
	logger *zap.Logger,
	tracer *observability.Tracer,
	collector *observability.Collector,
) *dynamodb.EnergyRepository {
	return dynamodb.NewEnergyRepository(client, dynamodb.RepositoryConfig{
		TableName:     cfg.DynamoDBTable,
		PartitionKey:  cfg.PartitionKey,
		SortKey:       cfg.SortKeyAttribute,
		MaxRangePages: cfg.MaxRangePages,
		MaxRangeItems: cfg.MaxRangeItems,
		Timeout:       cfg.StoreTimeout(),
	}, logger, tracer, collector)
}

// ProvideSyntheticGenerator creates the synthetic series generator
func ProvideSyntheticGenerator(cfg *config.Config, logger *zap.Logger) *synthetic.Generator {
	return synthetic.NewGenerator(cfg.PartitionKey, logger, synthetic.WithMaxItems(cfg.MaxRangeItems))
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideHealthNotifier creates the store health event publisher. It is
// nil unless an event bus is configured.
func ProvideHealthNotifier(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.HealthNotifier {
	if cfg.EventBusName == "" || cfg.UseSyntheticData {
		return nil
	}
	return eventbridge.NewHealthNotifier(client, cfg.EventBusName, cfg.DynamoDBTable, cfg.PartitionKey, logger)
}

// ProvideHealthTracker creates the process-wide store health flag
func ProvideHealthTracker(notifier ports.HealthNotifier, collector *observability.Collector, logger *zap.Logger) *persistence.HealthTracker {
	return persistence.NewHealthTracker(notifier, collector, logger)
}

// ProvideEnergyRepository selects the repository the handlers read from:
// the generator in synthetic mode, otherwise the store behind the
// degrading decorator.
func ProvideEnergyRepository(
	cfg *config.Config,
	store *dynamodb.EnergyRepository,
	generator *synthetic.Generator,
	health *persistence.HealthTracker,
	logger *zap.Logger,
) ports.EnergyRepository {
	if cfg.UseSyntheticData {
		return generator
	}

	var fallback ports.EnergyRepository
	if cfg.SyntheticFallback {
		fallback = generator
	}
	return persistence.NewDegradingRepository(store, fallback, health, logger)
}

// ProvideQueryHandlers creates the energy query handlers
func ProvideQueryHandlers(cfg *config.Config, repo ports.EnergyRepository, logger *zap.Logger) *queryhandlers.EnergyQueryHandlers {
	var raw ports.RawItemReader
	if r, ok := repo.(ports.RawItemReader); ok {
		raw = r
	}
	return queryhandlers.NewEnergyQueryHandlers(repo, raw, cfg.UseSyntheticData, logger)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates the CloudWatch query metrics buffer. Without
// ENABLE_METRICS it records nothing.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	var api observability.PutMetricDataAPI
	if cfg.EnableMetrics {
		api = client
	}
	return observability.NewMetrics(cfg.MetricsNamespace, api, logger)
}

// ProvideQueryBus creates a query bus with registered handlers. Queries are
// logged, traced, then measured.
func ProvideQueryBus(
	handlers *queryhandlers.EnergyQueryHandlers,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus(
		querybus.LoggingMiddleware(logger),
		tracer,
		querybus.NewMetricsMiddleware(metrics),
	)
	if err := handlers.Register(b); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}

	logger.Debug("Query handlers registered", zap.Strings("queries", b.Registered()))
	return b, nil
}

// ProvideJWTValidator creates the bearer token validator, or nil when
// authentication is disabled
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideErrorHandler creates the HTTP error renderer. Development builds
// include stack traces.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	queryBus *querybus.QueryBus,
	health ports.StoreHealth,
	validator *auth.JWTValidator,
	errorHandler *apperrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		rest.RouterConfig{
			Mode:          cfg.Mode(),
			EnableCORS:    cfg.EnableCORS,
			CORSOrigins:   cfg.CORSOrigins,
			EnableMetrics: cfg.EnableMetrics,
		},
		queryBus,
		health,
		validator,
		errorHandler,
		collector,
		tracer,
		logger,
	)
}
