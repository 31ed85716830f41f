package di

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energy-dashboard/application/ports"
	"energy-dashboard/infrastructure/config"
	"energy-dashboard/infrastructure/persistence"
	"energy-dashboard/infrastructure/persistence/synthetic"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		DynamoDBTable:    "cft-ems-t1",
		PartitionKey:     "cft/ems/site1",
		SortKeyAttribute: "timestamp",
		MetricsNamespace: "EnergyDashboard",
		MaxRangePages:    5,
		MaxRangeItems:    100,
		StoreTimeoutMs:   1000,
		LogLevel:         "info",
	}
}

func testAWSConfig() aws.Config {
	return aws.Config{Region: "ap-south-1"}
}

func TestProvideEnergyRepository(t *testing.T) {
	logger := zap.NewNop()
	collector := ProvideCollector()
	generator := synthetic.NewGenerator("cft/ems/site1", logger)
	health := persistence.NewHealthTracker(nil, collector, logger)

	t.Run("Should serve the generator in synthetic mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.UseSyntheticData = true
		store := ProvideDynamoDBRepository(ProvideStoreClient(testAWSConfig(), cfg, logger), cfg, logger, ProvideTracer(cfg), collector)

		repo := ProvideEnergyRepository(cfg, store, generator, health, logger)
		assert.Same(t, generator, repo)
	})

	t.Run("Should wrap the store in live mode", func(t *testing.T) {
		cfg := testConfig()
		store := ProvideDynamoDBRepository(ProvideStoreClient(testAWSConfig(), cfg, logger), cfg, logger, ProvideTracer(cfg), collector)

		repo := ProvideEnergyRepository(cfg, store, generator, health, logger)
		_, ok := repo.(*persistence.DegradingRepository)
		assert.True(t, ok)

		_, ok = repo.(ports.RawItemReader)
		assert.True(t, ok)
	})
}

func TestProvideStoreClient(t *testing.T) {
	cfg := testConfig()
	cfg.UseSyntheticData = true
	assert.Nil(t, ProvideStoreClient(testAWSConfig(), cfg, zap.NewNop()))

	cfg.UseSyntheticData = false
	assert.NotNil(t, ProvideStoreClient(testAWSConfig(), cfg, zap.NewNop()))
}

func TestProvideHealthNotifier(t *testing.T) {
	cfg := testConfig()
	client := ProvideEventBridgeClient(testAWSConfig())

	t.Run("Should be nil without an event bus", func(t *testing.T) {
		assert.Nil(t, ProvideHealthNotifier(client, cfg, zap.NewNop()))
	})

	t.Run("Should publish to the configured bus", func(t *testing.T) {
		cfg.EventBusName = "energy-events"
		assert.NotNil(t, ProvideHealthNotifier(client, cfg, zap.NewNop()))
	})
}

func TestProvideJWTValidator(t *testing.T) {
	cfg := testConfig()

	validator, err := ProvideJWTValidator(cfg)
	require.NoError(t, err)
	assert.Nil(t, validator)

	cfg.AuthEnabled = true
	cfg.JWTSecret = "secret"
	validator, err = ProvideJWTValidator(cfg)
	require.NoError(t, err)
	assert.NotNil(t, validator)
}

func TestProvideLogger(t *testing.T) {
	cfg := testConfig()
	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "verbose"
	_, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideQueryBus(t *testing.T) {
	cfg := testConfig()
	cfg.UseSyntheticData = true
	logger := zap.NewNop()

	repo := synthetic.NewGenerator(cfg.PartitionKey, logger)
	handlers := ProvideQueryHandlers(cfg, repo, logger)
	metrics := ProvideMetrics(ProvideCloudWatchClient(testAWSConfig()), cfg, logger)

	bus, err := ProvideQueryBus(handlers, metrics, ProvideTracer(cfg), logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"GetEnergySeries", "GetHistory", "GetKpiSnapshot", "GetLatestRecord", "GetRange", "GetRawItems"}, bus.Registered())
	assert.Zero(t, metrics.Pending())
}
