package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is loaded once at start
// and passed by pointer; nothing mutates it afterwards.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion        string `yaml:"region"`
	DynamoDBTable    string `yaml:"table"`
	PartitionKey     string `yaml:"partition_key"`
	SortKeyAttribute string `yaml:"sort_key_attribute"`
	EventBusName     string `yaml:"event_bus_name"`
	MetricsNamespace string `yaml:"metrics_namespace"`

	// Store behaviour
	UseSyntheticData  bool `yaml:"use_synthetic_data"`
	SyntheticFallback bool `yaml:"synthetic_fallback"`
	MaxRangePages     int  `yaml:"max_range_pages"`
	MaxRangeItems     int  `yaml:"max_range_items"`
	StoreTimeoutMs    int  `yaml:"store_timeout_ms"`

	Breaker BreakerConfig `yaml:"breaker"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	AuthEnabled bool   `yaml:"auth_enabled"`
	JWTSecret   string `yaml:"-"`
	JWTIssuer   string `yaml:"jwt_issuer"`

	// Feature flags
	EnableMetrics       bool     `yaml:"enable_metrics"`
	EnableTracing       bool     `yaml:"enable_tracing"`
	EnableCORS          bool     `yaml:"enable_cors"`
	CORSOrigins         []string `yaml:"cors_origins"`
	MetricsFlushSeconds int      `yaml:"metrics_flush_seconds"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// BreakerConfig tunes the circuit breaker around store calls
type BreakerConfig struct {
	MaxRequests     uint32  `yaml:"max_requests"`
	IntervalSeconds int     `yaml:"interval_seconds"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	MinRequests     uint32  `yaml:"min_requests"`
	FailureRatio    float64 `yaml:"failure_ratio"`
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress:    ":8080",
		Environment:      "development",
		AWSRegion:        "ap-south-1",
		DynamoDBTable:    "cft-ems-t1",
		PartitionKey:     "cft/ems/site1",
		SortKeyAttribute: "timestamp",
		EventBusName:     "",
		MetricsNamespace: "EnergyDashboard",
		MaxRangePages:    50,
		MaxRangeItems:    20000,
		StoreTimeoutMs:   10000,
		Breaker: BreakerConfig{
			MaxRequests:     1,
			IntervalSeconds: 60,
			TimeoutSeconds:  30,
			MinRequests:     5,
			FailureRatio:    0.6,
		},
		LogLevel:            "info",
		JWTIssuer:           "energy-dashboard",
		EnableCORS:          true,
		CORSOrigins:         []string{"*"},
		MetricsFlushSeconds: 60,
	}
}

// LoadConfig loads configuration from defaults, the optional YAML file
// named by CONFIG_FILE, then environment variables (highest priority).
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	cfg.LoadedFrom = []string{"defaults"}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	cfg.loadEnvironment()
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnvironment() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	// REGION wins over the SDK's own AWS_REGION
	c.AWSRegion = getEnv("REGION", getEnv("AWS_REGION", c.AWSRegion))
	c.DynamoDBTable = getEnv("DDB_TABLE", c.DynamoDBTable)
	c.PartitionKey = getEnv("SITE_PARTITION_KEY", c.PartitionKey)
	c.SortKeyAttribute = getEnv("SORT_KEY_ATTRIBUTE", c.SortKeyAttribute)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)

	c.UseSyntheticData = getEnvBool("USE_SYNTHETIC_DATA", c.UseSyntheticData)
	c.SyntheticFallback = getEnvBool("SYNTHETIC_FALLBACK", c.SyntheticFallback)
	c.MaxRangePages = getEnvInt("MAX_RANGE_PAGES", c.MaxRangePages)
	c.MaxRangeItems = getEnvInt("MAX_RANGE_ITEMS", c.MaxRangeItems)
	c.StoreTimeoutMs = getEnvInt("STORE_TIMEOUT_MS", c.StoreTimeoutMs)

	c.Breaker.MaxRequests = uint32(getEnvInt("BREAKER_MAX_REQUESTS", int(c.Breaker.MaxRequests)))
	c.Breaker.IntervalSeconds = getEnvInt("BREAKER_INTERVAL_SECONDS", c.Breaker.IntervalSeconds)
	c.Breaker.TimeoutSeconds = getEnvInt("BREAKER_TIMEOUT_SECONDS", c.Breaker.TimeoutSeconds)
	c.Breaker.MinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.Breaker.MinRequests)))
	c.Breaker.FailureRatio = getEnvFloat("BREAKER_FAILURE_RATIO", c.Breaker.FailureRatio)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || c.LambdaFunctionName != "")

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.AuthEnabled = getEnvBool("AUTH_ENABLED", c.AuthEnabled)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.MetricsFlushSeconds = getEnvInt("METRICS_FLUSH_SECONDS", c.MetricsFlushSeconds)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.DynamoDBTable == "" && !c.UseSyntheticData {
		return fmt.Errorf("DDB_TABLE is required")
	}
	if c.PartitionKey == "" {
		return fmt.Errorf("SITE_PARTITION_KEY must not be empty")
	}
	if c.SortKeyAttribute == "" {
		return fmt.Errorf("SORT_KEY_ATTRIBUTE must not be empty")
	}
	if c.MaxRangePages < 1 {
		return fmt.Errorf("MAX_RANGE_PAGES must be at least 1, got %d", c.MaxRangePages)
	}
	if c.MaxRangeItems < 1 {
		return fmt.Errorf("MAX_RANGE_ITEMS must be at least 1, got %d", c.MaxRangeItems)
	}
	if c.StoreTimeoutMs < 1 {
		return fmt.Errorf("STORE_TIMEOUT_MS must be positive, got %d", c.StoreTimeoutMs)
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	if c.MetricsFlushSeconds < 1 {
		return fmt.Errorf("METRICS_FLUSH_SECONDS must be positive, got %d", c.MetricsFlushSeconds)
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_ENABLED is set")
	}
	return nil
}

// Mode is "synthetic" when the generator replaces the store, else "live"
func (c *Config) Mode() string {
	if c.UseSyntheticData {
		return "synthetic"
	}
	return "live"
}

// StoreTimeout is the per-call deadline for store queries
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
