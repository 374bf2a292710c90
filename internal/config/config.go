// Package config loads service configuration from defaults, an optional YAML file and
// the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tair/field-service/internal/catalog"
	"github.com/tair/field-service/pkg/database"
	"github.com/tair/field-service/pkg/tracing"
)

// Config is the full service configuration
type Config struct {
	ServiceName    string          `yaml:"service_name"`
	Environment    string          `yaml:"environment"`
	LogLevel       string          `yaml:"log_level"`
	HTTPPort       string          `yaml:"http_port"`
	GRPCPort       string          `yaml:"grpc_port"`
	JWTSecret      string          `yaml:"jwt_secret"`
	JaegerEndpoint string          `yaml:"jaeger_endpoint"`
	TraceSampling  float64         `yaml:"trace_sampling"`
	CASMaxRetries  int             `yaml:"cas_max_retries"`
	Database       database.Config `yaml:"database"`
	Redis          RedisConfig     `yaml:"redis"`
	Kafka          KafkaConfig     `yaml:"kafka"`
	Catalog        CatalogConfig   `yaml:"catalog"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Seed           SeedConfig      `yaml:"seed"`
}

// RedisConfig configures the idempotency, catalog cache and rate limit store
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig configures event publishing and consumption. Without brokers events are
// dispatched in process.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// Enabled reports whether brokers are configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// CatalogConfig configures the product catalog collaborator. Without a URL the seeded
// products are served from memory.
type CatalogConfig struct {
	URL      string        `yaml:"url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// RateLimitConfig bounds requests per caller
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// LocationSeed is a stock location created at startup
type LocationSeed struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// ChecklistSeed is an inspection checklist item created at startup
type ChecklistSeed struct {
	ID        uint     `yaml:"id"`
	Name      string   `yaml:"name"`
	Stages    []string `yaml:"stages"`
	SortOrder int      `yaml:"sort_order"`
}

// SeedConfig holds reference data applied at startup
type SeedConfig struct {
	Locations []LocationSeed    `yaml:"locations"`
	Checklist []ChecklistSeed   `yaml:"checklist"`
	Products  []catalog.Product `yaml:"products"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		ServiceName:    "field-service",
		Environment:    "development",
		LogLevel:       "info",
		HTTPPort:       "8080",
		GRPCPort:       "9090",
		JWTSecret:      "your-secret-key-change-in-production",
		JaegerEndpoint: tracing.DefaultJaegerEndpoint,
		TraceSampling:  1,
		CASMaxRetries:  database.DefaultMaxAttempts,
		Database: database.Config{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "fieldservicedb",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{GroupID: "field-service"},
		Catalog: CatalogConfig{
			Timeout:  5 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{Requests: 100, Window: time.Minute},
		Seed: SeedConfig{
			Locations: []LocationSeed{{Code: "MAIN", Name: "Main warehouse", Kind: "WAREHOUSE"}},
		},
	}
}

// Load builds the configuration from defaults, the file named by CONFIG_FILE and the environment
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Tracing describes this service to the tracer
func (c *Config) Tracing(version string) tracing.Config {
	return tracing.Config{
		ServiceName:    c.ServiceName,
		Version:        version,
		Environment:    c.Environment,
		JaegerEndpoint: c.JaegerEndpoint,
		SampleRatio:    c.TraceSampling,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServiceName = getEnv("OTEL_SERVICE_NAME", c.ServiceName)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", c.JaegerEndpoint)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Catalog.URL = getEnv("CATALOG_SERVICE_URL", c.Catalog.URL)

	retries, err := getEnvInt("CAS_MAX_RETRIES", c.CASMaxRetries)
	if err != nil {
		return err
	}
	c.CASMaxRetries = retries

	sampling, err := getEnvFloat("TRACE_SAMPLING", c.TraceSampling)
	if err != nil {
		return err
	}
	c.TraceSampling = sampling

	requests, err := getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests)
	if err != nil {
		return err
	}
	c.RateLimit.Requests = requests
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
