package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logger   LoggerConfig   `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Tracing  TracingConfig  `yaml:"tracing"`
	S3       S3Config       `yaml:"s3"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxConnections  int    `yaml:"maxConnections"`
	MinConnections  int    `yaml:"minConnections"`
	MaxConnLifetime int    `yaml:"maxConnLifetime"` // seconds

	// AutoMigrate applies schema migrations at startup. Turn it off when the
	// service role cannot ALTER tables; checkout then adapts to the columns
	// that exist.
	AutoMigrate bool `yaml:"autoMigrate"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string `yaml:"apiKey"`
}

// CheckoutConfig controls the checkout transaction.
type CheckoutConfig struct {
	// IsolationLevel is one of read_committed, repeatable_read, serializable.
	IsolationLevel string `yaml:"isolationLevel"`

	// VerifyPrices re-reads price and discount from the catalog instead of
	// trusting the values sent with the cart.
	VerifyPrices bool `yaml:"verifyPrices"`
}

// RedisConfig holds configuration for the checkout idempotency guard.
type RedisConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	IdempotencyTTL time.Duration `yaml:"idempotencyTTL"`
}

// KafkaConfig holds configuration for order event publishing.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// TracingConfig holds OpenTelemetry tracing configuration.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
	Endpoint    string `yaml:"endpoint"`
}

// S3Config holds AWS S3 configuration for stock feed files.
type S3Config struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"` // Path prefix within bucket (e.g., "stock/")
}

// Isolation levels accepted by CheckoutConfig.IsolationLevel.
const (
	IsolationReadCommitted  = "read_committed"
	IsolationRepeatableRead = "repeatable_read"
	IsolationSerializable   = "serializable"
)

// defaults returns the configuration used when neither a config file nor
// environment variables provide a value.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "swimshop",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
			AutoMigrate:     true,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Checkout: CheckoutConfig{
			IsolationLevel: IsolationReadCommitted,
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			IdempotencyTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "orders.placed",
		},
		Tracing: TracingConfig{
			ServiceName: "swimshop-checkout",
			Endpoint:    "http://localhost:14268/api/traces",
		},
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "stock/",
		},
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variables on top.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.MaxConnections = getEnvAsInt("DB_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	cfg.Database.MinConnections = getEnvAsInt("DB_MIN_CONNECTIONS", cfg.Database.MinConnections)
	cfg.Database.MaxConnLifetime = getEnvAsInt("DB_MAX_CONN_LIFETIME", cfg.Database.MaxConnLifetime)
	cfg.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnv("LOG_FORMAT", cfg.Logger.Format)

	cfg.Auth.APIKey = getEnv("API_KEY", cfg.Auth.APIKey)

	cfg.Checkout.IsolationLevel = getEnv("CHECKOUT_ISOLATION_LEVEL", cfg.Checkout.IsolationLevel)
	cfg.Checkout.VerifyPrices = getEnvAsBool("CHECKOUT_VERIFY_PRICES", cfg.Checkout.VerifyPrices)

	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.IdempotencyTTL = getEnvAsDuration("REDIS_IDEMPOTENCY_TTL", cfg.Redis.IdempotencyTTL)

	cfg.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = getEnvAsSlice("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Tracing.Enabled = getEnvAsBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.Endpoint = getEnv("TRACING_ENDPOINT", cfg.Tracing.Endpoint)

	cfg.S3.Enabled = getEnvAsBool("S3_ENABLED", cfg.S3.Enabled)
	cfg.S3.Bucket = getEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Prefix = getEnv("S3_PREFIX", cfg.S3.Prefix)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path onto cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	switch c.Checkout.IsolationLevel {
	case IsolationReadCommitted, IsolationRepeatableRead, IsolationSerializable:
	default:
		return fmt.Errorf("invalid checkout isolation level: %s (must be read_committed, repeatable_read, or serializable)",
			c.Checkout.IsolationLevel)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when redis is enabled")
		}
		if c.Redis.IdempotencyTTL <= 0 {
			return fmt.Errorf("redis idempotency TTL must be positive")
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable.
func getEnvAsSlice(key string, defaultValue []string) []string {
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
