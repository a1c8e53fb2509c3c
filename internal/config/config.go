// Package config provides application configuration management using Viper.
// Configuration is loaded from an optional .env file, YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lock      LockConfig      `mapstructure:"lock"`
	Booking   BookingConfig   `mapstructure:"booking"`
	Events    EventsConfig    `mapstructure:"events"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`

	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	ConnectAttempts  int           `mapstructure:"connect_attempts"`
}

// RedisConfig holds Redis connection settings for distributed locking.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LockConfig holds the per-date lock timings.
type LockConfig struct {
	KeyPrefix      string        `mapstructure:"key_prefix"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
	LeaseDuration  time.Duration `mapstructure:"lease_duration"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	ReleaseTimeout time.Duration `mapstructure:"release_timeout"`
}

// BookingConfig holds reservation workflow settings.
type BookingConfig struct {
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
	Timezone     string        `mapstructure:"timezone"`
}

// Location resolves the configured business time zone.
func (c *BookingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(c.Timezone)
}

// EventsConfig selects and configures the reservation event publisher.
type EventsConfig struct {
	Driver  string        `mapstructure:"driver"` // none, kafka, webhook
	Source  string        `mapstructure:"source"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	RequiredAcks int           `mapstructure:"required_acks"`
	Compression  string        `mapstructure:"compression"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WebhookConfig holds outbound webhook settings.
type WebhookConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Endpoint string        `mapstructure:"endpoint"`
	Secret   string        `mapstructure:"secret"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retry    RetryConfig   `mapstructure:"retry"`
	CB       CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// AuditConfig holds the overlap audit job settings.
type AuditConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	OnStartup bool          `mapstructure:"on_startup"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds idempotent-replay cache settings.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; existing variables are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the lock protocol cannot work with.
func (c *Config) Validate() error {
	if c.Lock.WaitTimeout <= 0 {
		return fmt.Errorf("lock.wait_timeout must be positive")
	}
	if c.Lock.LeaseDuration <= c.Booking.StoreTimeout {
		return fmt.Errorf("lock.lease_duration (%s) must exceed booking.store_timeout (%s)",
			c.Lock.LeaseDuration, c.Booking.StoreTimeout)
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	switch c.Events.Driver {
	case "", "none", "kafka", "webhook":
	default:
		return fmt.Errorf("events.driver must be one of none, kafka, webhook; got %q", c.Events.Driver)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "reservation-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "reservations")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.statement_timeout", "10s")
	v.SetDefault("database.connect_attempts", 5)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Lock defaults
	v.SetDefault("lock.key_prefix", "reservation:lock")
	v.SetDefault("lock.wait_timeout", "3s")
	v.SetDefault("lock.lease_duration", "90s")
	v.SetDefault("lock.retry_delay", "100ms")
	v.SetDefault("lock.release_timeout", "5s")

	// Booking defaults
	v.SetDefault("booking.store_timeout", "3s")
	v.SetDefault("booking.timezone", "UTC")

	// Events defaults
	v.SetDefault("events.driver", "none")
	v.SetDefault("events.source", "reservation-service")
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "reservations")
	v.SetDefault("events.kafka.required_acks", -1)
	v.SetDefault("events.kafka.compression", "snappy")
	v.SetDefault("events.kafka.max_attempts", 3)
	v.SetDefault("events.kafka.batch_timeout", "10ms")
	v.SetDefault("events.kafka.write_timeout", "5s")
	v.SetDefault("events.webhook.base_url", "http://localhost:8081")
	v.SetDefault("events.webhook.endpoint", "/hooks/reservations")
	v.SetDefault("events.webhook.timeout", "5s")
	v.SetDefault("events.webhook.retry.max_attempts", 3)
	v.SetDefault("events.webhook.retry.wait_time", "500ms")
	v.SetDefault("events.webhook.retry.max_wait_time", "3s")
	v.SetDefault("events.webhook.circuit_breaker.max_requests", 3)
	v.SetDefault("events.webhook.circuit_breaker.interval", "60s")
	v.SetDefault("events.webhook.circuit_breaker.timeout", "30s")
	v.SetDefault("events.webhook.circuit_breaker.failure_ratio", 0.5)

	// Audit defaults
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.interval", "10m")
	v.SetDefault("audit.on_startup", false)
	v.SetDefault("audit.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.key_prefix", "reservation:idempotency")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 120)
	v.SetDefault("rate_limit.burst", 20)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)
}
