package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/kitchencart/ecommerce/pkg/config"
)

// Config holds all configuration for the notification worker.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Health and metrics endpoints only.
	HTTPPort int `env:"NOTIFICATION_HTTP_PORT" envDefault:"8008"`

	KafkaBrokers      []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	ConsumerRetries   int           `env:"NOTIFICATION_MAX_RETRIES" envDefault:"5"`
	ConsumerBackoff   time.Duration `env:"NOTIFICATION_RETRY_BACKOFF" envDefault:"500ms"`
	EnableDLQ         bool          `env:"NOTIFICATION_ENABLE_DLQ" envDefault:"true"`
	IdempotencyTTL    time.Duration `env:"NOTIFICATION_IDEMPOTENCY_TTL" envDefault:"168h"`
	IdempotencyPrefix string        `env:"NOTIFICATION_IDEMPOTENCY_PREFIX" envDefault:"notification:processed"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load notification config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if c.ConsumerRetries < 1 {
		return fmt.Errorf("invalid NOTIFICATION_MAX_RETRIES: %d", c.ConsumerRetries)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("invalid NOTIFICATION_IDEMPOTENCY_TTL: %s", c.IdempotencyTTL)
	}
	return nil
}
