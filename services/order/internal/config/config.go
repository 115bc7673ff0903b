package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/kitchencart/ecommerce/pkg/config"
)

// Payment providers.
const (
	ProviderRazorpay = "razorpay"
	ProviderMock     = "mock"
)

// Config holds all configuration for the order service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"ORDER_HTTP_PORT" envDefault:"8004"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"kitchencart"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"kitchencart"`
	PostgresDB   string `env:"ORDER_DB_NAME" envDefault:"order_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	CartTTLHours  int    `env:"CART_TTL_HOURS" envDefault:"168"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Payments
	PaymentProvider   string `env:"PAYMENT_PROVIDER" envDefault:"razorpay"`
	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL   string `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com"`

	// Invoices and notifications
	InvoiceDir       string        `env:"INVOICE_DIR" envDefault:"./invoices"`
	ShopName         string        `env:"SHOP_NAME" envDefault:"Kitchen Cart"`
	ShopAddressLine1 string        `env:"SHOP_ADDRESS_LINE1" envDefault:"123 Main Street"`
	ShopAddressLine2 string        `env:"SHOP_ADDRESS_LINE2" envDefault:"New York, NY, 10025"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	// Catalog responses are publicly cacheable for this many seconds.
	CatalogCacheMaxAge int `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Debug
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`
}

// Load reads configuration from environment variables and an optional
// .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load order config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants. Missing Razorpay credentials
// are allowed: online payments then fail with a configuration error while
// COD keeps working.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	c.PaymentProvider = strings.ToLower(strings.TrimSpace(c.PaymentProvider))
	if c.PaymentProvider != ProviderRazorpay && c.PaymentProvider != ProviderMock {
		return fmt.Errorf("invalid PAYMENT_PROVIDER %q: must be %s or %s", c.PaymentProvider, ProviderRazorpay, ProviderMock)
	}
	if c.PaymentProvider == ProviderMock && c.Environment == "production" {
		return fmt.Errorf("mock payment provider is not allowed in production")
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("invalid CART_TTL_HOURS: %d", c.CartTTLHours)
	}
	if c.InvoiceDir == "" {
		return fmt.Errorf("INVOICE_DIR must not be empty")
	}
	return nil
}

// CartTTL returns how long an untouched cart is kept.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// ShopAddress returns the non-empty seller address lines.
func (c *Config) ShopAddress() []string {
	var lines []string
	for _, l := range []string{c.ShopAddressLine1, c.ShopAddressLine2} {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
