package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kitchencart/ecommerce/pkg/database"
	"github.com/kitchencart/ecommerce/pkg/health"
	pkgkafka "github.com/kitchencart/ecommerce/pkg/kafka"
	"github.com/kitchencart/ecommerce/pkg/middleware"
	"github.com/kitchencart/ecommerce/pkg/tracing"
	"github.com/kitchencart/ecommerce/services/order/internal/config"
	"github.com/kitchencart/ecommerce/services/order/internal/event"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway/mock"
	"github.com/kitchencart/ecommerce/services/order/internal/gateway/razorpay"
	handler "github.com/kitchencart/ecommerce/services/order/internal/handler/http"
	"github.com/kitchencart/ecommerce/services/order/internal/invoice"
	"github.com/kitchencart/ecommerce/services/order/internal/notify"
	"github.com/kitchencart/ecommerce/services/order/internal/repository/postgres"
	"github.com/kitchencart/ecommerce/services/order/internal/repository/redis"
	"github.com/kitchencart/ecommerce/services/order/internal/service"
	"github.com/kitchencart/ecommerce/services/order/internal/stock"
	"github.com/kitchencart/ecommerce/services/order/migrations"
)

// App wires together all dependencies and runs the order service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	notifier       *notify.Notifier
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "order",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, "order"); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Carts live in Redis.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))

	// Initialize Kafka producer with connection validation and retry.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
		logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	invoiceStore, err := invoice.NewFileStore(cfg.InvoiceDir)
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("open invoice store: %w", err)
	}

	// Build the dependency graph.
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	cartRepo := redis.NewCartRepository(redisClient, cfg.CartTTL())
	categoryRepo := postgres.NewCategoryRepository(pool)
	wishlistRepo := redis.NewWishlistRepository(redisClient)

	eventProducer := event.NewProducer(producer, logger)
	notifier := notify.NewNotifier(notify.SinkFunc(eventProducer.PublishEmailRequested), cfg.NotifyTimeout, logger)
	invoices := invoice.NewGenerator(
		invoice.NewRenderer(invoice.Shop{Name: cfg.ShopName, AddressLines: cfg.ShopAddress()}),
		invoiceStore,
		logger,
	)
	paymentGateway := newGateway(cfg, logger)

	orderService := service.NewOrderService(service.OrderDeps{
		Orders:   orderRepo,
		Products: productRepo,
		Users:    userRepo,
		Carts:    cartRepo,
		Tx:       postgres.NewTxManager(pool),
		Ledger:   stock.NewLedger(logger),
		Gateway:  paymentGateway,
		Invoices: invoices,
		Notifier: notifier,
		Events:   eventProducer,
		Logger:   logger,
	})
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	productService := service.NewProductService(productRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo, logger)
	userService := service.NewUserService(userRepo, cartRepo, wishlistRepo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("payment_gateway", func(context.Context) error {
		if !paymentGateway.Configured() {
			return fmt.Errorf("%s credentials missing", paymentGateway.Name())
		}
		return nil
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(
		handler.Services{
			Orders:     orderService,
			Carts:      cartService,
			Products:   productService,
			Categories: categoryService,
			Wishlists:  wishlistService,
			Users:      userService,
		},
		handler.RouterConfig{
			ValidateToken: middleware.HMACValidator(cfg.JWTSecret),
			CORS:          corsCfg,
			PprofCIDRs:    cfg.PprofAllowedCIDRs,
			CatalogMaxAge: cfg.CatalogCacheMaxAge,
		},
		healthHandler,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		notifier:       notifier,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newGateway selects the payment provider. Razorpay without credentials is
// still returned so that online checkout fails with a configuration error.
func newGateway(cfg *config.Config, logger *slog.Logger) gateway.Gateway {
	if cfg.PaymentProvider == config.ProviderMock {
		logger.Warn("using mock payment gateway")
		return mock.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}

	gw := razorpay.New(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	}, razorpay.NewDoer(logger), logger)
	if !gw.Configured() {
		logger.Warn("razorpay credentials missing, online payments are disabled")
	}
	return gw
}

// Run starts the HTTP server, then blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Pending notifications
// 3. Tracer (flush pending spans)
// 4. Kafka producer
// 5. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (10s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Let queued notifications reach the broker before it is closed.
	done := make(chan struct{})
	go func() {
		a.notifier.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.cfg.NotifyTimeout):
		a.logger.Warn("pending notifications abandoned at shutdown")
	}

	// 3. Flush pending spans.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close Redis and PostgreSQL.
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		err := producer.Ping(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < 2 {
			base := time.Duration(1<<uint(attempt)) * time.Second
			jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
			wait := base + jitter
			logger.Warn("kafka producer ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", 3),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
