package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShinYou-bin/epilogue-Book-platform/internal/auth"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/config"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/event"
	handler "github.com/ShinYou-bin/epilogue-Book-platform/internal/handler/http"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/repository/postgres"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/service"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage/local"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage/memory"
	"github.com/ShinYou-bin/epilogue-Book-platform/internal/storage/s3"
	"github.com/ShinYou-bin/epilogue-Book-platform/migrations"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/database"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/health"
	pkgkafka "github.com/ShinYou-bin/epilogue-Book-platform/pkg/kafka"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/middleware"
	"github.com/ShinYou-bin/epilogue-Book-platform/pkg/tracing"
)

// App wires together all dependencies and runs the listing service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	database.RegisterPoolMetrics(pool, "listing")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Optional distributed tracing.
	var tracerShutdown func(context.Context) error
	if cfg.TracingEnabled {
		tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
			ServiceName:  "listing-service",
			Environment:  cfg.Environment,
			OTLPEndpoint: cfg.TracingEndpoint,
			SampleRate:   cfg.TracingSample,
			Enabled:      true,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		logger.Info("tracing initialized", slog.String("endpoint", cfg.TracingEndpoint))
	}

	// File storage backend.
	store, err := newFileStore(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	logger.Info("file store initialized", slog.String("backend", cfg.StorageBackend))

	// Build the dependency graph.
	listingRepo := postgres.NewListingRepository(pool)
	mediaRepo := postgres.NewMediaRepository(pool)
	ownerRepo := postgres.NewOwnerRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	listingService := service.NewListingService(
		listingRepo, mediaRepo, ownerRepo, store, eventProducer, logger, cfg.StorageTimeout,
	)
	searchService := service.NewSearchService(listingRepo, logger, cfg.StorageTimeout)

	// Token validation for ownership-scoped routes.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessExpiry)
	validateToken := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID, Email: claims.Email}, nil
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(listingService, searchService, validateToken, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newFileStore selects the storage backend from configuration.
func newFileStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.FileStore, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
	}

	switch cfg.StorageBackend {
	case "local":
		return local.New(cfg.UploadDir, baseURL)
	case "s3":
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		}, logger)
	case "memory":
		return memory.New(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	// Flush any remaining spans.
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	// Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
