package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/naochaLuwang/daciana-cart/internal/cart"
	"github.com/naochaLuwang/daciana-cart/internal/config"
	"github.com/naochaLuwang/daciana-cart/internal/event"
	handler "github.com/naochaLuwang/daciana-cart/internal/handler/http"
	"github.com/naochaLuwang/daciana-cart/internal/identity"
	"github.com/naochaLuwang/daciana-cart/internal/localstore/file"
	remotepg "github.com/naochaLuwang/daciana-cart/internal/remote/postgres"
	"github.com/naochaLuwang/daciana-cart/internal/remote/rediscache"
	cartsync "github.com/naochaLuwang/daciana-cart/internal/sync"
	"github.com/naochaLuwang/daciana-cart/pkg/database"
	"github.com/naochaLuwang/daciana-cart/pkg/health"
	pkgkafka "github.com/naochaLuwang/daciana-cart/pkg/kafka"
)

// App wires together all dependencies and runs the cart session service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	syncer     *cartsync.Syncer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// PostgreSQL pool for the remote cart mirror and shipping methods.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSLMode

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Redis client for the shipping method cache.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Local cart persistence.
	storage, err := file.New(cfg.StorageDir)
	if err != nil {
		pool.Close()
		rdb.Close()
		producer.Close()
		return nil, fmt.Errorf("open cart storage: %w", err)
	}

	// Build the dependency graph.
	store := cart.NewStore(storage, logger)
	watcher := identity.NewWatcher()
	eventProducer := event.NewProducer(producer, logger)

	cartRepo := remotepg.NewCartRepository(pool)
	shippingRepo := remotepg.NewShippingMethodRepository(pool)
	shipping := rediscache.NewShippingMethodCache(rdb, shippingRepo, cfg.ShippingCacheTTL(), logger)

	syncer := cartsync.NewSyncer(store, cartRepo, eventProducer, logger, cfg.SyncDebounce())
	watcher.Subscribe(func(userID string) {
		syncer.SetIdentity(context.Background(), userID)
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(store, shipping, eventProducer, watcher, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		rdb:        rdb,
		producer:   producer,
		syncer:     syncer,
		httpServer: httpServer,
	}, nil
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Push any pending cart change before the remote stores go away.
	a.syncer.Flush(shutdownCtx)
	a.syncer.Close()

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
