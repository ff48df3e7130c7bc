package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gofalre.io/storefront"
	"gofalre.io/storefront/api"
	"gofalre.io/storefront/config"
	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/inventory"
	"gofalre.io/storefront/notify"
	"gofalre.io/storefront/persistence"
	"gofalre.io/storefront/telemetry"
)

const notificationWorkers = 4

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = driver.ConnectRedis(ctx, driver.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	storage, closeStorage, err := newStorage(ctx, cfg, redisClient, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	var client inventory.Client
	client, err = inventory.NewHTTPClient(cfg.Inventory.URL, cfg.Inventory.Timeout, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		client = inventory.NewCachedClient(client, redisClient, logger)
	}

	catalog := inventory.NewCatalog(client, logger)
	if err := catalog.Load(ctx); err != nil {
		// 商品目錄預載失敗時改為逐筆查詢
		logger.Warn("failed to preload catalog, falling back to per-product lookups", zap.Error(err))
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Nats.Enabled() {
		nc, err := driver.ConnectNats(cfg.Nats.URL, telemetry.ServiceName, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		notifiers = append(notifiers, notify.NewNatsNotifier(nc, notify.DefaultSubject, logger))
	}
	dispatcher := notify.NewDispatcher(notifiers, notificationWorkers, logger)
	defer dispatcher.Shutdown()

	store, err := storefront.NewStore(ctx, catalog, storage, dispatcher, logger,
		storefront.WithStorageKey(cfg.Storage.Key))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(api.NewHandler(store, logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(app config.AppConfig) (*zap.Logger, error) {
	if app.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newStorage(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (persistence.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		return persistence.NewRedisStorage(redisClient, logger), func() {}, nil

	case config.StoragePostgres:
		pool, err := driver.ConnectPostgres(ctx, cfg.Postgres.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		storage := persistence.NewPostgresStorage(pool, driver.NewTransactionManager(pool, logger), logger)
		if err := storage.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return storage, pool.Close, nil

	default:
		logger.Warn("using in-memory cart storage, the cart will not survive restarts")
		return persistence.NewMemoryStorage(), func() {}, nil
	}
}
