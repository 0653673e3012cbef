package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cburgosro9303/vortex-config/internal/audit"
	"github.com/cburgosro9303/vortex-config/internal/cache"
	"github.com/cburgosro9303/vortex-config/internal/config"
	"github.com/cburgosro9303/vortex-config/internal/gitsource"
	"github.com/cburgosro9303/vortex-config/internal/httpapi"
	"github.com/cburgosro9303/vortex-config/internal/log"
	"github.com/cburgosro9303/vortex-config/internal/refresher"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewZap(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Errorf("configserver: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	git := gitsource.New(gitsource.Config{
		URI:          cfg.GitURI,
		LocalPath:    cfg.GitLocalPath,
		DefaultLabel: cfg.GitDefaultLabel,
		SearchPaths:  cfg.GitSearchPaths,
		Username:     cfg.GitUsername,
		Password:     cfg.GitPassword,
		ForcePull:    cfg.GitForcePull,
		CloneTimeout: cfg.GitCloneTimeout.Duration(),
		FetchTimeout: cfg.GitFetchTimeout.Duration(),
	}, logger)

	var l2 *cache.Redis

	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}

		l2 = cache.NewRedis(goredis.NewClient(opts), cfg.CacheTTL.Duration(), logger)
	}

	cached := cache.New(git, cache.Options{
		Size:    cfg.CacheSize,
		TTL:     cfg.CacheTTL.Duration(),
		L2:      l2,
		Metrics: cache.NewMetrics(nil),
		Logger:  logger,
	})

	var auditStore *audit.Store

	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}

		defer pool.Close()

		auditStore = audit.New(pool)

		if err := auditStore.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrate audit store: %w", err)
		}
	}

	var bus refresher.Bus

	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}

		defer conn.Close()

		amqpBus, err := refresher.NewAMQPBus(conn, cfg.RabbitMQExchange, logger)
		if err != nil {
			return fmt.Errorf("init refresh bus: %w", err)
		}

		defer amqpBus.Close()

		bus = amqpBus
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RefreshEnabled {
		seedLabels := cfg.RefreshLabels
		if len(seedLabels) == 0 {
			seedLabels = []string{cfg.GitDefaultLabel}
		}

		refresh := refresher.New(git, cached, bus, refresher.Config{
			SeedLabels:        seedLabels,
			Interval:          cfg.RefreshInterval.Duration(),
			MaxFailures:       cfg.RefreshMaxFailures,
			BackoffMultiplier: cfg.RefreshBackoffMultiplier,
			MaxBackoff:        cfg.RefreshMaxBackoff.Duration(),
		}, logger)

		go refresh.Run(ctx)
		defer refresh.Stop()
	}

	handler := httpapi.NewHandler(cached, auditStore, logger)
	app := httpapi.NewRouter(handler, logger)

	errCh := make(chan error, 1)

	go func() {
		if err := app.Listen(cfg.ServerAddress); err != nil {
			errCh <- err
		}
	}()

	logger.Infof("configserver listening on %s", cfg.ServerAddress)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Infof("configserver: received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return app.ShutdownWithContext(shutdownCtx)
}
