// Package bootstrap connects the backing stores and assembles the matching
// service for the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"matching-workers/internal/common/config"
	"matching-workers/internal/common/database"
	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/service"
	"matching-workers/internal/store"
)

// RetryWithBackoff attempts to execute a function with exponential backoff.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Infrastructure holds the connected stores. Redis is nil when disabled.
type Infrastructure struct {
	Postgres *database.PostgresClient
	Redis    *database.RedisClient
}

// ConnectOptions tune how hard Connect tries before giving up.
type ConnectOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// Connect opens Postgres and, when enabled, Redis, pinging each with retries.
func Connect(ctx context.Context, cfg *config.Config, opts ConnectOptions, log *zap.Logger) (*Infrastructure, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 2 * time.Second
	}

	infra := &Infrastructure{}

	err := RetryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		infra.Postgres = pg
		return nil
	}, opts.MaxRetries, opts.InitialDelay, log, "PostgreSQL connection")
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	log.Info("PostgreSQL connected successfully")

	if !cfg.Database.Redis.Enabled {
		log.Info("Redis disabled, running without project lock and result cache")
		return infra, nil
	}

	err = RetryWithBackoff(ctx, func() error {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return err
		}
		infra.Redis = rdb
		return nil
	}, opts.MaxRetries, opts.InitialDelay, log, "Redis connection")
	if err != nil {
		_ = infra.Postgres.Close()
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	log.Info("Redis connected successfully")

	return infra, nil
}

// Migrate applies the embedded schema when database.postgres.auto_migrate is set.
func Migrate(cfg *config.Config, log *zap.Logger) error {
	if !cfg.Database.Postgres.AutoMigrate {
		return nil
	}

	m, err := database.NewMigrator(cfg.Database.Postgres.GetURL())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("Database schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// NewMatchingService builds the service over the connected stores, adding the
// Redis project lock and result cache when Redis is available.
func NewMatchingService(cfg *config.Config, infra *Infrastructure, obs *observability.Observability, log logger.Logger) *service.Service {
	opts := []service.Option{service.WithObservability(obs)}

	if infra.Redis != nil {
		rdb := infra.Redis.GetClient()
		if cfg.Matching.LockEnabled {
			opts = append(opts, service.WithLocker(store.NewProjectLock(rdb, config.GetDuration(cfg.Matching.LockTTL))))
		}
		opts = append(opts, service.WithResultCache(store.NewResultCache(rdb, config.GetDuration(cfg.Matching.ResultCacheTTL))))
	}

	return service.New(
		store.New(infra.Postgres.GetDB()),
		service.Config{
			Concurrency: cfg.Matching.Concurrency,
			ResultLimit: cfg.Matching.ResultLimit,
		},
		log,
		opts...,
	)
}

// Close releases every connection that was opened.
func (i *Infrastructure) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Postgres != nil {
		_ = i.Postgres.Close()
	}
}
