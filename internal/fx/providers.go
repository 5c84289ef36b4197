package fx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/sp3dr4/linkie/config"
	"github.com/sp3dr4/linkie/internal/application"
	"github.com/sp3dr4/linkie/internal/domain"
	cacheImpl "github.com/sp3dr4/linkie/internal/infrastructure/cache"
	memoryRepo "github.com/sp3dr4/linkie/internal/infrastructure/memory"
	"github.com/sp3dr4/linkie/internal/infrastructure/migrations"
	postgresRepo "github.com/sp3dr4/linkie/internal/infrastructure/postgres"
	redisCache "github.com/sp3dr4/linkie/internal/infrastructure/redis"
	sqliteRepo "github.com/sp3dr4/linkie/internal/infrastructure/sqlite"
	"github.com/sp3dr4/linkie/internal/pkg/logging"
	"github.com/sp3dr4/linkie/internal/pkg/metrics"
	"github.com/sp3dr4/linkie/internal/pkg/qrcode"
	"github.com/sp3dr4/linkie/internal/ratelimit"
)

const redisPingTimeout = 3 * time.Second

// ProvideLogger creates and configures the application logger
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.Logging.Level)
	slog.SetDefault(logger)
	return logger
}

// ProvideRepository creates the mapping store selected by database.type and
// brings its schema up to date.
func ProvideRepository(cfg *config.Config, logger *slog.Logger) (domain.MappingStore, error) {
	switch cfg.Database.Type {
	case "memory":
		logger.Info("Using in-memory store")
		return memoryRepo.NewMappingStore(), nil

	case "sqlite":
		dbURL := cfg.GetDatabaseURL()
		logger.Info("Using SQLite store", "path", dbURL)

		if dir := filepath.Dir(dbURL); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		db, err := sqlx.Connect("sqlite3", dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}

		if err := migrations.Up(db.DB, migrations.DriverSQLite, cfg.Database.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}

		return sqliteRepo.NewMappingStore(db), nil

	case "postgres":
		logger.Info("Using PostgreSQL store", "max_pool_size", cfg.Database.Postgres.MaxPoolSize)

		db, err := sqlx.Connect("postgres", cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

		if err := migrations.Up(db.DB, migrations.DriverPostgres, cfg.Database.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}

		return postgresRepo.NewMappingStore(db, cfg.Database.Postgres.MaxPoolSize), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// ProvideRedisClient returns a client when cache.type is redis, nil otherwise.
func ProvideRedisClient(cfg *config.Config, logger *slog.Logger) (*goredis.Client, error) {
	if cfg.Cache.Type != "redis" {
		return nil, nil
	}

	client, err := redisCache.NewClient(cfg.Cache.Redis.URL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis is not reachable, starting with a degraded cache", "error", err)
	}

	return client, nil
}

// ProvideCache creates the cache selected by cache.type.
func ProvideCache(cfg *config.Config, client *goredis.Client, logger *slog.Logger) (domain.Cache, error) {
	switch cfg.Cache.Type {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis cache selected but no client configured")
		}
		logger.Info("Using Redis cache", "ttl", cfg.Cache.TTL)
		return redisCache.NewRedisCache(client), nil

	case "local":
		logger.Info("Using local cache", "ttl", cfg.Cache.TTL, "max_items", cfg.Cache.Local.MaxItems)
		return cacheImpl.NewLocalCache(cfg.Cache.Local.MaxItems)

	default:
		logger.Info("Caching disabled")
		return cacheImpl.NewNoOpCache(), nil
	}
}

func ProvideCacheTTL(cfg *config.Config) application.CacheTTL {
	return application.CacheTTL(cfg.Cache.TTL)
}

func ProvideMetricsRegistry(cfg *config.Config, logger *slog.Logger) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		logger.Info("Metrics disabled")
		return metrics.NewNoOpRegistry(), nil
	}
	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

func ProvideCodeGenerator(cfg *config.Config) application.CodeGenerator {
	return application.NewRandomCodeGenerator(cfg.App.ShortCodeLength)
}

func ProvideLinkValidator(cfg *config.Config) *application.LinkValidator {
	if !cfg.App.RejectSelfLinks {
		return application.NewLinkValidator("")
	}
	return application.NewLinkValidator(cfg.PublicHost())
}

func ProvideQREncoder() application.QREncoder {
	return qrcode.NewEncoder(qrcode.DefaultSize)
}

func ProvideServiceConfig(cfg *config.Config) application.ServiceConfig {
	return application.ServiceConfig{
		BaseURL:               cfg.App.BaseURL,
		MaxGenerationAttempts: cfg.App.MaxGenerationAttempts,
	}
}

// ProvideRateLimiter returns the fixed-window limiter in production and a
// permissive one otherwise. The production limiter's janitor runs for the
// lifetime of the app.
func ProvideRateLimiter(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	if !cfg.RateLimitEnabled() {
		logger.Info("Rate limiting disabled", "environment", cfg.App.Environment)
		return ratelimit.NewPermissive()
	}

	limiter := ratelimit.NewFixedWindow(ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxRequests: cfg.RateLimit.MaxRequests,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("Rate limiting enabled",
				"window", cfg.RateLimit.Window,
				"max_requests", cfg.RateLimit.MaxRequests,
			)
			go func() {
				defer close(done)
				limiter.Run(ctx, cfg.RateLimit.SweepInterval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})

	return limiter
}

// RepositoryParams holds the parameters needed for repository lifecycle management
type RepositoryParams struct {
	fx.In

	Repository domain.MappingStore
	Logger     *slog.Logger
}

// RegisterRepositoryHooks registers repository lifecycle hooks with FX
func RegisterRepositoryHooks(lc fx.Lifecycle, params RepositoryParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Repository.Close(); err != nil {
				params.Logger.Error("Failed to close repository resources", "error", err)
				return err
			}
			params.Logger.Info("Repository resources closed successfully")
			return nil
		},
	})
}

type CacheParams struct {
	fx.In

	Cache  domain.Cache
	Logger *slog.Logger
}

// RegisterCacheHooks closes the cache (and its redis client, if any) on stop.
func RegisterCacheHooks(lc fx.Lifecycle, params CacheParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Cache.Close(); err != nil {
				params.Logger.Error("Failed to close cache", "error", err)
				return err
			}
			params.Logger.Info("Cache closed successfully")
			return nil
		},
	})
}
