package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	App       AppConfig       `mapstructure:"app"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`

	// Take the client address from X-Forwarded-For/X-Real-IP. Only safe
	// behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

type DatabaseConfig struct {
	Type           string         `mapstructure:"type" validate:"oneof=memory sqlite postgres"`
	MigrationsPath string         `mapstructure:"migrations_path"`
	SQLite         SQLiteConfig   `mapstructure:"sqlite"`
	Postgres       PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	URL         string `mapstructure:"url"`
	MaxPoolSize int    `mapstructure:"max_pool_size" validate:"gte=0"`
}

type CacheConfig struct {
	Type  string           `mapstructure:"type" validate:"oneof=none redis local"`
	TTL   time.Duration    `mapstructure:"ttl" validate:"gte=0"`
	Redis RedisConfig      `mapstructure:"redis"`
	Local LocalCacheConfig `mapstructure:"local"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type LocalCacheConfig struct {
	MaxItems int64 `mapstructure:"max_items" validate:"gte=0"`
}

type AppConfig struct {
	BaseURL               string `mapstructure:"base_url" validate:"required,url"`
	Environment           string `mapstructure:"environment" validate:"oneof=development production"`
	ShortCodeLength       int    `mapstructure:"short_code_length" validate:"gte=8,lte=22"`
	MaxGenerationAttempts int    `mapstructure:"max_generation_attempts" validate:"gte=1"`
	RejectSelfLinks       bool   `mapstructure:"reject_self_links"`
}

type RateLimitConfig struct {
	Window        time.Duration `mapstructure:"window" validate:"gt=0"`
	MaxRequests   int           `mapstructure:"max_requests" validate:"gte=1"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Path           string `mapstructure:"path"`
	Namespace      string `mapstructure:"namespace"`
	Subsystem      string `mapstructure:"subsystem"`
	CollectRuntime bool   `mapstructure:"collect_runtime"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// legacyEnv maps config keys to the plain environment variable names that
// deployments of the service already use.
var legacyEnv = map[string]string{
	"database.postgres.url": "DATABASE_URL",
	"cache.redis.url":       "REDIS_URL",
	"app.base_url":          "BASE_URL",
	"app.environment":       "APP_ENV",
	"server.port":           "PORT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/linkie/")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.trust_proxy_headers", false)

	v.SetDefault("database.type", "memory")
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("database.sqlite.path", "./data/linkie.db")
	v.SetDefault("database.postgres.url", "")
	v.SetDefault("database.postgres.max_pool_size", 16)

	v.SetDefault("cache.type", "none")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.redis.url", "redis://127.0.0.1:6379/0")
	v.SetDefault("cache.local.max_items", 100000)

	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.environment", EnvDevelopment)
	v.SetDefault("app.short_code_length", 8)
	v.SetDefault("app.max_generation_attempts", 3)
	v.SetDefault("app.reject_self_links", true)

	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.max_requests", 10)
	v.SetDefault("ratelimit.sweep_interval", 5*time.Minute)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "linkie")
	v.SetDefault("metrics.subsystem", "shortener")
	v.SetDefault("metrics.collect_runtime", true)

	v.SetDefault("logging.level", "info")
}

// Validate checks field constraints and the cross-field requirements of the
// selected backends.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Database.Type {
	case "postgres":
		if c.Database.Postgres.URL == "" {
			return errors.New("invalid configuration: database.postgres.url is required for postgres")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("invalid configuration: database.sqlite.path is required for sqlite")
		}
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.URL == "" {
		return errors.New("invalid configuration: cache.redis.url is required for redis")
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	switch c.Database.Type {
	case "sqlite":
		return c.Database.SQLite.Path
	case "postgres":
		return c.Database.Postgres.URL
	default:
		return ""
	}
}

// RateLimitEnabled reports whether creation requests are throttled.
// Development mode admits everything.
func (c *Config) RateLimitEnabled() bool {
	return c.App.Environment == EnvProduction
}

// PublicHost returns the host part of the public base URL.
func (c *Config) PublicHost() string {
	u, err := url.Parse(c.App.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
