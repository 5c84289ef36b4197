package integration

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	redisContainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sp3dr4/linkie/internal/application"
	"github.com/sp3dr4/linkie/internal/domain"
	"github.com/sp3dr4/linkie/internal/infrastructure/migrations"
	postgresRepo "github.com/sp3dr4/linkie/internal/infrastructure/postgres"
	redisCache "github.com/sp3dr4/linkie/internal/infrastructure/redis"
)

const testBaseURL = "http://localhost:8080"

var (
	sharedPostgres *postgresContainer.PostgresContainer
	sharedRedis    *redisContainer.RedisContainer
	sharedDB       *sqlx.DB
	sharedClient   *goredis.Client
	containerOnce  sync.Once
	cleanupOnce    sync.Once
)

// TestEnvironment holds the test setup
type TestEnvironment struct {
	DB          *sqlx.DB
	RedisClient *goredis.Client
	Store       domain.MappingStore
	Cache       domain.Cache
	Resolver    *application.Resolver
	Service     *application.URLService
}

// SetupTestEnvironment starts shared PostgreSQL and Redis containers, runs
// migrations, and returns a service wired to both.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	containerOnce.Do(func() {
		ctx := context.Background()

		pg, err := postgresContainer.Run(ctx,
			"postgres:16-alpine",
			postgresContainer.WithDatabase("linkie_test"),
			postgresContainer.WithUsername("test"),
			postgresContainer.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}
		sharedPostgres = pg

		connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("failed to get connection string: %v", err)
		}

		db, err := sqlx.Connect("postgres", connStr)
		if err != nil {
			t.Fatalf("failed to connect to database: %v", err)
		}
		sharedDB = db

		if err := migrations.Up(db.DB, migrations.DriverPostgres, "../../migrations"); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		rc, err := redisContainer.Run(ctx, "redis:7-alpine")
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		sharedRedis = rc

		redisURL, err := rc.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("failed to get redis connection string: %v", err)
		}

		client, err := redisCache.NewClient(redisURL)
		if err != nil {
			t.Fatalf("failed to create redis client: %v", err)
		}
		sharedClient = client
	})

	cleanDatabase(t, sharedDB)
	if err := sharedClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	store := postgresRepo.NewMappingStore(sharedDB, 16)
	cache := redisCache.NewRedisCache(sharedClient)
	resolver := application.NewResolver(store, cache, application.CacheTTL(time.Hour), logger, nil)
	service := application.NewURLService(
		store,
		resolver,
		application.NewRandomCodeGenerator(application.DefaultShortCodeLength),
		application.NewLinkValidator("localhost:8080"),
		nil,
		application.ServiceConfig{BaseURL: testBaseURL},
		logger,
		nil,
	)

	return &TestEnvironment{
		DB:          sharedDB,
		RedisClient: sharedClient,
		Store:       store,
		Cache:       cache,
		Resolver:    resolver,
		Service:     service,
	}
}

// CleanupSharedResources should be called once at the end of all tests
func CleanupSharedResources() {
	cleanupOnce.Do(func() {
		ctx := context.Background()
		if sharedDB != nil {
			_ = sharedDB.Close()
		}
		if sharedClient != nil {
			_ = sharedClient.Close()
		}
		if sharedRedis != nil {
			_ = sharedRedis.Terminate(ctx)
		}
		if sharedPostgres != nil {
			_ = sharedPostgres.Terminate(ctx)
		}
	})
}

// cleanDatabase truncates all tables to ensure test isolation
func cleanDatabase(t *testing.T, db *sqlx.DB) {
	if _, err := db.Exec("TRUNCATE TABLE shortlinks"); err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
}

// TestMain handles setup and teardown for the entire test suite
func TestMain(m *testing.M) {
	code := m.Run()

	CleanupSharedResources()

	os.Exit(code)
}
