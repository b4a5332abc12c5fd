//go:build integration

package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/app"
	"github.com/steamfolio/portfolio/internal/catalog"
	"github.com/steamfolio/portfolio/internal/infra"
	"github.com/steamfolio/portfolio/internal/notify"
	"github.com/steamfolio/portfolio/internal/progression"
	"github.com/steamfolio/portfolio/internal/storage"
)

const (
	TestDBHost = "localhost"
	TestDBPort = 5435
	TestDBUser = "steamfolio"
	TestDBPass = "steamfolio"
	TestDBName = "steamfolio_test"
)

// TestEnv holds all resources for an integration test. Every env gets its
// own storage namespace, so tests sharing the database never see each
// other's state.
type TestEnv struct {
	Server    *httptest.Server
	Pool      *pgxpool.Pool
	Store     *storage.PostgresProvider
	Engine    *achievement.Engine
	Namespace string
	t         *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "steamfolio")
}

func ensureTestDB() error {
	if os.Getenv("TEST_DATABASE_URL") != "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the main database to create the test database
	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

// SharedPool returns the pool to the migrated test database, creating it on first use.
func SharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if err := infra.RunMigrations(testDSN(), logger); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the
// real router and a Postgres store.
func NewTestEnv(t *testing.T, opts ...achievement.Option) *TestEnv {
	t.Helper()

	pool := SharedPool(t)
	namespace := "it-" + uuid.New().String()
	store := storage.NewPostgresProvider(pool, namespace)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	engine := achievement.NewEngine(catalog.Default(), store, achievement.NewBus(), logger, opts...)
	hub := notify.NewHub(logger)
	engine.OnUnlock(hub.HandleUnlock)

	router := app.NewRouter(app.RouterDeps{
		Engine:  engine,
		Hub:     hub,
		Sources: staticSources{},
		Logger:  logger,
		Backend: infra.BackendPostgres,
		HealthCheck: func(ctx context.Context) error {
			return infra.HealthCheck(ctx, pool)
		},
		CORSOrigins: []string{"*"},
		OnReset:     []func(){hub.NotifyReset},
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:    server,
		Pool:      pool,
		Store:     store,
		Engine:    engine,
		Namespace: namespace,
		t:         t,
	}

	t.Cleanup(func() {
		server.Close()
		engine.Close()
		env.CleanAll()
	})

	return env
}

// CleanAll removes every row written under the env's namespace.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := env.Store.Clear(ctx); err != nil {
		env.t.Logf("CleanAll: %v", err)
	}
}

type staticSources struct{}

func (staticSources) Sources(context.Context) progression.XPSources {
	return progression.XPSources{}
}
