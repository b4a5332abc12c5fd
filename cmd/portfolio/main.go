package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/app"
	"github.com/steamfolio/portfolio/internal/catalog"
	"github.com/steamfolio/portfolio/internal/guard"
	"github.com/steamfolio/portfolio/internal/handler"
	"github.com/steamfolio/portfolio/internal/infra"
	"github.com/steamfolio/portfolio/internal/notify"
	"github.com/steamfolio/portfolio/internal/provider"
	"github.com/steamfolio/portfolio/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Storage
	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Achievement engine
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	engine := achievement.NewEngine(cat, store, achievement.NewBus(), logger,
		achievement.WithFeaturedProjects(cfg.FeaturedProjects))
	defer engine.Close()
	logger.Info("achievement catalog loaded",
		"achievements", cat.Len(),
		"total_xp", cat.TotalPossibleXP(),
	)

	// Page notifications
	hub := notify.NewHub(logger)
	engine.OnUnlock(hub.HandleUnlock)
	onReset := []func(){hub.NotifyReset}

	// Broker forwarding
	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()
	forwarderDone := make(chan struct{})
	if producer.Enabled() {
		forwarder := notify.NewForwarder(producer, cfg.KafkaTopic, logger)
		engine.OnUnlock(forwarder.HandleUnlock)
		onReset = append(onReset, forwarder.HandleReset)
		go func() {
			defer close(forwarderDone)
			forwarder.Run(ctx)
		}()
	} else {
		close(forwarderDone)
	}

	// Profile XP sources
	github := provider.NewGitHubClient(provider.GitHubConfig{
		BaseURL:         cfg.GitHubAPIBase,
		Username:        cfg.GitHubUsername,
		Token:           cfg.GitHubToken,
		CacheTTL:        cfg.GitHubCacheTTL,
		CareerStartYear: cfg.CareerStartYear,
	}, logger)

	limiter := guard.NewRateLimiter(cfg.TrackRateLimit, cfg.TrackRateWindow)
	go sweepLimiter(ctx, limiter, cfg.TrackRateWindow)

	r := app.NewRouter(app.RouterDeps{
		Engine:       engine,
		Hub:          hub,
		Sources:      github,
		Logger:       logger,
		Backend:      cfg.StorageBackend,
		HealthCheck:  health,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		TrackLimiter: limiter,
		OnReset:      onReset,
	})

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("portfolio server starting", "addr", addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	<-forwarderDone

	logger.Info("server stopped gracefully")
	return nil
}

// openStore builds the configured storage backend. The returned close
// function is always safe to call.
func openStore(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (storage.Provider, handler.HealthCheck, func(), error) {
	switch cfg.StorageBackend {
	case infra.BackendMemory:
		logger.Warn("using in-memory storage; achievements are lost on restart")
		return storage.NewMemoryProvider(), nil, func() {}, nil

	case infra.BackendPostgres:
		if err := infra.RunMigrations(cfg.DSN(), logger); err != nil {
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("connected to postgres", "namespace", cfg.StorageNamespace)
		check := func(ctx context.Context) error { return infra.HealthCheck(ctx, pool) }
		return storage.NewPostgresProvider(pool, cfg.StorageNamespace), check, pool.Close, nil

	default:
		fs := storage.NewFileProvider(cfg.StateDir)
		logger.Info("using file storage", "path", fs.Path())
		return fs, nil, func() {}, nil
	}
}

// sweepLimiter drops idle rate limit windows until ctx ends.
func sweepLimiter(ctx context.Context, rl *guard.RateLimiter, window time.Duration) {
	if window <= 0 {
		return
	}
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
