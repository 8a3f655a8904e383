package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/api"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/audit"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/face"
	"github.com/saturnino-fabrica-de-software/facematch/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facematch/internal/repository"
	"github.com/saturnino-fabrica-de-software/facematch/internal/retention"
	"github.com/saturnino-fabrica-de-software/facematch/internal/service"
	"github.com/saturnino-fabrica-de-software/facematch/internal/verification"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting facematch API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
		slog.String("version", version),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := metrics.NewManager()

	// Extractor loads in the background; /ready stays 503 until it is done
	extractor, err := face.NewExtractor(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	extractor.Start(ctx)
	go func() {
		if err := extractor.WaitReady(ctx); err != nil {
			logger.Error("extractor failed to initialise", slog.Any("error", err))
			return
		}
		manager.SetExtractorReady(true)
	}()

	engineOpts := []verification.Option{
		verification.WithLogger(logger),
		verification.WithExtractionTimeout(cfg.ExtractionTimeout),
	}

	liveness, err := face.NewLivenessChecker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create liveness checker: %w", err)
	}
	if liveness != nil {
		engineOpts = append(engineOpts, verification.WithLivenessChecker(liveness, cfg.LivenessThreshold))
		logger.Info("liveness gate enabled",
			slog.Float64("threshold", cfg.LivenessThreshold),
			slog.Int("max_image_size", cfg.EffectiveMaxImageSize()),
		)
	}

	engine := verification.NewEngine(extractor, engineOpts...)

	svc := service.NewVerificationService(engine, audit.NewSlogLogger(logger), logger).
		WithMetrics(manager).
		WithProviderName(cfg.ProviderType)

	deps := &api.Dependencies{
		Service:   svc,
		Extractor: extractor,
		Metrics:   manager,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
		MaxImageSize: cfg.EffectiveMaxImageSize(),
		Version:      version,
	}

	// Verification history, optional
	var pruner *retention.Pruner
	if cfg.PersistenceEnabled() {
		if err := database.MigrateUp(ctx, cfg.DatabaseURL, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		repo := repository.NewVerificationRepository(pool)
		svc.WithRepository(repo)
		deps.DB = pool

		pruner = retention.NewPruner(repo, logger, cfg.AuditRetention, cfg.AuditPruneInterval)
		go pruner.Start(ctx)

		logger.Info("verification history enabled", slog.Duration("retention", cfg.AuditRetention))
	} else {
		logger.Info("verification history disabled, DATABASE_URL not set")
	}

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if pruner != nil {
		pruner.Stop()
	}

	done := make(chan error, 1)
	go func() {
		done <- router.Shutdown()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")

	return nil
}
