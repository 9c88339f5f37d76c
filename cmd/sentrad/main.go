package main

import (
	"context"
	"log"

	"sentra/internal/config"
	"sentra/internal/controls"
	"sentra/internal/domain"
	"sentra/internal/infra/db"
	httpinfra "sentra/internal/infra/http"
	"sentra/internal/infra/memstore"
	"sentra/internal/infra/policyopa"
	"sentra/internal/infra/ratelimit"
	"sentra/internal/infra/secrets"
	"sentra/internal/infra/webhook"
	"sentra/internal/logging"
	"sentra/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := db.NewStore(cfg)
	if err != nil {
		logger.Fatal("failed to init store", zap.Error(err))
	}
	if err := store.AutoMigrate(); err != nil {
		logger.Fatal("failed to migrate", zap.Error(err))
	}

	var vendors usecase.VendorRepository
	var events usecase.EventRepository
	var alerts usecase.AlertRepository
	if store.Available() {
		vendors, events, alerts = store.Vendors, store.Events, store.Alerts
	} else {
		logger.Warn("no POSTGRES_DSN configured, using in-memory store")
		mem := memstore.New()
		vendors, events, alerts = mem.Vendors(), mem.Events(), mem.Alerts()
	}

	secretStore, err := secrets.FromConfig(cfg)
	if err != nil {
		logger.Fatal("failed to init secret store", zap.Error(err))
	}

	providers := webhook.DefaultProviders()
	if cfg.ProvidersPath != "" {
		providers, err = webhook.LoadProviders(cfg.ProvidersPath)
		if err != nil {
			logger.Fatal("failed to load providers", zap.Error(err))
		}
	}
	verifier, err := webhook.NewVerifier(webhook.VerifierConfig{
		Providers: providers,
		Secrets:   secretStore,
		Tolerance: cfg.WebhookTolerance(),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to init verifier", zap.Error(err))
	}

	ctx := context.Background()

	var limiter domain.RateLimiter
	if cfg.RedisAddr != "" {
		limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
		if err != nil {
			logger.Fatal("failed to init redis limiter", zap.Error(err))
		}
		logger.Info("rate limiting via redis", zap.String("addr", cfg.RedisAddr))
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
			MaxKeys: cfg.RateLimitMaxKeys,
			Logger:  logger,
		})
		limiter = memLimiter
		sweeper := ratelimit.NewSweeper(memLimiter, cfg.RateLimitSweep(), logger)
		go sweeper.Run(ctx)
	}

	var evaluator domain.ControlEvaluator = controls.NewThresholdEvaluator()
	if cfg.ControlBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(ctx, cfg.ControlBundlePath, "")
		if err != nil {
			logger.Fatal("failed to load control bundle", zap.Error(err))
		}
		logger.Info("control evaluation via opa bundle",
			zap.String("path", cfg.ControlBundlePath),
			zap.String("bundle_hash", engine.BundleHash()))
		evaluator = engine
	}

	ingest := &usecase.IngestTelemetry{
		Limiter:    limiter,
		Verifier:   verifier,
		Vendors:    vendors,
		Events:     events,
		Evaluator:  evaluator,
		Controls:   controls.SeedControls(),
		Alerts:     usecase.NewAlertEmitter(alerts, nil, logger),
		Limit:      cfg.RateLimitRequests,
		Window:     cfg.RateLimitWindow(),
		FailClosed: cfg.RateLimitFailClosed,
		Logger:     logger,
	}

	srv := httpinfra.NewServerWithDeps(cfg, httpinfra.ServerDeps{
		Store:    store,
		Ingest:   ingest,
		Vendors:  vendors,
		Events:   events,
		Alerts:   alerts,
		Provider: verifier.Provider,
		Logger:   logger,
	})
	logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
	if err := srv.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
