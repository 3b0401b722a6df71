package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/handler"
	"github.com/boddenberg/finance-tracker-go/internal/infra/cache"
	"github.com/boddenberg/finance-tracker-go/internal/infra/events"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-tracker-go/internal/infra/storage"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("budget_window", string(cfg.BudgetWindow)),
		zap.String("timezone", cfg.Timezone),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Bool("amqp_enabled", cfg.AMQPURL != ""),
	)
	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET not set, using the development default")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finance-tracker")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	store, err := storage.Open(startCtx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	if cfg.SeedDemo {
		if _, err := storage.SeedDemo(startCtx, store, logger); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	// --- Events ---
	var publisher port.EventPublisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}, logger)
		if err != nil {
			logger.Warn("budget alerts disabled: amqp unavailable", zap.Error(err))
		} else {
			publisher = amqpPub
			logger.Info("budget alerts enabled", zap.String("exchange", cfg.AMQPExchange))
		}
	}
	defer publisher.Close()

	// --- Cache ---
	revoked := cache.New[bool](cfg.JWTAccessTTL)
	defer revoked.Close()

	// --- Services ---
	settings := service.Settings{
		Backend:      cfg.StoreBackend,
		BudgetWindow: cfg.BudgetWindow,
		Location:     cfg.Location(),
		RecentLimit:  cfg.RecentTransactions,
	}
	authSvc := service.NewAuthService(store, revoked, cfg.JWTSecret, cfg.JWTAccessTTL, metrics, logger)
	financeSvc := service.NewFinanceService(store, publisher, settings, metrics, logger)
	analyticsSvc := service.NewAnalyticsService(store, settings, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:      authSvc,
		Finance:   financeSvc,
		Analytics: analyticsSvc,
		Store:     store,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
