package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cartpay/internal/bootstrap"
	"cartpay/internal/checkout"
	"cartpay/internal/config"
	cronpkg "cartpay/internal/cron"
	"cartpay/internal/gateway"
	"cartpay/internal/middleware"
	"cartpay/internal/repository"
	"cartpay/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if hasArg("--bootstrap-db") {
		if err := runDBBootstrap(logger); err != nil {
			logger.Fatal("Database bootstrap failed", zap.Error(err))
		}
		logger.Info("Database bootstrap completed")
		return
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		logger.Fatal("Failed to bootstrap database schema", zap.Error(err))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Webhook Deduper (Redis with in-memory fallback) ---
	eventDeduper, dedupeErr := middleware.NewEventDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		cfg.Payment.WebhookDedupTTL,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Repositories + checkout service ---
	gatewayRepo := repository.NewGatewayConfigRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	attemptRepo := repository.NewPaymentAttemptRepository(db)

	resolver := gateway.NewResolver(gatewayRepo)
	fulfiller := checkout.NewLogFulfiller(logger)
	svc := checkout.NewService(resolver, orderRepo, attemptRepo, fulfiller, cfg.Payment.CallbackBaseURL, logger)

	// --- Routes ---
	router.Setup(e, db, svc, resolver, logger, cfg.Admin.APIKey, eventDeduper)

	// --- Cron Scheduler ---
	scheduler := cronpkg.New(cfg, svc, orderRepo, attemptRepo, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting cartpay server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop cron
	ctx := scheduler.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func hasArg(name string) bool {
	for _, arg := range os.Args[1:] {
		if arg == name {
			return true
		}
	}
	return false
}

func runDBBootstrap(logger *zap.Logger) error {
	dbCfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return err
	}
	db, err := config.NewDatabase(dbCfg)
	if err != nil {
		return err
	}
	if err := bootstrap.MigrateAndSeed(db); err != nil {
		return err
	}
	logger.Info("Schema migration and default seed completed")
	return nil
}
