// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/storefront-go/internal/application/container"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/kv"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/storefront-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal has been handled.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("storefront-go: multi-vendor storefront and live preview server")

	// Step 1: Channeled logging
	phaseStart := time.Now()
	logger, err := container.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.LogStartupPhase("logging", time.Since(phaseStart), true, map[string]any{"level": config.LogLevel, "toFile": config.LogToFile})

	// Step 2: Storage, backend client and services
	phaseStart = time.Now()
	appContainer, err := container.NewContainer(ctx, logger)
	if err != nil {
		logger.LogStartupPhase("container", time.Since(phaseStart), false, map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to create container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(phaseStart), true, map[string]any{
		"storageDriver": config.StorageDriver,
		"backend":       config.BackendBaseURL,
		"analytics":     appContainer.Backend.AnalyticsEnabled(),
	})

	// Step 3: Storage check
	phaseStart = time.Now()
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = appContainer.Storage.Ping(pingCtx)
	cancelPing()
	if err != nil {
		logger.LogStartupPhase("storage", time.Since(phaseStart), false, map[string]any{"error": err.Error()})
		appContainer.Close()
		return fmt.Errorf("storage unavailable: %w", err)
	}
	logger.LogStartupPhase("storage", time.Since(phaseStart), true, nil)

	// Step 4: Background cleanup worker
	phaseStart = time.Now()
	purger, _ := appContainer.Storage.(kv.Purger)
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager.Purgeables(), purger, cleanup.NewConfig(), logger)
	go cleanupWorker.Start(ctx)
	logger.LogStartupPhase("cleanup worker", time.Since(phaseStart), true, map[string]any{"storagePurge": purger != nil})

	// Step 5: Tracking emitter and idle sweeper
	phaseStart = time.Now()
	go appContainer.TrackingService.Start(ctx)
	logger.LogStartupPhase("tracking", time.Since(phaseStart), true, map[string]any{
		"queueSize":     config.AnalyticsQueueSize,
		"ratePerSecond": config.AnalyticsRatePerSecond,
	})

	// Step 6: Preview hub and relay
	phaseStart = time.Now()
	go appContainer.PreviewHub.Run(ctx)
	go func() {
		if err := appContainer.PreviewService.StartRelay(ctx); err != nil && ctx.Err() == nil {
			logger.Preview().Error("Preview relay stopped", "error", err)
		}
	}()
	logger.LogStartupPhase("preview", time.Since(phaseStart), true, map[string]any{
		"maxSessions": config.PreviewMaxSessions,
		"redisRelay":  config.PreviewRedisRelay,
	})

	// Step 7: HTTP server
	phaseStart = time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.LogStartupPhase("http server", time.Since(phaseStart), true, map[string]any{"port": config.Port})

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete", "totalDuration", time.Since(start), "address", httpServer.Addr())

	// Wait for shutdown signal
	select {
	case sig := <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err)
		}
	}

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err)
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Detaching preview sessions...", "sessions", appContainer.PreviewService.Count())
	appContainer.PreviewService.Shutdown()

	logger.Shutdown().Info("Flushing tracking events...", "queued", appContainer.TrackingService.QueueDepth())
	if err := appContainer.TrackingService.Shutdown(shutdownCtx); err != nil {
		logger.Shutdown().Warn("Tracking events dropped at shutdown", "error", err)
	}

	// Cancel background tasks
	cancelBackgroundTasks()

	logger.Shutdown().Info("Closing storage...")
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing storage", "error", err)
	} else {
		logger.Shutdown().Info("Storage closed successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
