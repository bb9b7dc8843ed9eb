package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"modops-backend/domain/operation"
	"modops-backend/infrastructure/config"
	"modops-backend/infrastructure/di"
	"modops-backend/interfaces/http/rest"
	"modops-backend/interfaces/http/rest/handlers"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Optional runtime overrides for the sweep interval and window bounds
	var watcher *config.ConfigWatcher
	if cfg.OverridesFile != "" {
		watcher, err = config.NewConfigWatcher(cfg.OverridesFile, logger)
		if err != nil {
			logger.Warn("Runtime config overrides unavailable", zap.Error(err))
		} else {
			watcher.OnChange(func(dynamic *config.DynamicConfig) {
				container.Sweeper.SetInterval(time.Duration(dynamic.SweepIntervalMillis) * time.Millisecond)
				container.Staging.SetWindowBounds(operation.WindowBounds{
					Min: time.Duration(dynamic.MinWindowSeconds) * time.Second,
					Max: time.Duration(dynamic.MaxWindowSeconds) * time.Second,
				})
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// The sweeper's startup pass commits anything that expired while the
	// process was down.
	container.Sweeper.Start(ctx)
	defer container.Sweeper.Stop()

	operationHandler := handlers.NewOperationHandler(
		container.Staging,
		container.Cancel,
		container.OperationStore,
		logger,
	)
	router := rest.NewRouter(
		operationHandler,
		container.JWTValidator,
		container.Metrics,
		logger,
		cfg.EnableCORS,
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("storeBackend", cfg.StoreBackend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
