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

	"archgraph-backend/infrastructure/config"
	"archgraph-backend/infrastructure/di"
	"archgraph-backend/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Distributed tracing
	if cfg.EnableTracing {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: "archgraph-backend",
			Environment: cfg.Environment,
			Endpoint:    cfg.OTLPEndpoint,
		})
		if err != nil {
			logger.Warn("tracing disabled, exporter init failed", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	// Dynamic tuning file
	if cfg.DynamicConfigPath != "" {
		dyn, err := config.NewDynamicConfig(cfg.DynamicConfigPath, config.Tunables{
			SimilarityThreshold: cfg.SimilarityThreshold,
			CacheCapacity:       cfg.CacheCapacity,
			ObserverQueueSize:   cfg.ObserverQueueSize,
		}, logger)
		if err != nil {
			logger.Warn("dynamic config disabled", zap.Error(err))
		} else {
			defer dyn.Close()
			dyn.OnReload(func(t config.Tunables) {
				container.Cache.Tune(t.SimilarityThreshold, t.RecentScanLimit)
			})
		}
	}

	// Warm the model from the cold store; a missing snapshot just means a
	// fresh model.
	if _, err := container.ModelService.LoadFromColdStore(ctx, ""); err != nil {
		logger.Info("no stored snapshot, starting with an empty model", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("model_id", cfg.ModelID),
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

	container.Hub.Shutdown()
	if err := container.Episodes.Close(); err != nil {
		logger.Error("Episode store close error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	log.Println("Server stopped")
}
