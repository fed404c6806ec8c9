package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/thumblify/internal/api"
	"github.com/timmy/thumblify/internal/auth"
	"github.com/timmy/thumblify/internal/config"
	"github.com/timmy/thumblify/internal/logger"
	"github.com/timmy/thumblify/internal/provider"
	"github.com/timmy/thumblify/internal/repository"
	"github.com/timmy/thumblify/internal/service"
	"github.com/timmy/thumblify/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// Initialize logger
	logger.SetDefault(logger.New(nil))
	defer logger.Sync()

	// Fail fast on missing provider/storage credentials instead of on the
	// first generation request
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	thumbnailRepo := repository.NewThumbnailRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize storage (supports R2, S3, and S3-compatible services)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		logger.Fatal("Failed to ensure storage bucket: %v", err)
	}

	// Initialize the image provider client
	generator := provider.NewClipdropClient(&provider.ClipdropConfig{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout,
	})

	// Initialize services
	authService := auth.NewService(userRepo, sessionRepo, cfg.Auth.SessionTTL)

	// Sweep expired sessions hourly; Resolve only drops the ones it sees
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if err := authService.PurgeExpired(purgeCtx); err != nil {
					logger.Warn("Failed to purge expired sessions: %v", err)
				}
			}
		}
	}()

	retry := storage.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.Generation.UploadMaxAttempts
	retry.AttemptTimeout = cfg.Generation.UploadTimeout

	generateService := service.NewGenerateService(thumbnailRepo, generator, objectStorage, service.GenerateConfig{
		MinImageBytes: cfg.Generation.MinImageBytes,
		Retry:         retry,
	})
	thumbnailService := service.NewThumbnailService(thumbnailRepo, objectStorage)

	// Setup router
	router := api.SetupRouter(authService, generateService, thumbnailService, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
