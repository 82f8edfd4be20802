package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ondrasimku/coursework-files/internal/auth"
	"github.com/ondrasimku/coursework-files/internal/config"
	httphandler "github.com/ondrasimku/coursework-files/internal/http"
	"github.com/ondrasimku/coursework-files/internal/log"
	"github.com/ondrasimku/coursework-files/internal/metrics"
	"github.com/ondrasimku/coursework-files/internal/storage/local"
	"github.com/ondrasimku/coursework-files/internal/upload"
	"github.com/ondrasimku/coursework-files/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := local.NewLocalStorage(cfg.StorageDir, cfg.PublicBaseURL, local.WithTokenLength(cfg.TokenLength))
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()
	service := upload.NewService(validation.New(cfg.MaxFileSize), store, metrics.New(registry), logger)

	deps := httphandler.RouterDeps{
		Service:  service,
		Gatherer: registry,
		Logger:   logger,
	}
	if cfg.Auth.Enabled {
		jwksClient, err := auth.NewJWKSClient(ctx, cfg.Auth.JWKSUrl, cfg.Auth.JWKSCacheTTL)
		if err != nil {
			logger.Error("Failed to initialize JWKS client", "error", err)
			os.Exit(1)
		}
		deps.Keys = jwksClient
	} else {
		logger.Warn("Authentication disabled, upload and delete routes are open")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httphandler.NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting coursework file service",
			"addr", cfg.HTTPAddr, "storageDir", store.BaseDir(), "maxFileSize", cfg.MaxFileSize)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}
