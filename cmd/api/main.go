package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sigilproject/sigil/internal/api"
	"github.com/sigilproject/sigil/internal/config"
	"github.com/sigilproject/sigil/internal/identity"
	"github.com/sigilproject/sigil/internal/logger"
	"github.com/sigilproject/sigil/internal/repository"
	"github.com/sigilproject/sigil/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "sigil-api",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize identity handle; stays keyless until the first sign call
	// when auto-provisioning is enabled
	id, err := identity.New(cfg.Identity.KeyDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize identity")
	}
	if id.Loaded() {
		keyID, _ := id.KeyID()
		appLogger.WithField(logger.FieldKeyID, keyID).Info("Signing identity loaded")
	}

	// Initialize services
	fingerprintService := service.NewFingerprintService(
		repository.NewFingerprintRepository(db),
		appLogger,
	)
	signatureService := service.NewSignatureService(id, &service.SignatureConfig{
		AutoProvision: cfg.Identity.AutoProvision,
	}, appLogger)

	// Setup router
	router := api.SetupRouter(fingerprintService, signatureService, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
