package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecostock/internal/config"
	"ecostock/internal/handler"
	"ecostock/internal/metrics"
	"ecostock/internal/repository"
	"ecostock/internal/router"
	"ecostock/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger, "api")
	logger.Info().Str("store_backend", cfg.Store.Backend).Msg("starting ecostock API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the record store
	repo, closeRepo, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize inventory store: %w", err)
	}
	defer closeRepo()

	m := metrics.New()

	// Initialize services
	inventoryService := service.NewInventoryService(repo, logger, service.WithMetrics(m))
	sessionStore := service.NewSessionStore(cfg.Session.TTL(), logger)

	// Initialize HTTP handlers
	dashboardHandler := handler.NewDashboardHandler(inventoryService, sessionStore, logger)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)
	sessionHandler := handler.NewSessionHandler(inventoryService, sessionStore, logger)

	// Initialize router
	mux := router.New(dashboardHandler, inventoryHandler, sessionHandler, m, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
