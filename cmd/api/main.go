package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wonny/stockmarket/internal/api"
	"github.com/wonny/stockmarket/internal/infra/database"
	"github.com/wonny/stockmarket/internal/pkg/auth"
	"github.com/wonny/stockmarket/internal/pkg/config"
	"github.com/wonny/stockmarket/internal/pkg/logger"
	"github.com/wonny/stockmarket/internal/pkg/metrics"
	"github.com/wonny/stockmarket/internal/service/notify"
	"github.com/wonny/stockmarket/internal/service/stock"
)

const (
	serviceName    = "stockmarket-api"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logger.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		RotationSize:   cfg.Logging.RotationSize,
		RetentionDays:  cfg.Logging.RetentionDays,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("version", serviceVersion).
		Str("provider", cfg.Database.Provider).
		Msg("🚀 Starting StockMarket API Server...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := metrics.NewRegistry()

	store, err := database.Open(ctx, cfg,
		database.WithMetrics(metrics.NewRepository(registry)),
		database.WithQueryLogger(logger.NewQueryLogger(logCfg)),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stock storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close stock storage")
		}
	}()

	hub := notify.NewHub(notify.Config{ChannelSize: cfg.Notify.ChannelSize}, metrics.NewHub(registry))
	defer hub.Close()

	stockService := stock.NewService(store.Stocks, hub)

	deps := api.Dependencies{
		Stocks:   stockService,
		Storage:  store,
		Hub:      hub,
		Registry: registry,
		Version:  serviceVersion,
	}
	if cfg.Auth.Enabled {
		issuer, err := auth.NewIssuer(cfg.Auth)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create token issuer")
		}
		deps.Tokens = issuer
	} else {
		log.Warn().Msg("⚠️  Authentication disabled, stock API is open")
	}

	router := api.NewRouter(cfg, deps)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", addr).
			Msg("🎯 API Server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("🛑 Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Closing the hub first ends open websocket streams
	hub.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("👋 StockMarket API Server stopped")
}
