package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/belchote2025/nuevaweb-sub001/internal/api"
	"github.com/belchote2025/nuevaweb-sub001/internal/chat"
	"github.com/belchote2025/nuevaweb-sub001/internal/config"
	"github.com/belchote2025/nuevaweb-sub001/internal/directory"
	"github.com/belchote2025/nuevaweb-sub001/internal/store"
)

func main() {
	// Initialize logger
	var logger zerolog.Logger
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Load the room catalog and roster
	catalog := directory.Default()
	if cfg.CatalogFile != "" {
		catalog, err = directory.Load(cfg.CatalogFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("catalog load failed")
		}
	}
	logger.Info().Int("rooms", len(catalog.Rooms())).Msg("room catalog loaded")

	// Initialize the storage backend
	var st store.Store
	switch cfg.Store {
	case config.StoreMemory:
		st = store.NewMemoryStore()
	case config.StoreSQLite:
		st, err = store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
	case config.StorePostgres:
		st, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
	case config.StoreRedis:
		st, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
	}
	defer st.Close()
	logger.Info().Str("backend", cfg.Store).Msg("store ready")

	// Create the chat service and router
	svc, err := chat.NewService(ctx, catalog, st)
	if err != nil {
		logger.Fatal().Err(err).Msg("service init failed")
	}
	router := api.NewRouter(logger, svc, st)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
