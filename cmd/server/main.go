// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

// Package main is the entry point for the CineGraph server.
//
// CineGraph is a self-hosted social recommendation engine for movies and
// TV. It ingests user interaction events (watchlist, watched, favorite,
// ratings, favorite-actor signals) and follow edges, trains per-partition
// recommendation models, and serves ranked recommendations with
// explainable score decompositions over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config file, environment (Koanf v2)
//  2. Database: DuckDB storage for interactions and follow edges
//  3. Recommendation service: lazily trained per-partition model cache
//  4. HTTP server: chi REST API with Prometheus metrics at /metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (CINEGRAPH_ prefix, e.g. CINEGRAPH_SERVER_PORT)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests up to server.shutdown_timeout
//   - Closes the database connection
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinegraph/cinegraph/internal/api"
	"github.com/cinegraph/cinegraph/internal/config"
	"github.com/cinegraph/cinegraph/internal/database"
	"github.com/cinegraph/cinegraph/internal/logging"
	"github.com/cinegraph/cinegraph/internal/recommend"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Strs("partitions", cfg.API.Partitions).
		Str("addr", cfg.Addr()).
		Msg("Starting CineGraph")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	svc, err := recommend.NewService(engineConfig(cfg), db, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation service")
	}

	handler := api.NewHandler(cfg, db, svc)
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
		if err := server.Close(); err != nil {
			logging.Error().Err(err).Msg("Forced close failed")
		}
	}
	logging.Info().Msg("Server stopped")
}

// engineConfig maps the file/env recommendation settings onto the
// engine's defaults, overriding only the fields the operator set.
func engineConfig(cfg *config.Config) recommend.Config {
	ec := recommend.DefaultConfig()
	if v := cfg.Recommend.UserNeighbors; v > 0 {
		ec.UserNeighbors = v
	}
	if v := cfg.Recommend.ItemNeighbors; v > 0 {
		ec.ItemNeighbors = v
	}
	if v := cfg.Recommend.ProfileSeeds; v > 0 {
		ec.ProfileSeeds = v
	}
	if v := cfg.Recommend.MaxLatentRank; v > 0 {
		ec.MaxLatentRank = v
	}
	if v := cfg.Recommend.LatentIterations; v > 0 {
		ec.LatentIterations = v
	}
	if v := cfg.Recommend.Seed; v != 0 {
		ec.Seed = v
	}
	if v := cfg.Recommend.DefaultTopN; v > 0 {
		ec.DefaultTopN = v
	}
	if v := cfg.Recommend.MaxTopN; v > 0 {
		ec.MaxTopN = v
	}
	return ec
}
