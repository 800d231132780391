// Package main is the entry point for the primal API server.
//
// main stays minimal: read configuration, build the logger, hand both to
// internal/server. All actual logic lives in the imported packages.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xjohnsondev/primal-backend/internal/config"
	"github.com/xjohnsondev/primal-backend/internal/repository/sqlstore"
	"github.com/xjohnsondev/primal-backend/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file loaded before the environment is read")
	flag.Parse()

	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// A SQLite file needs its directory to exist first. Postgres DSNs skip this.
	if sqlstore.DialectFor(cfg.DatabaseURL) == sqlstore.SQLite && cfg.DatabaseURL != ":memory:" {
		dbDir := filepath.Dir(cfg.DatabaseURL)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM or a listener error.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the text or JSON slog handler at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
