package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/signup-etl/internal/config"
	"github.com/JonMunkholm/signup-etl/internal/core"
	"github.com/JonMunkholm/signup-etl/internal/database"
	"github.com/JonMunkholm/signup-etl/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	logger := logging.WithRun(
		logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format),
		logging.NewRunID(),
	)
	logger.Debug("configuration loaded", "config", cfg.String())
	logger.Info("starting run",
		"input", cfg.Input.File,
		"database", cfg.Database.DatabaseName(),
		"table", cfg.Database.Table,
	)

	store, err := database.NewStore(database.Config{
		URL:            cfg.Database.URL,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		Table:          cfg.Database.Table,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to the database", "error", err)
		return exitFor(logger, os.Stderr, err)
	}

	pipeline := core.NewPipeline(store, logger)
	if err := pipeline.Run(context.Background(), cfg.Input.File); err != nil {
		return exitFor(logger, os.Stderr, err)
	}
	return 0
}

// exitFor logs a fatal error with its code, writes the one-line summary to
// w and returns the exit status.
func exitFor(logger *slog.Logger, w io.Writer, err error) int {
	msg := core.MapError(err)
	logger.Error(msg.Message,
		"code", msg.Code,
		"action", msg.Action,
		"kind", core.Kind(err).String(),
	)
	fmt.Fprintln(w, core.FormatUserError(err))
	return 1
}
