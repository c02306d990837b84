// Command contrascan is a single-shot contrarian market scanner. Each
// invocation samples Polymarket order-book midpoints and liquidity metadata,
// screens for markets priced near certainty, and delivers a ranked digest to
// the configured notification channel (or stdout). It is meant to be run
// from cron or a scheduler; it holds no state between runs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/driesv/contrascan/internal/app"
	"github.com/driesv/contrascan/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("contrascan starting", slog.String("config", *configPath))
	logger.Debug("effective configuration", slog.Any("config", config.RedactedConfig(cfg)))

	// Setup signal handling so an interrupted run still exits cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run the scan. Failures are reported through the notification path
	// inside Run; the process exits zero either way.
	app.New(cfg, logger).Run(ctx)

	logger.Info("contrascan stopped")
}
