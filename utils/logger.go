package utils

import (
	"io"
	"log/slog"
	"os"

	"pharmacoach/config"
	"pharmacoach/lib/slogcustom"
)

// SetupLogger builds the process logger from config and installs it as the slog default.
func SetupLogger(cfg *config.Config) *slog.Logger {
	return setupLogger(os.Stdout, cfg)
}

func setupLogger(out io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slogcustom.NewCustomHandler(out, level)
	}

	log := slog.New(handler).With("app", cfg.AppName)
	slog.SetDefault(log)
	return log
}
