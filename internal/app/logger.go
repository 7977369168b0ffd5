package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger shared by the API server and
// the worker. LOG_FORMAT=json switches to the JSON handler for log
// shipping; anything else keeps the readable text handler. Every record
// carries the deployment environment.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	if cfg != nil {
		logger = logger.With(slog.String("env", cfg.AppEnv))
	}
	return logger
}
