package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the portal's slog.Logger. Production deployments log
// JSON; the pretty text handler is the local default.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
