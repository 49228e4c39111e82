package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// LogConfig is the subset of configuration the logger needs.
type LogConfig interface {
	LogSettings() (level, format string)
}

// NewLogger builds the shared stdout logger at the configured level and format,
// tagged with the service name, and installs it as the slog default.
func NewLogger(cfg LogConfig) *slog.Logger {
	level, format := cfg.LogSettings()
	logger := sharedobs.NewLogger(level, format).With("service", "traffic-weather-etl")
	slog.SetDefault(logger)
	return logger
}
