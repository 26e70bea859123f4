package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New builds the service JSON logger. Unknown levels fall back to info.
func New(w io.Writer, level, env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: env != "production" && strings.EqualFold(level, "debug"),
	}
	return slog.New(slog.NewJSONHandler(w, opts)).With(slog.String("env", env))
}

// ParseLevel maps a LOG_LEVEL value to a slog level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
