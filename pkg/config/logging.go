package config

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LogConfig selects the slog handler.
type LogConfig struct {
	// Format is text, json or tint (colored console output for development).
	Format string `env:"LOG_FORMAT" env-default:"text"`
	Level  string `env:"LOG_LEVEL" env-default:"info"`
}

var logFormats = []string{"text", "json", "tint"}

// SlogLevel parses Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds a logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level := l.SlogLevel()
	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		}))
	case "tint":
		return slog.New(tint.NewHandler(w, &tint.Options{
			AddSource:  true,
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			AddSource: true, // Enables line number & file path
			Level:     level,
		}))
	}
}

func (l LogConfig) validate() ValidationErrors {
	return collect(RequireOneOf("LOG_FORMAT", l.Format, logFormats))
}
