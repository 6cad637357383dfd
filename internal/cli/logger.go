package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level string
	JSON  bool
}

// LoadLogConfig reads the log settings from viper
func LoadLogConfig() *LogConfig {
	return &LogConfig{
		Level: viper.GetString("log.level"),
		JSON:  viper.GetBool("log.json"),
	}
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// Configure returns a logger writing to w
func (c *LogConfig) Configure(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(c.Level),
	}

	var handler slog.Handler
	if c.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
