// Package log owns the process-wide slog configuration. Components receive
// child loggers through the With helpers so every line carries its origin.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Setup initializes the global logger writing to stderr. Level falls back to
// INFO and format to text when unrecognized. The first Setup call wins.
func Setup(level, format string) {
	once.Do(func() { configure(os.Stderr, level, format) })
}

// SetupFile initializes the global logger appending to the file at path,
// creating parent directories as needed. The dashboard uses this so log lines
// cannot tear the alt screen while the grid owns the terminal. On open
// failure the logger falls back to stderr and the error is returned.
func SetupFile(level, format, path string) error {
	var openErr error
	once.Do(func() {
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			configure(os.Stderr, level, format)
			openErr = fmt.Errorf("open log file: %w", err)
			return
		}
		configure(f, level, format)
	})
	return openErr
}

func configure(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// parseLevel defaults to INFO when the level is unrecognized.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the configured logger, or a stderr default if Setup has not run.
func Get() *slog.Logger {
	if logger == nil {
		Setup("info", "text")
	}
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithPlugin returns a logger with the plugin field set.
func WithPlugin(name string) *slog.Logger {
	return Get().With(slog.String("plugin", name))
}

// WithWidget returns a logger with the widget_id field set.
func WithWidget(id string) *slog.Logger {
	return Get().With(slog.String("widget_id", id))
}

// Info logs at INFO level.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at ERROR level.
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
