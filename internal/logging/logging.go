// Package logging sets up structured logging for the h5features tools.
//
// Text output goes through tint, colored only when stderr is a terminal.
// JSON output uses the standard slog JSON handler. Both write to stderr so
// that command output on stdout stays machine readable.
//
// Usage:
//
//	logging.Init(slog.LevelInfo, false)
//	log := logging.Component("watch")
//	log.Info("watching", "dir", dir)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Level is the level of the global logger. It can be changed after Init.
var Level = &slog.LevelVar{}

// Init initializes the global logger with the specified level and format.
func Init(level slog.Level, jsonFormat bool) {
	Level.Set(level)
	if jsonFormat {
		InitWithHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: Level}))
		return
	}
	InitWithHandler(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      Level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}

// InitWithHandler initializes the global logger with a custom handler.
func InitWithHandler(handler slog.Handler) {
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Component returns a logger tagged with component=name.
func Component(name string) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With("component", name)
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
