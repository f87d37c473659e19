package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var base = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Init replaces the process logger. Development gets human readable text,
// every other environment gets JSON lines.
func Init(level, environment string) {
	base = New(os.Stdout, level, environment)
	slog.SetDefault(base)
}

func New(w io.Writer, level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if environment == "development" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func Get() *slog.Logger {
	return base
}

func Info(format string, v ...interface{}) {
	base.Info(fmt.Sprintf(format, v...))
}

func Error(format string, v ...interface{}) {
	base.Error(fmt.Sprintf(format, v...))
}

func Debug(format string, v ...interface{}) {
	base.Debug(fmt.Sprintf(format, v...))
}

func Warn(format string, v ...interface{}) {
	base.Warn(fmt.Sprintf(format, v...))
}

// With returns a logger carrying structured attributes, e.g.
// logger.With("room_id", id).Warn(...).
func With(args ...any) *slog.Logger {
	return base.With(args...)
}
