package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// FileOptions configures optional rotating file output. A zero value keeps
// logging on stderr so the serial/TCP output channel stays clean.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup initializes the global logger.
// logic: default to INFO. If level is invalid, fallback to INFO.
func Setup(level string, file FileOptions) {
	once.Do(func() {
		var l slog.Level
		switch strings.ToUpper(level) {
		case "DEBUG":
			l = slog.LevelDebug
		case "WARN":
			l = slog.LevelWarn
		case "ERROR":
			l = slog.LevelError
		default:
			l = slog.LevelInfo
		}

		var out io.Writer = os.Stderr
		if file.Path != "" {
			out = &lumberjack.Logger{
				Filename:   file.Path,
				MaxSize:    file.MaxSizeMB,
				MaxBackups: file.MaxBackups,
				MaxAge:     file.MaxAgeDays,
			}
		}

		opts := &slog.HandlerOptions{
			Level: l,
		}
		handler := slog.NewJSONHandler(out, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	})
}

// Get returns the configured logger, or a default one if Setup hasn't been called.
func Get() *slog.Logger {
	if logger == nil {
		Setup("INFO", FileOptions{})
	}
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithSession returns a logger with the session_id field set.
func WithSession(id string) *slog.Logger {
	return Get().With(slog.String("session_id", id))
}

// WithModule returns a logger with the module field set.
func WithModule(name string) *slog.Logger {
	return Get().With(slog.String("module", name))
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
