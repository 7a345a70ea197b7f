package imagecache

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents different logging levels.
type LogLevel int

// Supported logging levels.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// LogConfig holds configuration for the cache logger.
type LogConfig struct {
	// Level sets the minimum log level.
	Level LogLevel
	// EnableCallerInfo includes file and line number in logs.
	EnableCallerInfo bool
	// EnableOperationLogging enables logging of individual cache
	// operations. Disabled by default to avoid noise.
	EnableOperationLogging bool
}

// DefaultLogConfig returns a default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:                  LogLevelInfo,
		EnableCallerInfo:       false,
		EnableOperationLogging: false,
	}
}

// Logger provides structured logging for the cache. The zero value is not
// usable; construct one with NewLogger or NewNopLogger.
type Logger struct {
	logger *slog.Logger
	config LogConfig
}

// NewLogger creates a new structured logger with the given configuration.
// Output goes to stderr in slog text format.
func NewLogger(config LogConfig) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	})
	return &Logger{
		logger: slog.New(handler),
		config: config,
	}
}

// NewNopLogger creates a no-op logger that discards all log messages.
func NewNopLogger() *Logger {
	return &Logger{
		logger: slog.New(slog.DiscardHandler),
		config: LogConfig{Level: LogLevelError},
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs debug-level messages.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs info-level messages.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs warning-level messages.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs error-level messages.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// With returns a logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		logger: l.logger.With(args...),
		config: l.config,
	}
}

// WithOperation returns a logger with operation context.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.With("operation", operation)
}

// WithKey returns a logger with cache key context.
func (l *Logger) WithKey(key string) *Logger {
	return l.With("key", key)
}

// WithSize returns a logger with size context.
func (l *Logger) WithSize(size uint64) *Logger {
	return l.With("size", size)
}

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// logHit logs a cache hit event when operation logging is enabled.
func (l *Logger) logHit(key string, size uint64) {
	if !l.config.EnableOperationLogging {
		return
	}
	l.Debug("cache hit", "key", key, "size", size, "result", "hit")
}

// logMiss logs a cache miss event when operation logging is enabled.
func (l *Logger) logMiss(key string) {
	if !l.config.EnableOperationLogging {
		return
	}
	l.Debug("cache miss", "key", key, "result", "miss")
}

// logEviction logs a single purged entry.
func (l *Logger) logEviction(key string, size uint64) {
	l.Debug("cache entry purged", "key", key, "size", size, "reason", "capacity_exceeded")
}

// logPurge logs a completed purge pass.
func (l *Logger) logPurge(entriesRemoved int, bytesFreed, usageBytes uint64, duration time.Duration) {
	l.Info("cache purge completed",
		"entries_removed", entriesRemoved,
		"bytes_freed", bytesFreed,
		"usage_bytes", usageBytes,
		"duration_ms", duration.Milliseconds())
}

// logClear logs an explicit clear.
func (l *Logger) logClear(entriesRemoved int, bytesFreed uint64) {
	l.Info("cache cleared",
		"entries_removed", entriesRemoved,
		"bytes_freed", bytesFreed)
}
