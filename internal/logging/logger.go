package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Output formats.
const (
	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// Record attributes that mark a step line.
const (
	KindKey      = "kind"
	KindStep     = "step"
	PartsKey     = "parts"
	ComponentKey = "component"
)

// Logger interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})

	// Step logs one progress line made of display parts,
	// e.g. Step(ctx, "rewrite", "/api/", "→", "https://example.com/").
	Step(ctx context.Context, parts ...string)

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// RedirectorLogger implements Logger on top of slog.
type RedirectorLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	fields    []slog.Attr
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  LogLevel
	Format string // "console", "text" or "json"
	Color  ColorMode
	Output io.Writer
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  LevelInfo,
		Format: FormatConsole,
		Color:  ColorAuto,
		Output: os.Stderr,
	}
}

// NewLogger creates a new structured logger
func NewLogger(config *LoggerConfig) *RedirectorLogger {
	if config == nil {
		config = DefaultConfig()
	}
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	case FormatText:
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = NewConsoleHandler(out, config.Level, config.Color)
	}

	return &RedirectorLogger{
		logger: slog.New(handler),
		level:  config.Level,
	}
}

// Debug logs a debug message
func (l *RedirectorLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.log(ctx, slog.LevelDebug, nil, msg, fields...)
}

// Info logs an info message
func (l *RedirectorLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.log(ctx, slog.LevelInfo, nil, msg, fields...)
}

// Warn logs a warning message
func (l *RedirectorLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelWarn {
		return
	}
	l.log(ctx, slog.LevelWarn, err, msg, fields...)
}

// Error logs an error message
func (l *RedirectorLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// Step logs a step line at info level.
func (l *RedirectorLogger) Step(ctx context.Context, parts ...string) {
	if l.level > LevelInfo || len(parts) == 0 {
		return
	}
	l.log(ctx, slog.LevelInfo, nil, strings.Join(parts, " "),
		KindKey, KindStep, PartsKey, parts)
}

// With creates a new logger with additional fields
func (l *RedirectorLogger) With(fields ...interface{}) Logger {
	newFields := make([]slog.Attr, 0, len(l.fields)+len(fields)/2)
	newFields = append(newFields, l.fields...)
	newFields = append(newFields, attrs(fields)...)

	return &RedirectorLogger{
		logger:    l.logger,
		level:     l.level,
		component: l.component,
		fields:    newFields,
	}
}

// WithComponent creates a new logger with component context
func (l *RedirectorLogger) WithComponent(component string) Logger {
	return &RedirectorLogger{
		logger:    l.logger,
		level:     l.level,
		component: component,
		fields:    l.fields,
	}
}

// log is the internal logging method
func (l *RedirectorLogger) log(ctx context.Context, level slog.Level, err error, msg string, fields ...interface{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.logger.Enabled(ctx, level) {
		return
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	if l.component != "" {
		record.AddAttrs(slog.String(ComponentKey, l.component))
	}
	if err != nil {
		record.AddAttrs(slog.String("error", err.Error()))
	}
	record.AddAttrs(l.fields...)
	record.AddAttrs(attrs(fields)...)

	_ = l.logger.Handler().Handle(ctx, record)
}

// attrs converts alternating key/value pairs, dropping malformed keys.
func attrs(fields []interface{}) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			out = append(out, slog.Any(key, fields[i+1]))
		}
	}
	return out
}

// NopLogger discards everything.
type NopLogger struct{}

// NewNop returns a Logger that discards all output.
func NewNop() Logger { return NopLogger{} }

func (NopLogger) Debug(context.Context, string, ...interface{})        {}
func (NopLogger) Info(context.Context, string, ...interface{})         {}
func (NopLogger) Warn(context.Context, error, string, ...interface{})  {}
func (NopLogger) Error(context.Context, error, string, ...interface{}) {}
func (NopLogger) Step(context.Context, ...string)                      {}
func (n NopLogger) With(...interface{}) Logger                         { return n }
func (n NopLogger) WithComponent(string) Logger                        { return n }
