package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// New builds the process logger and installs it as the slog default.
// format is "json" (default) or "text".
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
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

// ============================================================================
// Chained fields
// ============================================================================

// Fields provides structured logging with chained attribute building.
type Fields struct {
	logger *slog.Logger
	attrs  []slog.Attr
}

// With starts a chain on logger (slog.Default when nil).
func With(logger *slog.Logger) *Fields {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fields{
		logger: logger,
		attrs:  make([]slog.Attr, 0, 8),
	}
}

// Str adds a string field (chainable).
func (f *Fields) Str(key, val string) *Fields {
	f.attrs = append(f.attrs, slog.String(key, val))
	return f
}

// Int adds an integer field.
func (f *Fields) Int(key string, val int) *Fields {
	f.attrs = append(f.attrs, slog.Int(key, val))
	return f
}

// Int64 adds an int64 field.
func (f *Fields) Int64(key string, val int64) *Fields {
	f.attrs = append(f.attrs, slog.Int64(key, val))
	return f
}

// Dur adds a duration field in milliseconds.
func (f *Fields) Dur(key string, val time.Duration) *Fields {
	f.attrs = append(f.attrs, slog.Float64(key+"_ms", float64(val.Microseconds())/1000))
	return f
}

// Err adds an error field.
func (f *Fields) Err(err error) *Fields {
	if err != nil {
		f.attrs = append(f.attrs, slog.String("error", err.Error()))
	}
	return f
}

// Any adds any value field.
func (f *Fields) Any(key string, val any) *Fields {
	f.attrs = append(f.attrs, slog.Any(key, val))
	return f
}

func (f *Fields) toArgs() []any {
	args := make([]any, len(f.attrs))
	for i, attr := range f.attrs {
		args[i] = attr
	}
	return args
}

// Info logs at INFO level.
func (f *Fields) Info(msg string) {
	f.logger.Info(msg, f.toArgs()...)
}

// Debug logs at DEBUG level.
func (f *Fields) Debug(msg string) {
	f.logger.Debug(msg, f.toArgs()...)
}

// Warn logs at WARN level.
func (f *Fields) Warn(msg string) {
	f.logger.Warn(msg, f.toArgs()...)
}

// Error logs at ERROR level.
func (f *Fields) Error(msg string) {
	f.logger.Error(msg, f.toArgs()...)
}
