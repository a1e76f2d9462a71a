// Package zapadapter implements the librarystore Logger and ContextualLogger interfaces with zap.
// Contextual log lines carry the trace and span id of the active OpenTelemetry span
// and the fields of a request logger stored with ContextWithLogger.
package zapadapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	fieldService = "service"
	fieldEnv     = "env"
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// NewZapLogger builds a JSON logger writing to stdout at the given level ("debug", "info", "warn", "error").
func NewZapLogger(service, env, level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.InitialFields = map[string]any{
		fieldService: service,
		fieldEnv:     env,
	}

	return cfg.Build()
}

// Logger adapts a zap.Logger. The key/value argument pairs are passed to the sugared logger.
type Logger struct {
	base *zap.Logger
}

// NewLogger wraps base. A nil base falls back to zap.L().
func NewLogger(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.L()
	}

	return &Logger{base: base}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.base.Sugar().Debugw(msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) {
	l.base.Sugar().Infow(msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.base.Sugar().Warnw(msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) {
	l.base.Sugar().Errorw(msg, args...)
}

// DebugContext logs at debug level with the request and trace fields of ctx.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.forContext(ctx).Debugw(msg, args...)
}

// InfoContext logs at info level with the request and trace fields of ctx.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.forContext(ctx).Infow(msg, args...)
}

// WarnContext logs at warn level with the request and trace fields of ctx.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.forContext(ctx).Warnw(msg, args...)
}

// ErrorContext logs at error level with the request and trace fields of ctx.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.forContext(ctx).Errorw(msg, args...)
}

// Zap returns the wrapped zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

func (l *Logger) forContext(ctx context.Context) *zap.SugaredLogger {
	logger := l.base
	if requestLogger, ok := loggerFromContext(ctx); ok {
		logger = requestLogger
	}

	spanContext := trace.SpanContextFromContext(ctx)
	if spanContext.IsValid() {
		logger = logger.With(
			zap.String(fieldTraceID, spanContext.TraceID().String()),
			zap.String(fieldSpanID, spanContext.SpanID().String()),
		)
	}

	return logger.Sugar()
}

var (
	_ librarystore.Logger           = (*Logger)(nil)
	_ librarystore.ContextualLogger = (*Logger)(nil)
)
