package zapadapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kapitoshk4/library-service-api/librarystore/zapadapter"
)

func Test_Logger_Info_WritesKeyValuePairsAsFields(t *testing.T) {
	// arrange
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zapadapter.NewLogger(zap.New(core))

	// act
	logger.Info("store operation: reserve_copy", "duration_ms", 1.5)

	// assert
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "store operation: reserve_copy", entry.Message)
	assert.InDelta(t, 1.5, entry.ContextMap()["duration_ms"], 0.0001)
}

func Test_Logger_Debug_IsDroppedAboveDebugLevel(t *testing.T) {
	// arrange
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zapadapter.NewLogger(zap.New(core))

	// act
	logger.Debug("executed sql for: get_book", "query", "SELECT 1")

	// assert
	assert.Equal(t, 0, logs.Len())
}

func Test_Logger_ErrorContext_AddsTraceAndSpanID(t *testing.T) {
	// arrange
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zapadapter.NewLogger(zap.New(core))
	provider := sdktrace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "borrow_book")
	defer span.End()

	// act
	logger.ErrorContext(ctx, "notification failed", "error", "timeout")

	// assert
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	assert.Equal(t, "timeout", fields["error"])
}

func Test_Logger_InfoContext_UsesRequestLoggerFromContext(t *testing.T) {
	// arrange
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)
	logger := zapadapter.NewLogger(base)
	ctx := zapadapter.ContextWithLogger(context.Background(), base.With(zap.String("request_id", "req-1")))

	// act
	logger.InfoContext(ctx, "borrowing created")

	// assert
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-1", logs.All()[0].ContextMap()["request_id"])
	assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
}

func Test_NewZapLogger_RejectsUnknownLevel(t *testing.T) {
	// act
	_, err := zapadapter.NewZapLogger("library", "test", "loud")

	// assert
	assert.Error(t, err)
}
