package librarystore

import (
	"context"
	"time"
)

// The store, the command and query wrappers, the scheduler and the HTTP layer report through these
// interfaces. zapadapter and oteladapters implement them; every one of them is optional.
type (
	// Logger receives SQL statements at debug level and operational messages above it.
	Logger interface {
		Debug(msg string, args ...any)
		Info(msg string, args ...any)
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}

	// ContextualLogger is preferred over Logger when both are set, so request ids and trace ids
	// carried by ctx end up in the log line.
	ContextualLogger interface {
		DebugContext(ctx context.Context, msg string, args ...any)
		InfoContext(ctx context.Context, msg string, args ...any)
		WarnContext(ctx context.Context, msg string, args ...any)
		ErrorContext(ctx context.Context, msg string, args ...any)
	}

	// MetricsCollector records durations of store operations and handler calls, counters of calls,
	// errors and conflicts, and the row counts of list operations.
	MetricsCollector interface {
		RecordDuration(metric string, duration time.Duration, labels map[string]string)
		IncrementCounter(metric string, labels map[string]string)
		RecordValue(metric string, value float64, labels map[string]string)
	}

	// ContextualMetricsCollector is used instead of MetricsCollector when the collector implements it,
	// which lets exemplars point at the trace of ctx.
	ContextualMetricsCollector interface {
		MetricsCollector
		RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
		IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
		RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
	}

	// TracingCollector opens one span per store operation, handler call or HTTP request.
	// The status a span ends with is passed to FinishSpan.
	TracingCollector interface {
		StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
		FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
	}

	// SpanContext is an open span. Attributes only known while it runs, like a row count, go here.
	SpanContext interface {
		AddAttribute(key, value string)
	}
)
