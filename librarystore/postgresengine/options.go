package postgresengine

import (
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Logger is an alias of librarystore.Logger.
type Logger = librarystore.Logger

// ContextualLogger is an alias of librarystore.ContextualLogger.
type ContextualLogger = librarystore.ContextualLogger

// MetricsCollector is an alias of librarystore.MetricsCollector.
type MetricsCollector = librarystore.MetricsCollector

// TracingCollector is an alias of librarystore.TracingCollector.
type TracingCollector = librarystore.TracingCollector

// SpanContext is an alias of librarystore.SpanContext.
type SpanContext = librarystore.SpanContext

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithTableNames overrides the books, borrowings and payments table names.
func WithTableNames(books, borrowings, payments string) Option {
	return func(s *Store) error {
		if books == "" || borrowings == "" || payments == "" {
			return librarystore.ErrEmptyTableNameSupplied
		}

		s.booksTable = books
		s.borrowingsTable = borrowings
		s.paymentsTable = payments

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: operations with durations (production-safe)
// Error level: failures that cause an operation to fail.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// Errors are logged through it with the request context, so trace ids end up in the log line.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives operation durations, database errors and concurrency conflicts.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// Every public operation gets its own span named "librarystore.<operation>".
func WithTracing(collector TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
