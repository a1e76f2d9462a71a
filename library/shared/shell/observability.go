package shell

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks command handler calls by status.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerIdempotentMetric tracks commands that found nothing to change.
	CommandHandlerIdempotentMetric = "commandhandler_idempotent_operations_total"

	// CommandHandlerBusinessErrorMetric tracks commands rejected by a business rule.
	CommandHandlerBusinessErrorMetric = "commandhandler_business_errors_total"

	// CommandHandlerRetriesMetric tracks retry attempts.
	//
	// Labels: command_type, attempt_number, error_type.
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks backoff delays between attempts.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks commands that failed after the last attempt.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks query handler calls by status.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	StatusSuccess             = "success"
	StatusError               = "error"
	StatusBusinessError       = "business_error"
	StatusIdempotent          = "idempotent"
	StatusCanceled            = "canceled"
	StatusTimeout             = "timeout"
	StatusConcurrencyConflict = "conflict"
	StatusProviderUnavailable = "provider_unavailable"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrQueryType       = "query_type"
	LogAttrStatus          = "status"
	LogAttrDurationMS      = "duration_ms"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrError           = "error"

	SpanNameCommandHandle = "commandhandler.handle"
	SpanNameQueryHandle   = "queryhandler.handle"
)

// MetricsCollector is an alias of librarystore.MetricsCollector.
type MetricsCollector = librarystore.MetricsCollector

// ContextualMetricsCollector is an alias of librarystore.ContextualMetricsCollector.
type ContextualMetricsCollector = librarystore.ContextualMetricsCollector

// TracingCollector is an alias of librarystore.TracingCollector.
type TracingCollector = librarystore.TracingCollector

// SpanContext is an alias of librarystore.SpanContext.
type SpanContext = librarystore.SpanContext

// ContextualLogger is an alias of librarystore.ContextualLogger.
type ContextualLogger = librarystore.ContextualLogger

// Logger is an alias of librarystore.Logger.
type Logger = librarystore.Logger

// BuildCommandLabels creates the metric labels of a command handler call.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildRetryLabels creates the metric labels of a retry attempt.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		"attempt_number":   strconv.Itoa(attemptNumber),
		"error_type":       errorType,
	}
}

// ToMilliseconds converts d to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// StatusOf classifies the outcome of a handler call for metrics, spans and logs.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, librarystore.ErrConcurrencyConflict):
		return StatusConcurrencyConflict
	case errors.Is(err, core.ErrProviderUnavailable):
		return StatusProviderUnavailable
	case IsBusinessError(err):
		return StatusBusinessError
	default:
		return StatusError
	}
}

// IsBusinessError reports whether err is a rule violation the caller can correct.
func IsBusinessError(err error) bool {
	for _, businessErr := range []error{
		core.ErrOutOfStock,
		core.ErrAlreadyReturned,
		core.ErrUnknownSession,
		core.ErrDuplicateBorrowing,
		core.ErrInvalidReturnDate,
		core.ErrPaymentNotCompleted,
		core.ErrPaymentAlreadyPaid,
		core.ErrBookNotFound,
		core.ErrBorrowingNotFound,
		core.ErrPaymentNotFound,
	} {
		if errors.Is(err, businessErr) {
			return true
		}
	}

	return false
}

// RecordCommandMetrics records duration and call count of one command, plus the idempotent
// and business error counters when status says so.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, CommandHandlerDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, CommandHandlerCallsMetric, labels)
	} else {
		collector.RecordDuration(CommandHandlerDurationMetric, duration, labels)
		collector.IncrementCounter(CommandHandlerCallsMetric, labels)
	}

	var extraMetric string

	switch status {
	case StatusIdempotent:
		extraMetric = CommandHandlerIdempotentMetric
	case StatusBusinessError:
		extraMetric = CommandHandlerBusinessErrorMetric
	default:
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, extraMetric, labels)
	} else {
		collector.IncrementCounter(extraMetric, labels)
	}
}

// RecordQueryMetrics records duration and call count of one query.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, QueryHandlerDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, QueryHandlerCallsMetric, labels)
	} else {
		collector.RecordDuration(QueryHandlerDurationMetric, duration, labels)
		collector.IncrementCounter(QueryHandlerCallsMetric, labels)
	}
}

// StartSpan starts a span named spanName with attrKey=typeName, or returns ctx unchanged without a tracer.
func StartSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	spanName string,
	attrKey string,
	typeName string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, spanName, map[string]string{attrKey: typeName})
}

// FinishSpan ends a span started by StartSpan.
func FinishSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: strconv.FormatFloat(ToMilliseconds(duration), 'f', 2, 64),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogInfo logs through the contextual logger if set, else through the basic logger.
func LogInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

// LogWarn logs through the contextual logger if set, else through the basic logger.
func LogWarn(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Warn(msg, args...)
	}
}

// LogError logs through the contextual logger if set, else through the basic logger.
func LogError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}
