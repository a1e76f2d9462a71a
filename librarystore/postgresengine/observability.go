package postgresengine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	operationWithTx                 = "with_tx"
	operationGetBook                = "get_book"
	operationListBooks              = "list_books"
	operationInsertBook             = "insert_book"
	operationUpdateBook             = "update_book"
	operationDeleteBook             = "delete_book"
	operationLockBook               = "lock_book"
	operationReserveCopy            = "reserve_copy"
	operationReleaseCopy            = "release_copy"
	operationGetBorrowing           = "get_borrowing"
	operationListBorrowings         = "list_borrowings"
	operationListOverdueBorrowings  = "list_overdue_borrowings"
	operationInsertBorrowing        = "insert_borrowing"
	operationLockBorrowing          = "lock_borrowing"
	operationMarkBorrowingReturned  = "mark_borrowing_returned"
	operationDeleteBorrowing        = "delete_borrowing"
	operationGetPayment             = "get_payment"
	operationGetPaymentBySession    = "get_payment_by_session"
	operationListPayments           = "list_payments"
	operationListPaymentsByBorrower = "list_payments_by_borrowing"
	operationListPendingPayments    = "list_pending_payments"
	operationInsertPayment          = "insert_payment"
	operationLockPaymentBySession   = "lock_payment_by_session"
	operationUpdatePaymentStatus    = "update_payment_status"
	operationDeletePayment          = "delete_payment"
	operationMigrate                = "migrate"

	metricOperationDuration    = "librarystore_operation_duration_seconds"
	metricDatabaseErrors       = "librarystore_database_errors_total"
	metricConcurrencyConflicts = "librarystore_concurrency_conflicts_total"
	metricRowsReturned         = "librarystore_rows_returned"

	spanNamePrefix    = "librarystore."
	spanAttrOperation = "operation"
	spanAttrErrorType = "error_type"
	spanAttrRowCount  = "row_count"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"
)

// observe runs fn inside a tracing span and records duration, error and conflict metrics.
func (s Store) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return s.observeSpan(ctx, operation, func(ctx context.Context, _ SpanContext) error {
		return fn(ctx)
	})
}

// observeList is observe for list operations. After fn succeeded, rowCount is put on the span and
// recorded as a metric.
func (s Store) observeList(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context) error,
	rowCount func() int,
) error {
	return s.observeSpan(ctx, operation, func(ctx context.Context, span SpanContext) error {
		if err := fn(ctx); err != nil {
			return err
		}

		rows := rowCount()
		if span != nil {
			span.AddAttribute(spanAttrRowCount, strconv.Itoa(rows))
		}
		s.recordRowCount(ctx, operation, rows)

		return nil
	})
}

func (s Store) observeSpan(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, span SpanContext) error,
) error {
	start := time.Now()
	ctx, span := s.startTraceSpan(ctx, operation)

	err := fn(ctx, span)
	duration := time.Since(start)

	if err != nil {
		status := statusError
		if errors.Is(err, librarystore.ErrConcurrencyConflict) {
			status = statusConflict
			s.recordConcurrencyConflictMetrics(ctx, operation)
			s.logOperation(ctx, logMsgConcurrencyConflict, logAttrOperation, operation)
		}

		s.recordErrorMetricsContext(ctx, operation, errorType(err))
		s.recordDurationMetricsContext(ctx, duration, operation, status)
		s.finishTraceSpan(span, status, map[string]string{spanAttrErrorType: errorType(err)})

		return err
	}

	s.recordDurationMetricsContext(ctx, duration, operation, statusSuccess)
	s.finishTraceSpan(span, statusSuccess, nil)
	s.logOperation(ctx, logMsgOperation+operation, logAttrDurationMS, s.toMilliseconds(duration))

	return nil
}

// logQueryWithDuration logs SQL statements with execution time at debug level if the logger is configured.
func (s Store) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s Store) logOperation(ctx context.Context, message string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, message, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(message, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s Store) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordErrorMetricsContext records error metrics with context if the collector supports it.
func (s Store) recordErrorMetricsContext(ctx context.Context, operation, errType string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errType,
	}

	if contextualCollector, ok := s.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		s.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// recordDurationMetricsContext records duration metrics with context if the collector supports it.
func (s Store) recordDurationMetricsContext(ctx context.Context, duration time.Duration, operation, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := s.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordRowCount records how many rows a list operation returned.
func (s Store) recordRowCount(ctx context.Context, operation string, rowCount int) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusSuccess,
	}

	if contextualCollector, ok := s.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricRowsReturned, float64(rowCount), labels)
	} else {
		s.metricsCollector.RecordValue(metricRowsReturned, float64(rowCount), labels)
	}
}

// recordConcurrencyConflictMetrics records concurrency conflict metrics if the collector is configured.
func (s Store) recordConcurrencyConflictMetrics(ctx context.Context, operation string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"conflict_type":   "serialization",
	}

	if contextualCollector, ok := s.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricConcurrencyConflicts, labels)
	} else {
		s.metricsCollector.IncrementCounter(metricConcurrencyConflicts, labels)
	}
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (s Store) startTraceSpan(ctx context.Context, operation string) (context.Context, SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{spanAttrOperation: operation})
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (s Store) finishTraceSpan(spanCtx SpanContext, status string, attrs map[string]string) {
	if s.tracingCollector != nil && spanCtx != nil {
		s.tracingCollector.FinishSpan(spanCtx, status, attrs)
	}
}
