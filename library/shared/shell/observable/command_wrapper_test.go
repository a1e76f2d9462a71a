package observable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/observable"
	"github.com/kapitoshk4/library-service-api/librarystore"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
)

func Test_CommandWrapper_Handle_Success_RecordsMetricsSpanAndLogs(t *testing.T) {
	// arrange
	expectedResult := shell.HandlerResult{RetryAttempts: 1, LastErrorType: "none"}
	handler := newMockCommandHandler("output", expectedResult, nil)
	metricsCollector := NewMetricsCollectorSpy(true)
	tracingCollector := NewTracingCollectorSpy(true)
	logger := NewLoggerSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand, string](
		handler,
		observable.WithCommandMetrics[mockCommand, string](metricsCollector),
		observable.WithCommandTracing[mockCommand, string](tracingCollector),
		observable.WithCommandContextualLogging[mockCommand, string](logger),
	)
	require.NoError(t, err)

	// act
	output, result, err := wrapper.Handle(context.Background(), mockCommand{ID: 7})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, "output", output)
	assert.Equal(t, expectedResult, result)
	assert.Equal(t, []mockCommand{{ID: 7}}, handler.calls)

	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithCommandType("TestCommand").
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.True(t, metricsCollector.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric).
		WithCommandType("TestCommand").
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.Zero(t, metricsCollector.CountCounterRecordsForMetric(shell.CommandHandlerRetriesMetric))

	assert.True(t, tracingCollector.HasSpanRecordForName(shell.SpanNameCommandHandle).
		WithStartAttribute(shell.LogAttrCommandType, "TestCommand").
		WithStatus(shell.StatusSuccess).
		Assert())

	assert.True(t, logger.HasRecord("info", shell.LogMsgCommandStarted))
	assert.True(t, logger.HasRecord("info", shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Idempotent_RecordsIdempotentMetric(t *testing.T) {
	// arrange
	handler := newMockCommandHandler("", shell.HandlerResult{Idempotent: true, RetryAttempts: 1}, nil)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand, string](
		handler,
		observable.WithCommandMetrics[mockCommand, string](metricsCollector),
	)
	require.NoError(t, err)

	// act
	_, result, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerIdempotentMetric).
		WithCommandType("TestCommand").
		Assert())
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithStatus(shell.StatusIdempotent).
		Assert())
}

func Test_CommandWrapper_Handle_WithRetries_RecordsRetryMetrics(t *testing.T) {
	// arrange
	resultWithRetries := shell.HandlerResult{
		RetryAttempts:    3,
		TotalRetryDelay:  15 * time.Millisecond,
		LastErrorType:    "concurrency_conflict",
		RetriesExhausted: true,
	}
	handler := newMockCommandHandler("", resultWithRetries, librarystore.ErrConcurrencyConflict)
	metricsCollector := NewMetricsCollectorSpy(true)

	wrapper, err := observable.NewCommandWrapper[mockCommand, string](
		handler,
		observable.WithCommandMetrics[mockCommand, string](metricsCollector),
	)
	require.NoError(t, err)

	// act
	_, _, err = wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.ErrorIs(t, err, librarystore.ErrConcurrencyConflict)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).
		WithCommandType("TestCommand").
		WithLabel("attempt_number", "2").
		WithErrorType("concurrency_conflict").
		Assert())
	assert.True(t, metricsCollector.HasDurationRecordForMetric(shell.CommandHandlerRetryDelayMetric).
		WithCommandType("TestCommand").
		Assert())
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerMaxRetriesReachedMetric).
		WithCommandType("TestCommand").
		Assert())
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithStatus(shell.StatusConcurrencyConflict).
		Assert())
}

func Test_CommandWrapper_Handle_Errors_AreClassified(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus string
		expectedLevel  string
	}{
		{
			name:           "business error",
			err:            errors.Join(core.ErrOutOfStock, errors.New("inventory 0")),
			expectedStatus: shell.StatusBusinessError,
			expectedLevel:  "info",
		},
		{
			name:           "provider unavailable",
			err:            errors.Join(core.ErrProviderUnavailable, errors.New("502")),
			expectedStatus: shell.StatusProviderUnavailable,
			expectedLevel:  "error",
		},
		{
			name:           "canceled",
			err:            context.Canceled,
			expectedStatus: shell.StatusCanceled,
			expectedLevel:  "error",
		},
		{
			name:           "timeout",
			err:            context.DeadlineExceeded,
			expectedStatus: shell.StatusTimeout,
			expectedLevel:  "error",
		},
		{
			name:           "technical error",
			err:            errors.New("connection reset"),
			expectedStatus: shell.StatusError,
			expectedLevel:  "error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			handler := newMockCommandHandler("", shell.HandlerResult{RetryAttempts: 1}, tc.err)
			metricsCollector := NewMetricsCollectorSpy(true)
			tracingCollector := NewTracingCollectorSpy(true)
			logger := NewLoggerSpy(true)

			wrapper, err := observable.NewCommandWrapper[mockCommand, string](
				handler,
				observable.WithCommandMetrics[mockCommand, string](metricsCollector),
				observable.WithCommandTracing[mockCommand, string](tracingCollector),
				observable.WithCommandLogging[mockCommand, string](logger),
			)
			require.NoError(t, err)

			// act
			_, _, err = wrapper.Handle(context.Background(), mockCommand{})

			// assert
			assert.Equal(t, tc.err, err)
			assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
				WithStatus(tc.expectedStatus).
				Assert())
			assert.True(t, tracingCollector.HasSpanRecordForName(shell.SpanNameCommandHandle).
				WithStatus(tc.expectedStatus).
				WithEndAttribute(shell.LogAttrError, tc.err.Error()).
				Assert())
			assert.True(t, logger.HasRecord(tc.expectedLevel, shell.LogMsgCommandFailed))
		})
	}
}

func Test_CommandWrapper_Handle_WithoutObservability_DelegatesOnly(t *testing.T) {
	// arrange
	handler := newMockCommandHandler("output", shell.HandlerResult{RetryAttempts: 1}, nil)

	wrapper, err := observable.NewCommandWrapper[mockCommand, string](handler)
	require.NoError(t, err)

	// act
	output, _, err := wrapper.Handle(context.Background(), mockCommand{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, "output", output)
	assert.Len(t, handler.calls, 1)
}

type mockCommand struct {
	ID int64
}

func (mockCommand) CommandType() string {
	return "TestCommand"
}

type mockCommandHandler struct {
	output string
	result shell.HandlerResult
	err    error
	calls  []mockCommand
}

func newMockCommandHandler(output string, result shell.HandlerResult, err error) *mockCommandHandler {
	return &mockCommandHandler{output: output, result: result, err: err}
}

func (h *mockCommandHandler) Handle(_ context.Context, command mockCommand) (string, shell.HandlerResult, error) {
	h.calls = append(h.calls, command)

	return h.output, h.result, h.err
}
