package observable_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/observable"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
)

func Test_QueryWrapper_Handle_Success(t *testing.T) {
	// arrange
	metricsCollector := NewMetricsCollectorSpy(true)
	tracingCollector := NewTracingCollectorSpy(true)
	logger := NewLoggerSpy(true)

	wrapper, err := observable.NewQueryWrapper[mockQuery, []int](
		mockQueryHandler{result: []int{1, 2}},
		observable.WithQueryMetrics[mockQuery, []int](metricsCollector),
		observable.WithQueryTracing[mockQuery, []int](tracingCollector),
		observable.WithQueryContextualLogging[mockQuery, []int](logger),
	)
	require.NoError(t, err)

	// act
	result, err := wrapper.Handle(context.Background(), mockQuery{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.QueryHandlerCallsMetric).
		WithLabel(shell.LogAttrQueryType, "TestQuery").
		WithStatus(shell.StatusSuccess).
		Assert())
	assert.True(t, metricsCollector.HasDurationRecordForMetric(shell.QueryHandlerDurationMetric).
		WithLabel(shell.LogAttrQueryType, "TestQuery").
		Assert())
	assert.True(t, tracingCollector.HasSpanRecordForName(shell.SpanNameQueryHandle).
		WithStartAttribute(shell.LogAttrQueryType, "TestQuery").
		Assert())
	assert.True(t, logger.HasRecord("info", shell.LogMsgQueryCompleted))
}

func Test_QueryWrapper_Handle_Error(t *testing.T) {
	// arrange
	queryErr := errors.New("database unavailable")
	metricsCollector := NewMetricsCollectorSpy(true)
	logger := NewLoggerSpy(true)

	wrapper, err := observable.NewQueryWrapper[mockQuery, []int](
		mockQueryHandler{err: queryErr},
		observable.WithQueryMetrics[mockQuery, []int](metricsCollector),
		observable.WithQueryLogging[mockQuery, []int](logger),
	)
	require.NoError(t, err)

	// act
	_, err = wrapper.Handle(context.Background(), mockQuery{})

	// assert
	assert.ErrorIs(t, err, queryErr)
	assert.True(t, metricsCollector.HasCounterRecordForMetric(shell.QueryHandlerCallsMetric).
		WithStatus(shell.StatusError).
		Assert())
	assert.True(t, logger.HasRecord("error", shell.LogMsgQueryFailed))
}

type mockQuery struct{}

func (mockQuery) QueryType() string {
	return "TestQuery"
}

type mockQueryHandler struct {
	result []int
	err    error
}

func (h mockQueryHandler) Handle(_ context.Context, _ mockQuery) ([]int, error) {
	return h.result, h.err
}
