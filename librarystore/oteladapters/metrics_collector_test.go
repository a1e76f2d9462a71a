package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kapitoshk4/library-service-api/librarystore/oteladapters"
)

func newCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func Test_MetricsCollector_RecordDuration_RecordsSecondsWithLabels(t *testing.T) {
	// arrange
	collector, reader := newCollector()

	// act
	collector.RecordDuration(
		"librarystore_operation_duration_seconds",
		150*time.Millisecond,
		map[string]string{"operation": "reserve_copy", "status": "success"},
	)

	// assert
	histogram := findHistogramMetric(t, collect(t, reader), "librarystore_operation_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expected := attribute.NewSet(
		attribute.String("operation", "reserve_copy"),
		attribute.String("status", "success"),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounterContext_AddsOnePerCall(t *testing.T) {
	// arrange
	collector, reader := newCollector()
	labels := map[string]string{"operation": "insert_payment", "error_type": "unique_violation"}

	// act
	collector.IncrementCounterContext(context.Background(), "librarystore_database_errors_total", labels)
	collector.IncrementCounter("librarystore_database_errors_total", labels)
	collector.IncrementCounter("librarystore_database_errors_total", labels)

	// assert
	counter := findCounterMetric(t, collect(t, reader), "librarystore_database_errors_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(3), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// arrange
	collector, reader := newCollector()
	labels := map[string]string{"operation": "list_pending_payments"}

	// act
	collector.RecordValue("librarystore_rows_returned", 7, labels)
	collector.RecordValueContext(context.Background(), "librarystore_rows_returned", 3, labels)

	// assert
	gauge := findGaugeMetric(t, collect(t, reader), "librarystore_rows_returned")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 3.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_ConcurrentUse_CountsEveryIncrement(t *testing.T) {
	// arrange
	collector, reader := newCollector()
	workers := 20

	// act
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			collector.IncrementCounter("borrowings_created_total", nil)
		}()
	}

	wg.Wait()

	// assert
	counter := findCounterMetric(t, collect(t, reader), "borrowings_created_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(workers), counter.DataPoints[0].Value)
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Histogram[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				return &h
			}
		}
	}

	t.Fatalf("histogram metric %s not found", name)

	return nil
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Sum[int64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if c, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				return &c
			}
		}
	}

	t.Fatalf("counter metric %s not found", name)

	return nil
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Gauge[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return &g
			}
		}
	}

	t.Fatalf("gauge metric %s not found", name)

	return nil
}
