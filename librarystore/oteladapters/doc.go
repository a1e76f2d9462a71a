// Package oteladapters connects the librarystore observability interfaces to OpenTelemetry.
//
// MetricsCollector records durations as histograms, counters as Int64Counter and values as gauges.
// TracingCollector wraps a trace.Tracer. Both are safe for concurrent use.
package oteladapters
