// Package observe provides application-wide observability primitives for
// supportctx: OpenTelemetry metrics, tracing helpers, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all supportctx metrics.
const meterName = "github.com/mkessler-dev/supportctx"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ToolCallDuration tracks MCP tool execution latency. Use with attribute:
	//   attribute.String("tool", ...)
	ToolCallDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// LookupMisses counts failed lookups. Use with attribute:
	//   attribute.String("kind", ...)
	LookupMisses metric.Int64Counter

	// DatasetRecords reports the loaded record count per record set. Recorded
	// once after the startup load. Use with attribute:
	//   attribute.String("set", ...)
	DatasetRecords metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time on the ops
	// server. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Tool
// calls resolve against an in-memory snapshot, so the buckets skew small.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolCallDuration, err = m.Float64Histogram("supportctx.tool.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("supportctx.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.LookupMisses, err = m.Int64Counter("supportctx.lookup.misses",
		metric.WithDescription("Total failed lookups by kind."),
	); err != nil {
		return nil, err
	}
	if met.DatasetRecords, err = m.Int64UpDownCounter("supportctx.dataset.records",
		metric.WithDescription("Loaded dataset record counts by record set."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("supportctx.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordToolCall records one tool invocation with its outcome and latency.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, elapsed time.Duration) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
	m.ToolCallDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}

// RecordLookupMiss records one failed lookup of the given kind.
func (m *Metrics) RecordLookupMiss(ctx context.Context, kind string) {
	m.LookupMisses.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}

// RecordDatasetCounts publishes the loaded record counts. Called once after
// the startup load.
func (m *Metrics) RecordDatasetCounts(ctx context.Context, customers, tickets, rules int) {
	m.DatasetRecords.Add(ctx, int64(customers),
		metric.WithAttributes(attribute.String("set", "customers")))
	m.DatasetRecords.Add(ctx, int64(tickets),
		metric.WithAttributes(attribute.String("set", "tickets")))
	m.DatasetRecords.Add(ctx, int64(rules),
		metric.WithAttributes(attribute.String("set", "escalation_rules")))
}
