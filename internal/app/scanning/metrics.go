package scanning

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WorkerMetrics defines metrics operations needed by the scan worker.
type WorkerMetrics interface {
	// Item metrics
	IncItemsProcessed(ctx context.Context, disposition string)
	IncItemErrors(ctx context.Context)

	// Scan metrics
	ObserveFindings(ctx context.Context, count int)
	ObserveScanDuration(ctx context.Context, duration time.Duration)

	// Queue metrics
	IncPollErrors(ctx context.Context)
}

// workerMetrics implements WorkerMetrics.
type workerMetrics struct {
	itemsProcessed  metric.Int64Counter
	itemErrors      metric.Int64Counter
	findingsPerUnit metric.Int64Histogram
	scanDuration    metric.Float64Histogram
	pollErrors      metric.Int64Counter
}

const namespace = "scan_worker"

// NewWorkerMetrics creates a new worker metrics instance.
func NewWorkerMetrics(mp metric.MeterProvider) (*workerMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(workerMetrics)
	var err error

	if m.itemsProcessed, err = meter.Int64Counter(
		"items_processed_total",
		metric.WithDescription("Total number of work items processed"),
	); err != nil {
		return nil, err
	}

	if m.itemErrors, err = meter.Int64Counter(
		"item_errors_total",
		metric.WithDescription("Total number of work items that hit a transient error"),
	); err != nil {
		return nil, err
	}

	if m.findingsPerUnit, err = meter.Int64Histogram(
		"findings_per_unit",
		metric.WithDescription("Number of findings recorded per scanned unit"),
	); err != nil {
		return nil, err
	}

	if m.scanDuration, err = meter.Float64Histogram(
		"scan_duration_seconds",
		metric.WithDescription("Time taken to scan one unit"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.pollErrors, err = meter.Int64Counter(
		"poll_errors_total",
		metric.WithDescription("Total number of queue polling failures"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *workerMetrics) IncItemsProcessed(ctx context.Context, disposition string) {
	m.itemsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("disposition", disposition)))
}

func (m *workerMetrics) IncItemErrors(ctx context.Context) { m.itemErrors.Add(ctx, 1) }

func (m *workerMetrics) ObserveFindings(ctx context.Context, count int) {
	m.findingsPerUnit.Record(ctx, int64(count))
}

func (m *workerMetrics) ObserveScanDuration(ctx context.Context, duration time.Duration) {
	m.scanDuration.Record(ctx, duration.Seconds())
}

func (m *workerMetrics) IncPollErrors(ctx context.Context) { m.pollErrors.Add(ctx, 1) }

// NoopWorkerMetrics discards all measurements. Used by tests.
type NoopWorkerMetrics struct{}

func (NoopWorkerMetrics) IncItemsProcessed(context.Context, string)          {}
func (NoopWorkerMetrics) IncItemErrors(context.Context)                      {}
func (NoopWorkerMetrics) ObserveFindings(context.Context, int)               {}
func (NoopWorkerMetrics) ObserveScanDuration(context.Context, time.Duration) {}
func (NoopWorkerMetrics) IncPollErrors(context.Context)                      {}
