package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// PipelineMetrics holds the counters recorded by the ETL stages, the
// crawler and the loader.
type PipelineMetrics struct {
	RunsTotal            metric.Int64Counter
	StepDuration         metric.Float64Histogram
	RowsExtracted        metric.Int64Counter
	RowsNormalized       metric.Int64Counter
	JoinMatches          metric.Int64Counter
	JoinMisses           metric.Int64Counter
	RegistryDegradations metric.Int64Counter
	FilesWritten         metric.Int64Counter
	FilesSkipped         metric.Int64Counter
	ArchivesDownloaded   metric.Int64Counter
	DownloadFailures     metric.Int64Counter
	RowsLoaded           metric.Int64Counter
	RowsRejected         metric.Int64Counter
}

// HTTPMetrics holds the request metrics recorded by the API middleware
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RunsTotal, "pipeline_runs_total", "Total number of pipeline runs by outcome"},
		{&m.RowsExtracted, "pipeline_rows_extracted_total", "Rows kept by the archive filter"},
		{&m.RowsNormalized, "pipeline_rows_normalized_total", "Line items produced by the normalizer"},
		{&m.JoinMatches, "pipeline_join_matches_total", "Line items matched against the registry"},
		{&m.JoinMisses, "pipeline_join_misses_total", "Line items with no registry match"},
		{&m.RegistryDegradations, "pipeline_registry_degradations_total", "Runs that continued without registry enrichment"},
		{&m.FilesWritten, "pipeline_files_written_total", "Output files written"},
		{&m.FilesSkipped, "pipeline_files_skipped_total", "Output files skipped after a write failure"},
		{&m.ArchivesDownloaded, "crawler_archives_downloaded_total", "Disclosure archives downloaded"},
		{&m.DownloadFailures, "crawler_download_failures_total", "Disclosure archive downloads that failed"},
		{&m.RowsLoaded, "loader_rows_loaded_total", "Rows inserted by the loader"},
		{&m.RowsRejected, "loader_rows_rejected_total", "Rows dropped by the loader"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.StepDuration, err = meter.Float64Histogram(
		"pipeline_step_duration_seconds",
		metric.WithDescription("Pipeline step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// NoopPipelineMetrics returns instruments that record nothing
func NoopPipelineMetrics() *PipelineMetrics {
	m, _ := NewPipelineMetrics(metricnoop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordStep records the duration and outcome of one pipeline step
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step.id", stepID),
		attribute.String("status", status),
	))
}

// RecordRun counts a finished pipeline run
func (m *PipelineMetrics) RecordRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Add increments counter by n when both are usable
func (m *PipelineMetrics) Add(ctx context.Context, counter metric.Int64Counter, n int, attrs ...attribute.KeyValue) {
	if m == nil || counter == nil || n <= 0 {
		return
	}
	counter.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// NewHTTPMetrics creates the HTTP instruments on meter
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		RequestsTotal:   requestsTotal,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
	}, nil
}
