package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ansanalytics/internal/infrastructure"
)

const (
	TracerName = "ansanalytics.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer. A nil tracer falls back to the global
// provider and nil metrics record nothing.
func NewOperationTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	if metrics == nil {
		metrics = infrastructure.NoopPipelineMetrics()
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// Metrics returns the pipeline instruments
func (pt *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	return pt.metrics
}

// TraceOperationExecution creates a span for the entire run
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, stepCount int) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.Int("operation.step_count", stepCount),
		),
	)
}

// TraceStageExecution creates a span for one step
func (pt *OperationTracer) TraceStageExecution(ctx context.Context, operationID, stageID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("operation.step.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stageID),
		),
	)
}

// RecordStageCompletion closes out a step span and records its duration
func (pt *OperationTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	pt.metrics.RecordStep(ctx, stageID, duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordOperationCompletion closes out the run span and counts the run
func (pt *OperationTracer) RecordOperationCompletion(ctx context.Context, span trace.Span, duration time.Duration, status OperationStatusValue) {
	span.SetAttributes(
		attribute.String("operation.status", string(status)),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
	)
	pt.metrics.RecordRun(ctx, string(status))

	if status == OperationStatusFailed || status == OperationStatusCancelled {
		span.SetStatus(codes.Error, fmt.Sprintf("operation finished with status: %s", status))
		return
	}
	span.SetStatus(codes.Ok, fmt.Sprintf("operation finished with status: %s", status))
}
