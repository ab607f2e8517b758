package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDContextKey holds the run or request ID that every log line carries
const TraceIDContextKey contextKey = "trace_id"

// WithTraceID returns ctx carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, or ""
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIDContextKey).(string)
	return id
}

// EnsureTraceID keeps an existing trace ID or stores a fresh UUID
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}
