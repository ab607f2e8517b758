package operations

import (
	"context"
	"log/slog"
	"time"
)

func (m *Manager) logOperationStart(ctx context.Context, operationID string, stepCount int) {
	m.logger.InfoContext(ctx, "operation start",
		slog.String("operation_id", operationID),
		slog.Int("step_count", stepCount))
}

func (m *Manager) logOperationComplete(ctx context.Context, operationID string, duration time.Duration, status OperationStatusValue) {
	m.logger.InfoContext(ctx, "operation complete",
		slog.String("operation_id", operationID),
		slog.String("status", string(status)),
		slog.Duration("duration", duration))
}

func (m *Manager) logOperationError(ctx context.Context, operationID string, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	m.logger.ErrorContext(ctx, "operation error",
		slog.String("operation_id", operationID),
		slog.String("error", errorMsg))
}

func (m *Manager) logStageStart(ctx context.Context, operationID, stageID string) {
	m.logger.DebugContext(ctx, "step start",
		slog.String("operation_id", operationID),
		slog.String("step", stageID))
}

func (m *Manager) logStageComplete(ctx context.Context, operationID, stageID string, duration time.Duration) {
	m.logger.InfoContext(ctx, "step complete",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.Duration("duration", duration))
}

func (m *Manager) logStageError(ctx context.Context, operationID, stageID string, err error) {
	m.logger.ErrorContext(ctx, "step error",
		slog.String("operation_id", operationID),
		slog.String("step", stageID),
		slog.String("error", err.Error()))
}
