package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ansanalytics/internal/infrastructure"
)

// Manager orchestrates run execution
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   *OperationTracer
}

// NewManager creates a run manager. Nil arguments get defaults.
func NewManager(registry *Registry, config *Config, logger *slog.Logger, tracer *OperationTracer) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = NewOperationTracer(nil, nil)
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger.With(slog.String("component", "operation_manager")),
		tracer:   tracer,
	}
}

// RegisterStage registers a step with the manager
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// Execute runs every registered step in order. The returned error is nil on
// success, wraps ErrNoMatchingRows when the run halted for lack of data, and
// otherwise describes the failing step. The response is always non-nil.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	state := NewOperationState(req.ID)
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	steps := m.registry.List()
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, len(steps))
	defer span.End()

	m.logOperationStart(ctx, req.ID, len(steps))
	state.Start()

	err := m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case errors.Is(err, ErrNoMatchingRows):
		state.Halt(err)
		m.logger.WarnContext(ctx, "operation halted: no matching rows, nothing written",
			slog.String("operation_id", req.ID))
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		m.logOperationError(ctx, req.ID, err)
	default:
		state.Fail(err)
		m.logOperationError(ctx, req.ID, err)
	}

	m.tracer.RecordOperationCompletion(ctx, span, state.Duration(), state.GetStatus())
	m.logOperationComplete(ctx, req.ID, state.Duration(), state.GetStatus())

	return m.createResponse(state), err
}

// executeSequential executes steps one by one, skipping the rest after the
// first error.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if ctx.Err() != nil {
			m.logger.WarnContext(ctx, "operation cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID())
		}

		m.logger.InfoContext(ctx, "executing step",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStage(ctx, state, step); err != nil {
			if !errors.Is(err, ErrNoMatchingRows) {
				m.logStageError(ctx, state.ID, step.ID(), err)
			}
			m.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s did not complete", step.ID()))
			return err
		}
	}
	return nil
}

// executeStage runs one step with its timeout and retry policy
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := step.Validate(state); err != nil {
		stepState.Fail(err)
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retryConfig := m.config.RetryConfig
	if retryConfig.MaxAttempts < 1 {
		retryConfig.MaxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		m.logStageStart(ctx, state.ID, step.ID())
		stepState.Start()

		spanCtx, span := m.tracer.TraceStageExecution(stageCtx, state.ID, step.ID())
		start := time.Now()
		err := step.Execute(spanCtx, state)
		duration := time.Since(start)
		m.tracer.RecordStageCompletion(spanCtx, span, step.ID(), duration, err)
		span.End()

		if err == nil {
			stepState.Complete()
			m.logStageComplete(ctx, state.ID, step.ID(), duration)
			return nil
		}

		if errors.Is(err, ErrNoMatchingRows) {
			stepState.Skip(err.Error())
			return err
		}

		if errors.Is(err, context.DeadlineExceeded) && stageCtx.Err() != nil && ctx.Err() == nil {
			timeoutErr := NewTimeoutError(step.ID(), timeout.String())
			timeoutErr.Cause = err
			stepState.Fail(timeoutErr)
			return timeoutErr
		}

		if ctx.Err() != nil {
			cancelErr := NewCancellationError(step.ID())
			cancelErr.Cause = err
			stepState.Fail(cancelErr)
			return cancelErr
		}

		if !IsRetryable(err) || attempt >= retryConfig.MaxAttempts {
			stepState.Fail(err)
			return WrapError(err, step.ID(), "step execution failed")
		}

		delay := m.calculateRetryDelay(attempt, retryConfig)
		m.logger.WarnContext(ctx, "step retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retryConfig.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-stageCtx.Done():
			timeoutErr := NewTimeoutError(step.ID(), timeout.String())
			stepState.Fail(timeoutErr)
			return timeoutErr
		}
	}
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if st := state.GetStage(step.ID()); st != nil && st.GetStatus() == StepStatusPending {
			st.Skip(reason)
		}
	}
}

// calculateRetryDelay grows the delay per attempt up to MaxDelay
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
		Summary:  state.Summary(),
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}
