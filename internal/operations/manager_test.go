package operations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/operations"
	"ansanalytics/internal/operations/testutil"
	sharedtestutil "ansanalytics/internal/shared/testutil"
)

func newManager(t *testing.T, config *operations.Config, steps ...operations.Step) *operations.Manager {
	t.Helper()

	logger, _ := sharedtestutil.NewTestLogger(t)
	manager := operations.NewManager(nil, config, logger, nil)
	for _, step := range steps {
		require.NoError(t, manager.RegisterStage(step))
	}
	return manager
}

func TestNewManager_Defaults(t *testing.T) {
	manager := operations.NewManager(nil, nil, nil, nil)
	require.NoError(t, manager.RegisterStage(testutil.CreateSuccessfulStage("a", "A")))

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
}

func TestManager_ExecuteSequential(t *testing.T) {
	var order []string
	record := func(id string) *testutil.MockStage {
		return &testutil.MockStage{
			IDValue:   id,
			NameValue: id,
			ExecuteFunc: func(context.Context, *operations.OperationState) error {
				order = append(order, id)
				return nil
			},
		}
	}

	manager := newManager(t, nil, record("a"), record("b"), record("c"))

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.NotEmpty(t, resp.ID)
	assert.Empty(t, resp.Error)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, operations.StepStatusCompleted, resp.Steps[id].Status)
	}
}

func TestManager_StopsAtFirstFailure(t *testing.T) {
	first := testutil.CreateSuccessfulStage("a", "A")
	failing := testutil.CreateFailingStage("b", "B", "boom")
	last := testutil.CreateSuccessfulStage("c", "C")

	manager := newManager(t, nil, first, failing, last)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))

	assert.Equal(t, "run-1", resp.ID)
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Equal(t, operations.StepStatusFailed, resp.Steps["b"].Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["c"].Status)
	assert.Equal(t, 0, last.ExecuteCalls())
}

func TestManager_NoMatchingRowsHalts(t *testing.T) {
	extract := &testutil.MockStage{
		IDValue: operations.StageIDExtract,
		ExecuteFunc: func(context.Context, *operations.OperationState) error {
			return operations.ErrNoMatchingRows
		},
	}
	write := testutil.CreateSuccessfulStage(operations.StageIDWrite, "write")

	manager := newManager(t, nil, extract, write)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, operations.ErrNoMatchingRows)
	assert.Equal(t, operations.OperationStatusHalted, resp.Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps[operations.StageIDExtract].Status)
	assert.Equal(t, 0, write.ExecuteCalls())
}

func TestManager_ValidationFailure(t *testing.T) {
	step := &testutil.MockStage{
		IDValue: "v",
		ValidateFunc: func(*operations.OperationState) error {
			return errors.New("missing input")
		},
	}

	manager := newManager(t, nil, step)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Equal(t, 0, step.ExecuteCalls())
}

func TestManager_StepTimeout(t *testing.T) {
	config := operations.NewConfig(operations.WithStageTimeout("slow", 20*time.Millisecond))

	manager := newManager(t, config, testutil.CreateBlockingStage("slow", "Slow"))

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
}

func TestManager_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := testutil.CreateSuccessfulStage("a", "A")
	manager := newManager(t, nil, step)

	resp, err := manager.Execute(ctx, operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusCancelled, resp.Status)
	assert.Equal(t, 0, step.ExecuteCalls())
}

func TestManager_RetriesRetryableErrors(t *testing.T) {
	attempts := 0
	step := &testutil.MockStage{
		IDValue: "flaky",
		ExecuteFunc: func(context.Context, *operations.OperationState) error {
			attempts++
			if attempts < 3 {
				return operations.NewExecutionError("flaky", errors.New("transient"), true)
			}
			return nil
		},
	}

	config := operations.NewConfig(operations.WithRetry(operations.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}))
	manager := newManager(t, config, step)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
}

func TestManager_ParametersReachState(t *testing.T) {
	var seen interface{}
	step := &testutil.MockStage{
		IDValue: "p",
		ExecuteFunc: func(_ context.Context, state *operations.OperationState) error {
			seen, _ = state.GetConfig("source")
			return nil
		},
	}

	manager := newManager(t, nil, step)
	_, err := manager.Execute(context.Background(), operations.OperationRequest{
		Parameters: map[string]interface{}{"source": "cli"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cli", seen)
}
