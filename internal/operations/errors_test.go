package operations_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ansanalytics/internal/operations"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *operations.OperationError
		want string
	}{
		{"with step", operations.NewValidationError("extract", "no dir"), "[validation] extract: no dir"},
		{"fatal", operations.NewFatalError("state missing", nil), "[fatal] state missing"},
		{"with cause", operations.NewExecutionError("join", errors.New("io"), false), "[execution] join: step execution failed: io"},
		{"nil", nil, "unknown operation error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, operations.WrapError(nil, "x", "msg"))

	cause := errors.New("disk full")
	wrapped := operations.WrapError(cause, "write", "step execution failed")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(wrapped))

	timeout := operations.NewTimeoutError("", "1s")
	rewrapped := operations.WrapError(fmt.Errorf("outer: %w", timeout), "join", "ignored")
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(rewrapped))
	assert.Equal(t, "join", timeout.Step)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, operations.IsRetryable(nil))
	assert.False(t, operations.IsRetryable(errors.New("plain")))
	assert.True(t, operations.IsRetryable(operations.NewExecutionError("x", nil, true)))
	assert.False(t, operations.IsRetryable(operations.NewCancellationError("x")))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, operations.ErrorType(""), operations.GetErrorType(nil))
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(errors.New("x")))
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(operations.NewCancellationError("x")))
}
