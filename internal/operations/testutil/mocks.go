package testutil

import (
	"context"
	"errors"
	"sync"

	"ansanalytics/internal/operations"
)

// MockStage is a configurable implementation of operations.Step
type MockStage struct {
	IDValue   string
	NameValue string

	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	mu           sync.Mutex
	executeCalls int
}

// ID returns the step ID
func (m *MockStage) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStage) Name() string {
	return m.NameValue
}

// Execute runs ExecuteFunc and counts the call
func (m *MockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.executeCalls++
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs ValidateFunc
func (m *MockStage) Validate(state *operations.OperationState) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// ExecuteCalls returns how many times Execute ran
func (m *MockStage) ExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeCalls
}

// CreateSuccessfulStage returns a step that always succeeds
func CreateSuccessfulStage(id, name string) *MockStage {
	return &MockStage{IDValue: id, NameValue: name}
}

// CreateFailingStage returns a step that always fails with message
func CreateFailingStage(id, name, message string) *MockStage {
	return &MockStage{
		IDValue:   id,
		NameValue: name,
		ExecuteFunc: func(context.Context, *operations.OperationState) error {
			return errors.New(message)
		},
	}
}

// CreateBlockingStage returns a step that waits for ctx to end
func CreateBlockingStage(id, name string) *MockStage {
	return &MockStage{
		IDValue:   id,
		NameValue: name,
		ExecuteFunc: func(ctx context.Context, _ *operations.OperationState) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
}
