package operations_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/exporter"
	"ansanalytics/internal/operations"
	"ansanalytics/pkg/contracts/domain"
)

func TestStepState_Lifecycle(t *testing.T) {
	st := operations.NewStepState("extract", "Extract")
	assert.Equal(t, operations.StepStatusPending, st.GetStatus())
	assert.Zero(t, st.Duration())

	st.Start()
	assert.Equal(t, operations.StepStatusActive, st.GetStatus())
	require.NotNil(t, st.StartTime)

	time.Sleep(2 * time.Millisecond)
	st.Complete()
	assert.Equal(t, operations.StepStatusCompleted, st.GetStatus())
	assert.Positive(t, st.Duration())

	st.Fail(errors.New("bad"))
	assert.Equal(t, operations.StepStatusFailed, st.GetStatus())
	assert.Equal(t, "bad", st.Message)

	st.Skip("not needed")
	assert.Equal(t, operations.StepStatusSkipped, st.GetStatus())
	assert.Equal(t, "not needed", st.Message)
}

func TestOperationState_Transitions(t *testing.T) {
	state := operations.NewOperationState("run")
	assert.Equal(t, operations.OperationStatusPending, state.GetStatus())
	require.NotNil(t, state.Batch)

	state.Start()
	assert.Equal(t, operations.OperationStatusRunning, state.GetStatus())

	state.Halt(operations.ErrNoMatchingRows)
	assert.Equal(t, operations.OperationStatusHalted, state.GetStatus())
	assert.ErrorIs(t, state.Error, operations.ErrNoMatchingRows)
	assert.NotNil(t, state.EndTime)

	state.Fail(errors.New("x"))
	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())
}

func TestOperationState_HasFailures(t *testing.T) {
	state := operations.NewOperationState("run")
	a := operations.NewStepState("a", "A")
	state.SetStage("a", a)
	assert.False(t, state.HasFailures())

	a.Fail(errors.New("x"))
	assert.True(t, state.HasFailures())
	assert.Same(t, a, state.GetStage("a"))
}

func TestOperationState_Summary(t *testing.T) {
	state := operations.NewOperationState("run")
	state.Batch.Rows = make([]domain.RawRow, 3)
	state.Batch.Items = make([]domain.LineItem, 3)
	state.Batch.Joined = domain.JoinResult{Enriched: true, Records: []domain.JoinedRecord{
		{Enrichment: domain.EnrichmentMatched},
		{Enrichment: domain.EnrichmentNotFound},
		{Enrichment: domain.EnrichmentMatched},
	}}
	state.Batch.Aggregates = make([]domain.Aggregate, 2)
	state.Batch.Outputs["a.csv"] = exporter.SkippedError

	summary := state.Summary()
	assert.Equal(t, 3, summary.RowsExtracted)
	assert.Equal(t, 3, summary.LineItems)
	assert.True(t, summary.Enriched)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 2, summary.Aggregates)
	assert.Equal(t, exporter.SkippedError, summary.Outputs["a.csv"])
}
