package operations

import (
	"sync"
	"time"

	"ansanalytics/internal/exporter"
	"ansanalytics/pkg/contracts/domain"
)

// OperationStatusValue represents the overall run status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusHalted    OperationStatusValue = "halted"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// Batch carries the data handed from one step to the next
type Batch struct {
	Rows       []domain.RawRow
	Items      []domain.LineItem
	Joined     domain.JoinResult
	Aggregates []domain.Aggregate
	Outputs    map[string]exporter.WriteOutcome
}

// OperationState represents the complete state of a run
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	// Batch is written by each step in turn; steps never run concurrently
	Batch *Batch `json:"-"`

	Config map[string]interface{} `json:"config"`

	Error error `json:"-"`
}

// NewOperationState creates a new run state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Batch:     &Batch{Outputs: make(map[string]exporter.WriteOutcome)},
		Config:    make(map[string]interface{}),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.finish(OperationStatusCompleted, nil)
}

// Halt marks the run as stopped early without failure
func (p *OperationState) Halt(reason error) {
	p.finish(OperationStatusHalted, reason)
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.finish(OperationStatusFailed, err)
}

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) {
	p.finish(OperationStatusCancelled, err)
}

func (p *OperationState) finish(status OperationStatusValue, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = status
	p.Error = err
}

// GetStatus returns the current run status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage updates the state of a specific step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// GetConfig retrieves a configuration value
func (p *OperationState) GetConfig(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Config[key]
	return val, ok
}

// SetConfig sets a configuration value
func (p *OperationState) SetConfig(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Config[key] = value
}

// Duration returns the duration of the run
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// HasFailures returns true if any step has failed
func (p *OperationState) HasFailures() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.Steps {
		if step.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}

// Summary condenses the batch into counts
func (p *OperationState) Summary() RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b := p.Batch
	summary := RunSummary{
		RowsExtracted: len(b.Rows),
		LineItems:     len(b.Items),
		Enriched:      b.Joined.Enriched,
		Aggregates:    len(b.Aggregates),
		Outputs:       make(map[string]exporter.WriteOutcome, len(b.Outputs)),
	}
	for _, rec := range b.Joined.Records {
		switch rec.Enrichment {
		case domain.EnrichmentMatched:
			summary.Matched++
		case domain.EnrichmentNotFound:
			summary.NotFound++
		}
	}
	for name, outcome := range b.Outputs {
		summary.Outputs[name] = outcome
	}
	return summary
}
