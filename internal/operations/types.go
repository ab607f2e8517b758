package operations

import (
	"time"

	"ansanalytics/internal/exporter"
)

// Pipeline step identifiers
const (
	StageIDExtract   = "extract"
	StageIDNormalize = "normalize"
	StageIDJoin      = "join"
	StageIDAggregate = "aggregate"
	StageIDWrite     = "write"
)

// Pipeline step names
const (
	StageNameExtract   = "Archive Extraction"
	StageNameNormalize = "Field Normalization"
	StageNameJoin      = "Registry Join"
	StageNameAggregate = "Aggregation"
	StageNameWrite     = "Persistence"
)

// Default timeouts
const (
	DefaultStageTimeout     = 30 * time.Minute
	DefaultExtractTimeout   = 30 * time.Minute
	DefaultNormalizeTimeout = 10 * time.Minute
	DefaultJoinTimeout      = 10 * time.Minute
	DefaultAggregateTimeout = 5 * time.Minute
	DefaultWriteTimeout     = 5 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration. Pipeline steps are
// deterministic over local files, so a single attempt is the default.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute a run
type OperationRequest struct {
	ID         string                 `json:"id"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// RunSummary condenses what a run produced
type RunSummary struct {
	RowsExtracted int                              `json:"rows_extracted"`
	LineItems     int                              `json:"line_items"`
	Enriched      bool                             `json:"enriched"`
	Matched       int                              `json:"matched"`
	NotFound      int                              `json:"not_found"`
	Aggregates    int                              `json:"aggregates"`
	Outputs       map[string]exporter.WriteOutcome `json:"outputs"`
}

// OperationResponse represents the response from a run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Summary  RunSummary            `json:"summary"`
	Error    string                `json:"error,omitempty"`
}
