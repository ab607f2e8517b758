package operations

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"ansanalytics/internal/exporter"
	"ansanalytics/internal/infrastructure"
	"ansanalytics/pkg/contracts/domain"
)

// RowExtractor reads matching rows from a directory of archives
type RowExtractor interface {
	ExtractDir(ctx context.Context, dir string) ([]domain.RawRow, error)
}

// LineNormalizer turns raw rows into line items
type LineNormalizer interface {
	Normalize(ctx context.Context, rows []domain.RawRow) ([]domain.LineItem, error)
}

// RegistryJoiner enriches line items with registry data
type RegistryJoiner interface {
	Join(ctx context.Context, items []domain.LineItem) domain.JoinResult
}

// ExpenseAggregator rolls joined records up per operator and region
type ExpenseAggregator interface {
	Aggregate(ctx context.Context, result domain.JoinResult) []domain.Aggregate
}

// TableWriter persists a table and reports the outcome
type TableWriter interface {
	Persist(ctx context.Context, path string, table exporter.Table) exporter.WriteOutcome
}

// StageDependencies wires the pipeline components into the steps
type StageDependencies struct {
	Extractor  RowExtractor
	Normalizer LineNormalizer
	Joiner     RegistryJoiner
	Aggregator ExpenseAggregator
	Writer     TableWriter

	DownloadsDir  string
	DetailPath    string
	AggregatePath string

	Metrics *infrastructure.PipelineMetrics
	Logger  *slog.Logger
}

// NewPipelineRegistry registers the five pipeline steps in execution order
func NewPipelineRegistry(deps StageDependencies) (*Registry, error) {
	if deps.Extractor == nil || deps.Normalizer == nil || deps.Joiner == nil ||
		deps.Aggregator == nil || deps.Writer == nil {
		return nil, fmt.Errorf("pipeline dependencies are incomplete")
	}
	if deps.Metrics == nil {
		deps.Metrics = infrastructure.NoopPipelineMetrics()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	registry := NewRegistry()
	for _, step := range []Step{
		NewExtractStage(deps.Extractor, deps.DownloadsDir, deps.Metrics),
		NewNormalizeStage(deps.Normalizer, deps.Metrics),
		NewJoinStage(deps.Joiner, deps.Metrics),
		NewAggregateStage(deps.Aggregator),
		NewWriteStage(deps.Writer, deps.DetailPath, deps.AggregatePath, deps.Metrics, deps.Logger),
	} {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// ExtractStage reads the downloaded archives
type ExtractStage struct {
	BaseStage
	extractor RowExtractor
	dir       string
	metrics   *infrastructure.PipelineMetrics
}

// NewExtractStage creates the extraction step over dir
func NewExtractStage(extractor RowExtractor, dir string, metrics *infrastructure.PipelineMetrics) *ExtractStage {
	return &ExtractStage{
		BaseStage: NewBaseStage(StageIDExtract, StageNameExtract),
		extractor: extractor,
		dir:       dir,
		metrics:   metrics,
	}
}

// Validate requires an archive directory
func (s *ExtractStage) Validate(state *OperationState) error {
	if s.dir == "" {
		return fmt.Errorf("archive directory not configured")
	}
	return nil
}

// Execute extracts matching rows. Zero rows halts the run with
// ErrNoMatchingRows.
func (s *ExtractStage) Execute(ctx context.Context, state *OperationState) error {
	rows, err := s.extractor.ExtractDir(ctx, s.dir)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoMatchingRows
	}

	state.Batch.Rows = rows
	state.GetStage(s.ID()).SetMetadata("rows", len(rows))
	s.metrics.Add(ctx, s.metrics.RowsExtracted, len(rows))
	return nil
}

// NormalizeStage converts rows into line items
type NormalizeStage struct {
	BaseStage
	normalizer LineNormalizer
	metrics    *infrastructure.PipelineMetrics
}

// NewNormalizeStage creates the normalization step
func NewNormalizeStage(normalizer LineNormalizer, metrics *infrastructure.PipelineMetrics) *NormalizeStage {
	return &NormalizeStage{
		BaseStage:  NewBaseStage(StageIDNormalize, StageNameNormalize),
		normalizer: normalizer,
		metrics:    metrics,
	}
}

// Validate requires extracted rows
func (s *NormalizeStage) Validate(state *OperationState) error {
	if len(state.Batch.Rows) == 0 {
		return fmt.Errorf("no extracted rows to normalize")
	}
	return nil
}

// Execute normalizes the rows. A malformed amount fails the run.
func (s *NormalizeStage) Execute(ctx context.Context, state *OperationState) error {
	items, err := s.normalizer.Normalize(ctx, state.Batch.Rows)
	if err != nil {
		return err
	}

	state.Batch.Items = items
	state.GetStage(s.ID()).SetMetadata("line_items", len(items))
	s.metrics.Add(ctx, s.metrics.RowsNormalized, len(items))
	return nil
}

// JoinStage enriches line items with registry data
type JoinStage struct {
	BaseStage
	joiner  RegistryJoiner
	metrics *infrastructure.PipelineMetrics
}

// NewJoinStage creates the registry join step
func NewJoinStage(joiner RegistryJoiner, metrics *infrastructure.PipelineMetrics) *JoinStage {
	return &JoinStage{
		BaseStage: NewBaseStage(StageIDJoin, StageNameJoin),
		joiner:    joiner,
		metrics:   metrics,
	}
}

// Validate requires line items
func (s *JoinStage) Validate(state *OperationState) error {
	if len(state.Batch.Items) == 0 {
		return fmt.Errorf("no line items to join")
	}
	return nil
}

// Execute joins the line items. The join never fails; a degraded result
// is recorded and passed on.
func (s *JoinStage) Execute(ctx context.Context, state *OperationState) error {
	result := s.joiner.Join(ctx, state.Batch.Items)
	state.Batch.Joined = result

	stepState := state.GetStage(s.ID())
	stepState.SetMetadata("enriched", result.Enriched)
	infrastructure.SetSpanAttributes(ctx, attribute.Bool("join.enriched", result.Enriched))

	if !result.Enriched {
		s.metrics.Add(ctx, s.metrics.RegistryDegradations, 1)
		return nil
	}

	matched, missed := 0, 0
	for _, rec := range result.Records {
		if rec.Enrichment == domain.EnrichmentMatched {
			matched++
		} else {
			missed++
		}
	}
	stepState.SetMetadata("matched", matched)
	stepState.SetMetadata("not_found", missed)
	infrastructure.SetSpanAttributes(ctx,
		attribute.Int("join.matched", matched),
		attribute.Int("join.not_found", missed),
	)
	s.metrics.Add(ctx, s.metrics.JoinMatches, matched)
	s.metrics.Add(ctx, s.metrics.JoinMisses, missed)
	return nil
}

// AggregateStage rolls up the joined records
type AggregateStage struct {
	BaseStage
	aggregator ExpenseAggregator
}

// NewAggregateStage creates the aggregation step
func NewAggregateStage(aggregator ExpenseAggregator) *AggregateStage {
	return &AggregateStage{
		BaseStage:  NewBaseStage(StageIDAggregate, StageNameAggregate),
		aggregator: aggregator,
	}
}

// Execute aggregates the joined records; an unenriched result yields none
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	state.Batch.Aggregates = s.aggregator.Aggregate(ctx, state.Batch.Joined)
	state.GetStage(s.ID()).SetMetadata("groups", len(state.Batch.Aggregates))
	return nil
}

// WriteStage persists the row-level and aggregate tables
type WriteStage struct {
	BaseStage
	writer        TableWriter
	detailPath    string
	aggregatePath string
	metrics       *infrastructure.PipelineMetrics
	logger        *slog.Logger
}

// NewWriteStage creates the persistence step
func NewWriteStage(writer TableWriter, detailPath, aggregatePath string, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *WriteStage {
	return &WriteStage{
		BaseStage:     NewBaseStage(StageIDWrite, StageNameWrite),
		writer:        writer,
		detailPath:    detailPath,
		aggregatePath: aggregatePath,
		metrics:       metrics,
		logger:        logger.With(slog.String("component", "write_stage")),
	}
}

// Validate requires both output paths
func (s *WriteStage) Validate(state *OperationState) error {
	if s.detailPath == "" || s.aggregatePath == "" {
		return fmt.Errorf("output paths not configured")
	}
	return nil
}

// Execute writes both files. A skipped file is reported in the outputs and
// does not stop the other write or fail the run.
func (s *WriteStage) Execute(ctx context.Context, state *OperationState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	outputs := []struct {
		path  string
		table exporter.Table
	}{
		{s.detailPath, exporter.DetailTable(state.Batch.Joined)},
		{s.aggregatePath, exporter.AggregateTable(state.Batch.Aggregates)},
	}

	stepState := state.GetStage(s.ID())
	for _, out := range outputs {
		outcome := s.writer.Persist(ctx, out.path, out.table)
		state.Batch.Outputs[out.path] = outcome
		stepState.SetMetadata(out.path, string(outcome))

		if outcome == exporter.Written {
			s.metrics.Add(ctx, s.metrics.FilesWritten, 1)
		} else {
			s.metrics.Add(ctx, s.metrics.FilesSkipped, 1, attribute.String("outcome", string(outcome)))
			s.logger.WarnContext(ctx, "output skipped",
				slog.String("path", out.path),
				slog.String("outcome", string(outcome)))
		}
	}
	return nil
}
