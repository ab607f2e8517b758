package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"ansanalytics/pkg/contracts/domain"
)

// Aggregator rolls joined records up per (legal name, region)
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an Aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "aggregator"))}
}

type groupKey struct {
	legalName string
	region    string
}

// Aggregate groups the records and returns one Aggregate per pair, sorted by
// count descending, then legal name and region ascending. An unenriched
// result has no legal name or region to group by and yields nothing.
func (a *Aggregator) Aggregate(ctx context.Context, result domain.JoinResult) []domain.Aggregate {
	if !result.Enriched {
		a.logger.WarnContext(ctx, "registry columns missing, aggregation skipped",
			slog.Int("records", len(result.Records)))
		return []domain.Aggregate{}
	}

	index := make(map[groupKey]int)
	aggregates := make([]domain.Aggregate, 0)

	for _, rec := range result.Records {
		key := groupKey{legalName: rec.LegalName, region: rec.Region}
		i, ok := index[key]
		if !ok {
			i = len(aggregates)
			index[key] = i
			aggregates = append(aggregates, domain.Aggregate{
				LegalName: rec.LegalName,
				Region:    rec.Region,
			})
		}
		aggregates[i].Total += rec.Delta
		aggregates[i].Count++
	}

	for i := range aggregates {
		agg := &aggregates[i]
		agg.Mean = agg.Total / float64(agg.Count)
		agg.TotalFormatted = FormatAmount(agg.Total)
		agg.MeanFormatted = FormatAmount(agg.Mean)
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		x, y := aggregates[i], aggregates[j]
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		if x.LegalName != y.LegalName {
			return x.LegalName < y.LegalName
		}
		return x.Region < y.Region
	})

	a.logger.InfoContext(ctx, "aggregation finished",
		slog.Int("records", len(result.Records)),
		slog.Int("groups", len(aggregates)))

	return aggregates
}
