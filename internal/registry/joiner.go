package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ansanalytics/pkg/contracts/domain"
)

// Fetcher supplies a registry snapshot
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.RegistryRecord, error)
}

// Joiner enriches line items with registry attributes
type Joiner struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewJoiner creates a Joiner backed by fetcher
func NewJoiner(fetcher Fetcher, logger *slog.Logger) *Joiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Joiner{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "registry_joiner")),
	}
}

// Join fetches the registry and left-joins items against it. It never fails:
// an unreachable registry logs a degradation warning, and any other failure
// (a panic included) logs a critical error. Both return the input unenriched.
func (j *Joiner) Join(ctx context.Context, items []domain.LineItem) (result domain.JoinResult) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.ErrorContext(ctx, "critical: registry join panicked, continuing without operator data",
				slog.String("error", fmt.Sprint(r)),
				slog.Int("rows", len(items)))
			result = domain.Unenriched(items)
		}
	}()

	registry, err := j.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrRegistryUnavailable) {
			j.logger.WarnContext(ctx, "registry unreachable, continuing degraded without operator data",
				slog.String("error", err.Error()),
				slog.Int("rows", len(items)))
		} else {
			j.logger.ErrorContext(ctx, "critical: registry join failed, continuing without operator data",
				slog.String("error", err.Error()),
				slog.Int("rows", len(items)))
		}
		return domain.Unenriched(items)
	}

	records := leftJoin(Backfill(items, BuildTaxIDIndex(registry)), DedupeByTaxKey(registry))

	matched := 0
	for _, rec := range records {
		if rec.Enrichment == domain.EnrichmentMatched {
			matched++
		}
	}
	j.logger.InfoContext(ctx, "registry join finished",
		slog.Int("rows", len(records)),
		slog.Int("matched", matched),
		slog.Int("not_found", len(records)-matched),
		slog.Int("registry_records", len(registry)))

	return domain.JoinResult{Records: records, Enriched: true}
}
