package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/pkg/contracts/domain"
)

// Normalizer converts extracted rows into line items
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// Normalize converts every row, preserving order. The first balance that
// cannot be parsed aborts the run; the returned error wraps ErrInvalidAmount
// and names the row, archive and column.
func (n *Normalizer) Normalize(ctx context.Context, rows []domain.RawRow) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(rows))
	warned := make(map[string]bool)

	for i, row := range rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		item, err := n.normalizeRow(row)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d of %s", i, row.SourceArchive), err).
				WithContext("row", i).
				WithContext("archive", row.SourceArchive).
				WithContext("member", row.Member)
		}

		if (item.Quarter == "" || item.Year == "") && !warned[row.SourceArchive] {
			warned[row.SourceArchive] = true
			n.logger.WarnContext(ctx, "archive name carries no period",
				slog.String("archive", row.SourceArchive),
				slog.String("quarter", item.Quarter),
				slog.String("year", item.Year))
		}

		items = append(items, item)
	}

	n.logger.InfoContext(ctx, "rows normalized", slog.Int("count", len(items)))
	return items, nil
}

func (n *Normalizer) normalizeRow(row domain.RawRow) (domain.LineItem, error) {
	opening, err := ParseAmount(row.Get(domain.ColumnOpeningBalance))
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%s: %w", domain.ColumnOpeningBalance, err)
	}
	closing, err := ParseAmount(row.Get(domain.ColumnClosingBalance))
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%s: %w", domain.ColumnClosingBalance, err)
	}

	delta := closing - opening

	return domain.LineItem{
		RegistryID:     StripFloatSuffix(row.Get(domain.ColumnRegistryID)),
		AccountCode:    row.Get(domain.ColumnAccountCode),
		TaxID:          "",
		Description:    NormalizeText(row.Get(domain.ColumnDescription)),
		Quarter:        QuarterFromSource(row.SourceArchive),
		Year:           YearFromSource(row.SourceArchive),
		OpeningBalance: opening,
		ClosingBalance: closing,
		Delta:          delta,
		DeltaFormatted: FormatAmount(delta),
		Status:         domain.ClassifyDelta(delta),
		SourceArchive:  row.SourceArchive,
	}, nil
}
