package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/pkg/contracts/domain"
)

// OperatorFilter selects a page of operators
type OperatorFilter struct {
	Page   int
	Limit  int
	Search string
}

// ListOperators returns a page of operators ordered by registry ID. Search
// matches the legal name or the tax ID as a substring.
func (s *Store) ListOperators(ctx context.Context, filter OperatorFilter) (*domain.OperatorPage, error) {
	where := ""
	var args []any
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		where = " WHERE razao_social LIKE ? OR cnpj LIKE ?"
		args = append(args, term, term)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM operadoras"+where), args...).Scan(&total); err != nil {
		return nil, apperrors.NewStorageError("failed to count operators", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := s.rebind("SELECT reg_ans, cnpj, razao_social, modalidade, uf FROM operadoras" + where + " ORDER BY reg_ans LIMIT ? OFFSET ?")
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, offset)...)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list operators", err)
	}
	defer func() { _ = rows.Close() }()

	operators := make([]domain.Operator, 0, filter.Limit)
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to read operator", err)
		}
		operators = append(operators, op)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to list operators", err)
	}

	return &domain.OperatorPage{
		Data: operators,
		Meta: domain.PageMeta{Page: filter.Page, Limit: filter.Limit, Total: total},
	}, nil
}

// GetOperator returns the operator with the given tax ID. When several
// share it, the lowest registry ID wins.
func (s *Store) GetOperator(ctx context.Context, taxID string) (*domain.Operator, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT reg_ans, cnpj, razao_social, modalidade, uf FROM operadoras WHERE cnpj = ? ORDER BY reg_ans LIMIT 1"),
		taxID)

	op, err := scanOperator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("operator %s: %w", taxID, ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read operator", err)
	}
	return &op, nil
}

// ExpenseHistory returns the expense entries of the operators with the
// given tax ID, most recent reference date first. Entries without a
// reference date come last.
func (s *Store) ExpenseHistory(ctx context.Context, taxID string) ([]domain.ExpenseEntry, error) {
	query := s.rebind(`SELECT d.ano, d.trimestre, d.descricao_conta, d.valor_despesa, d.data_referencia
		FROM despesas_detalhadas d
		JOIN operadoras o ON d.reg_ans = o.reg_ans
		WHERE o.cnpj = ?
		ORDER BY CASE WHEN d.data_referencia IS NULL THEN 1 ELSE 0 END, d.data_referencia DESC, d.descricao_conta`)

	rows, err := s.db.QueryContext(ctx, query, taxID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query expense history", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]domain.ExpenseEntry, 0)
	for rows.Next() {
		var (
			year, quarter, description, refDate sql.NullString
			amount                              float64
		)
		if err := rows.Scan(&year, &quarter, &description, &amount, &refDate); err != nil {
			return nil, apperrors.NewStorageError("failed to read expense entry", err)
		}

		entry := domain.ExpenseEntry{
			Year:        year.String,
			Quarter:     quarter.String,
			Description: description.String,
			Amount:      amount,
		}
		if refDate.Valid {
			if t, err := time.Parse(dateLayout, refDate.String); err == nil {
				entry.ReferenceDate = &t
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to query expense history", err)
	}
	return entries, nil
}

// Statistics summarizes despesas_agregadas: grand total, mean entry value,
// the five largest operators and the total per region.
func (s *Store) Statistics(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		TopOperators: make([]domain.OperatorTotal, 0),
		ByRegion:     make([]domain.RegionTotal, 0),
	}

	var total, mean sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		"SELECT SUM(total_despesas), AVG(media_lancamento) FROM despesas_agregadas",
	).Scan(&total, &mean); err != nil {
		return nil, apperrors.NewStorageError("failed to compute totals", err)
	}
	if total.Valid {
		stats.GrandTotal = &total.Float64
	}
	if mean.Valid {
		stats.AverageEntry = &mean.Float64
	}

	top, err := s.db.QueryContext(ctx,
		"SELECT razao_social, total_despesas FROM despesas_agregadas ORDER BY total_despesas DESC, razao_social LIMIT 5")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query top operators", err)
	}
	defer func() { _ = top.Close() }()
	for top.Next() {
		var (
			name sql.NullString
			sum  float64
		)
		if err := top.Scan(&name, &sum); err != nil {
			return nil, apperrors.NewStorageError("failed to read top operator", err)
		}
		stats.TopOperators = append(stats.TopOperators, domain.OperatorTotal{LegalName: name.String, Total: sum})
	}
	if err := top.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to query top operators", err)
	}

	regions, err := s.db.QueryContext(ctx,
		"SELECT uf, SUM(total_despesas) AS total FROM despesas_agregadas WHERE uf IS NOT NULL GROUP BY uf ORDER BY total DESC, uf")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query regions", err)
	}
	defer func() { _ = regions.Close() }()
	for regions.Next() {
		var rt domain.RegionTotal
		if err := regions.Scan(&rt.Region, &rt.Total); err != nil {
			return nil, apperrors.NewStorageError("failed to read region total", err)
		}
		stats.ByRegion = append(stats.ByRegion, rt)
	}
	if err := regions.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to query regions", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperator(row scanner) (domain.Operator, error) {
	var (
		op                                 domain.Operator
		taxID, legalName, category, region sql.NullString
	)
	if err := row.Scan(&op.RegistryID, &taxID, &legalName, &category, &region); err != nil {
		return domain.Operator{}, err
	}
	op.TaxID = taxID.String
	op.LegalName = nullString(legalName)
	op.Category = nullString(category)
	op.Region = nullString(region)
	return op, nil
}
