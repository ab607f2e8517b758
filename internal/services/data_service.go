package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ansanalytics/internal/storage"
	"ansanalytics/pkg/contracts/domain"
)

// Pagination bounds of the operator listing
const (
	DefaultPage  = 1
	MaxPage      = 1_000_000
	DefaultLimit = 10
	MaxLimit     = 100
)

// Repository is the read side of the storage layer
type Repository interface {
	ListOperators(ctx context.Context, filter storage.OperatorFilter) (*domain.OperatorPage, error)
	GetOperator(ctx context.Context, taxID string) (*domain.Operator, error)
	ExpenseHistory(ctx context.Context, taxID string) ([]domain.ExpenseEntry, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
}

// DataService answers the operator and expense queries
type DataService struct {
	repo   Repository
	logger *slog.Logger
}

// NewDataService creates a new data service
func NewDataService(repo Repository, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		repo:   repo,
		logger: logger.With(slog.String("component", "data_service")),
	}
}

// ListOperators returns one page of operators, optionally filtered by a
// substring of the legal name or tax ID.
func (s *DataService) ListOperators(ctx context.Context, page, limit int, search string) (*domain.OperatorPage, error) {
	if page < 1 || page > MaxPage {
		return nil, fmt.Errorf("%w: page must be between 1 and %d", ErrInvalidInput, MaxPage)
	}
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxLimit)
	}

	search = strings.TrimSpace(search)
	s.logger.DebugContext(ctx, "listing operators",
		slog.Int("page", page),
		slog.Int("limit", limit),
		slog.String("search", search))

	return s.repo.ListOperators(ctx, storage.OperatorFilter{Page: page, Limit: limit, Search: search})
}

// GetOperator returns the operator registered under taxID
func (s *DataService) GetOperator(ctx context.Context, taxID string) (*domain.Operator, error) {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil, fmt.Errorf("%w: cnpj is required", ErrInvalidInput)
	}

	op, err := s.repo.GetOperator(ctx, taxID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, taxID)
	}
	if err != nil {
		return nil, err
	}
	return op, nil
}

// ExpenseHistory returns the expense entries for taxID, most recent first.
// An unknown tax ID yields an empty history.
func (s *DataService) ExpenseHistory(ctx context.Context, taxID string) ([]domain.ExpenseEntry, error) {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return nil, fmt.Errorf("%w: cnpj is required", ErrInvalidInput)
	}
	return s.repo.ExpenseHistory(ctx, taxID)
}

// Statistics returns the aggregate overview
func (s *DataService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	return s.repo.Statistics(ctx)
}
