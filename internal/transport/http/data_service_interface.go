package http

import (
	"context"

	"ansanalytics/pkg/contracts/domain"
)

// DataServiceInterface defines the queries served by DataHandler
type DataServiceInterface interface {
	ListOperators(ctx context.Context, page, limit int, search string) (*domain.OperatorPage, error)
	GetOperator(ctx context.Context, taxID string) (*domain.Operator, error)
	ExpenseHistory(ctx context.Context, taxID string) ([]domain.ExpenseEntry, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
}
