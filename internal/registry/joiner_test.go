package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/internal/shared/testutil"
	"ansanalytics/pkg/contracts/domain"
)

type fetcherFunc func(ctx context.Context) ([]domain.RegistryRecord, error)

func (f fetcherFunc) Fetch(ctx context.Context) ([]domain.RegistryRecord, error) {
	return f(ctx)
}

func staticRegistry(records ...domain.RegistryRecord) Fetcher {
	return fetcherFunc(func(context.Context) ([]domain.RegistryRecord, error) {
		return records, nil
	})
}

func sampleItems() []domain.LineItem {
	return []domain.LineItem{
		{RegistryID: "123456", AccountCode: "411", Description: "EVENTOS/SINISTROS", Delta: 500.5, DeltaFormatted: "500.50", Status: domain.DeltaStatusValid},
		{RegistryID: "999999", AccountCode: "411", Description: "EVENTOS/SINISTROS", Delta: -1, DeltaFormatted: "-1.00", Status: domain.DeltaStatusNegative},
		{RegistryID: "123456", AccountCode: "412", TaxID: "00.000.000/0000-00", Description: "EVENTOS/SINISTROS", Status: domain.DeltaStatusZeroed},
	}
}

func TestJoiner_Join(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	joiner := NewJoiner(staticRegistry(
		domain.RegistryRecord{RegistryID: "123456", TaxID: "12.345.678/0001-90", LegalName: "ALFA SAUDE", Category: "MEDICINA DE GRUPO", Region: "SP"},
	), logger)

	items := sampleItems()
	result := joiner.Join(context.Background(), items)

	require.True(t, result.Enriched)
	require.Len(t, result.Records, len(items))

	first := result.Records[0]
	assert.Equal(t, "12.345.678/0001-90", first.TaxID)
	assert.Equal(t, "ALFA SAUDE", first.LegalName)
	assert.Equal(t, "SP", first.Region)
	assert.Equal(t, domain.EnrichmentMatched, first.Enrichment)

	assert.Equal(t, domain.NotFound, result.Records[1].LegalName)
	// an existing tax ID is never overwritten, so this row misses
	assert.Equal(t, "00.000.000/0000-00", result.Records[2].TaxID)
	assert.Equal(t, domain.EnrichmentNotFound, result.Records[2].Enrichment)

	// non-join fields pass through unchanged, in input order
	for i, rec := range result.Records {
		assert.Equal(t, items[i].RegistryID, rec.RegistryID)
		assert.Equal(t, items[i].AccountCode, rec.AccountCode)
		assert.Equal(t, items[i].Delta, rec.Delta)
		assert.Equal(t, items[i].Status, rec.Status)
		assert.Equal(t, items[i].Description, rec.Description)
	}

	testutil.AssertNoErrors(t, logs)
}

func TestJoiner_Degraded(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	joiner := NewJoiner(fetcherFunc(func(context.Context) ([]domain.RegistryRecord, error) {
		return nil, apperrors.NewNetworkError("registry request failed", fmt.Errorf("%w: dial tcp: refused", ErrRegistryUnavailable))
	}), logger)

	items := sampleItems()
	result := joiner.Join(context.Background(), items)

	assert.False(t, result.Enriched)
	require.Len(t, result.Records, len(items))
	for i, rec := range result.Records {
		assert.Equal(t, items[i], rec.LineItem)
		assert.Equal(t, domain.EnrichmentUnavailable, rec.Enrichment)
		assert.Empty(t, rec.LegalName)
	}
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelWarn), 1)
	testutil.AssertNoErrors(t, logs)
}

func TestJoiner_CriticalFailure(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	joiner := NewJoiner(fetcherFunc(func(context.Context) ([]domain.RegistryRecord, error) {
		return nil, errors.New("registry returned status 500")
	}), logger)

	result := joiner.Join(context.Background(), sampleItems())

	assert.False(t, result.Enriched)
	assert.Len(t, result.Records, 3)
	require.Len(t, logs.GetRecordsByLevel(slog.LevelError), 1)
	assert.Contains(t, logs.GetRecordsByLevel(slog.LevelError)[0].Message, "critical")
}

func TestJoiner_RecoversPanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	joiner := NewJoiner(fetcherFunc(func(context.Context) ([]domain.RegistryRecord, error) {
		panic("unexpected registry shape")
	}), logger)

	items := sampleItems()
	var result domain.JoinResult
	require.NotPanics(t, func() {
		result = joiner.Join(context.Background(), items)
	})

	assert.False(t, result.Enriched)
	require.Len(t, result.Records, len(items))
	assert.Equal(t, items[0], result.Records[0].LineItem)
	testutil.AssertLogContains(t, logs, slog.LevelError, "critical: registry join panicked, continuing without operator data")
}

func TestJoiner_EmptyInput(t *testing.T) {
	result := NewJoiner(staticRegistry(), nil).Join(context.Background(), nil)
	assert.True(t, result.Enriched)
	assert.Empty(t, result.Records)
}
