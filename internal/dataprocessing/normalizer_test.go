package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/internal/shared/testutil"
	"ansanalytics/pkg/contracts/domain"
)

func rawRow(archive, regID, desc, opening, closing string) domain.RawRow {
	return domain.RawRow{
		Fields: map[string]string{
			domain.ColumnRegistryID:     regID,
			domain.ColumnAccountCode:    "411",
			domain.ColumnDescription:    desc,
			domain.ColumnOpeningBalance: opening,
			domain.ColumnClosingBalance: closing,
		},
		SourceArchive: archive,
		Member:        "member.csv",
	}
}

func TestNormalizer_Scenario(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	n := NewNormalizer(logger)

	items, err := n.Normalize(context.Background(), []domain.RawRow{
		rawRow("1T2024.zip", "123456.0", " Eventos/Sinistros Médicos ", "1.000,00", "1.500,50"),
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "123456", item.RegistryID)
	assert.Equal(t, "411", item.AccountCode)
	assert.Equal(t, "", item.TaxID)
	assert.Equal(t, "EVENTOS/SINISTROS MÉDICOS", item.Description)
	assert.Equal(t, "1º Trimestre", item.Quarter)
	assert.Equal(t, "2024", item.Year)
	assert.InDelta(t, 1000.00, item.OpeningBalance, 1e-9)
	assert.InDelta(t, 1500.50, item.ClosingBalance, 1e-9)
	assert.InDelta(t, 500.50, item.Delta, 1e-9)
	assert.Equal(t, "500.50", item.DeltaFormatted)
	assert.Equal(t, domain.DeltaStatusValid, item.Status)
	assert.Equal(t, "1T2024.zip", item.SourceArchive)
}

func TestNormalizer_StatusFollowsSign(t *testing.T) {
	n := NewNormalizer(nil)

	items, err := n.Normalize(context.Background(), []domain.RawRow{
		rawRow("2T2024.zip", "1", "x", "10,00", "10,00"),
		rawRow("2T2024.zip", "1", "x", "10,00", "5,00"),
		rawRow("2T2024.zip", "1", "x", "5,00", "10,00"),
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, domain.DeltaStatusZeroed, items[0].Status)
	assert.Equal(t, domain.DeltaStatusNegative, items[1].Status)
	assert.Equal(t, "-5.00", items[1].DeltaFormatted)
	assert.Equal(t, domain.DeltaStatusValid, items[2].Status)
}

func TestNormalizer_InvalidAmountPropagates(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.Normalize(context.Background(), []domain.RawRow{
		rawRow("1T2024.zip", "1", "x", "1,00", "2,00"),
		rawRow("1T2024.zip", "2", "x", "1,00", "n/a"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	assert.Contains(t, err.Error(), "row 1")
	assert.Contains(t, err.Error(), domain.ColumnClosingBalance)
}

func TestNormalizer_MissingBalanceColumn(t *testing.T) {
	n := NewNormalizer(nil)
	row := domain.RawRow{Fields: map[string]string{domain.ColumnDescription: "eventos sinistros"}, SourceArchive: "1T2024.zip"}

	_, err := n.Normalize(context.Background(), []domain.RawRow{row})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNormalizer_WarnsOncePerArchiveWithoutPeriod(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	n := NewNormalizer(logger)

	items, err := n.Normalize(context.Background(), []domain.RawRow{
		rawRow("contabeis.zip", "1", "x", "1", "2"),
		rawRow("contabeis.zip", "2", "x", "1", "2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "", items[0].Quarter)
	assert.Equal(t, "", items[0].Year)
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelWarn), 1)
}

func TestNormalizer_EmptyInput(t *testing.T) {
	items, err := NewNormalizer(nil).Normalize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
