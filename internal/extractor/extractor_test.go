package extractor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/internal/shared/testutil"
)

var header = []string{"DATA", "REG_ANS", "CD_CONTA_CONTABIL", "DESCRICAO", "VL_SALDO_INICIAL", "VL_SALDO_FINAL"}

func newTestExtractor(t *testing.T) (*Extractor, *testutil.BufferedSlogHandler) {
	logger, logs := testutil.NewTestLogger(t)
	return New(Config{FilterTerms: []string{"even", "sin"}}, logger), logs
}

func TestMatches(t *testing.T) {
	e, _ := newTestExtractor(t)

	tests := []struct {
		description string
		want        bool
	}{
		{"Eventos/Sinistros Médicos", true},
		{"EVENTOS INDENIZÁVEIS LÍQUIDOS / SINISTROS RETIDOS", true},
		{"eventos conhecidos", false},
		{"sinistros", false},
		{"Despesas administrativas", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Matches(tt.description))
		})
	}
}

func TestMatchesRequiresEveryTerm(t *testing.T) {
	e := New(Config{FilterTerms: []string{" EVEN ", "", "Sin"}}, nil)
	assert.True(t, e.Matches("xxEVENxxSINxx"))
	assert.False(t, e.Matches("xxEVENxx"))
}

func TestExtractArchive_CSV(t *testing.T) {
	e, _ := newTestExtractor(t)
	dir := t.TempDir()

	path := testutil.WriteZip(t, dir, "1T2024.zip", testutil.CSVMember("1T2024.csv", [][]string{
		header,
		{"2024-01-01", "123456", "411", "Eventos/Sinistros Médicos", "1.000,00", "1.500,50"},
		{"2024-01-01", "123456", "311", "Receitas", "10,00", "20,00"},
		{"2024-01-01", "654321", "411", "EVENTOS SINISTROS", "0,00", "0,00"},
	}))

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "123456", rows[0].Get("REG_ANS"))
	assert.Equal(t, "Eventos/Sinistros Médicos", rows[0].Get("DESCRICAO"))
	assert.Equal(t, "1.000,00", rows[0].Get("VL_SALDO_INICIAL"))
	assert.Equal(t, "1T2024.zip", rows[0].SourceArchive)
	assert.Equal(t, "1T2024.csv", rows[0].Member)
	assert.Equal(t, "654321", rows[1].Get("REG_ANS"))
}

func TestExtractArchive_Latin1Fallback(t *testing.T) {
	e, _ := newTestExtractor(t)
	dir := t.TempDir()

	path := testutil.WriteZip(t, dir, "2T2024.zip", testutil.Latin1Member(t, "dados.txt", [][]string{
		header,
		{"2024-04-01", "1", "411", "Eventos/Sinistros Médicos", "1,00", "2,00"},
	}))

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Eventos/Sinistros Médicos", rows[0].Get("DESCRICAO"))
}

func TestExtractArchive_UTF8BOMAndHeaderNormalization(t *testing.T) {
	e, _ := newTestExtractor(t)
	dir := t.TempDir()

	member := testutil.CSVMember("a.csv", [][]string{
		{" reg_ans ", "descricao", "vl_saldo_inicial", "vl_saldo_final"},
		{"7", "eventos sinistros", "1", "2"},
	})
	member.Data = append([]byte{0xEF, 0xBB, 0xBF}, member.Data...)
	path := testutil.WriteZip(t, dir, "3T2024.zip", member)

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].Get("REG_ANS"))
	assert.Equal(t, "2", rows[0].Get("VL_SALDO_FINAL"))
}

func TestExtractArchive_Workbook(t *testing.T) {
	e, _ := newTestExtractor(t)
	dir := t.TempDir()

	path := testutil.WriteZip(t, dir, "4T2024.zip", testutil.XLSXMember(t, "planilha.xlsx", [][]string{
		header,
		{"2024-10-01", "42", "411", "Eventos / Sinistros", "100.5", "200"},
		{"2024-10-01", "43", "411", "Outros"},
	}))

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "42", rows[0].Get("REG_ANS"))
	assert.Equal(t, "100.5", rows[0].Get("VL_SALDO_INICIAL"))
}

func TestExtractArchive_SkipsBadMembers(t *testing.T) {
	e, logs := newTestExtractor(t)
	dir := t.TempDir()

	path := testutil.WriteZip(t, dir, "1T2025.zip",
		testutil.ZipMember{Name: "broken.xlsx", Data: []byte("not a workbook")},
		testutil.ZipMember{Name: "readme.pdf", Data: []byte("%PDF")},
		testutil.CSVMember("no_description.csv", [][]string{{"REG_ANS", "VALOR"}, {"1", "2"}}),
		testutil.CSVMember("good.csv", [][]string{header, {"d", "9", "411", "eventos sinistros", "1", "1"}}),
	)

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "good.csv", rows[0].Member)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "member skipped")
}

func TestExtractArchive_MissingDescriptionCellNeverMatches(t *testing.T) {
	e, _ := newTestExtractor(t)
	dir := t.TempDir()

	path := testutil.WriteZip(t, dir, "1T2025.zip", testutil.CSVMember("short.csv", [][]string{
		{"REG_ANS", "CD_CONTA_CONTABIL", "DESCRICAO"},
		{"1", "411"},
	}))

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExtractDir(t *testing.T) {
	t.Run("archives processed in lexical order", func(t *testing.T) {
		e, logs := newTestExtractor(t)
		dir := t.TempDir()

		testutil.WriteZip(t, dir, "2T2024.zip", testutil.CSVMember("b.csv", [][]string{header, {"d", "2", "411", "eventos sinistros", "1", "1"}}))
		testutil.WriteZip(t, dir, "1T2024.zip", testutil.CSVMember("a.csv", [][]string{header, {"d", "1", "411", "eventos sinistros", "1", "1"}}))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "0T0000.zip"), []byte("corrupt"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

		rows, err := e.ExtractDir(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "1T2024.zip", rows[0].SourceArchive)
		assert.Equal(t, "2T2024.zip", rows[1].SourceArchive)
		testutil.AssertLogContains(t, logs, slog.LevelWarn, "archive skipped")
	})

	t.Run("no matches is an empty result", func(t *testing.T) {
		e, _ := newTestExtractor(t)
		dir := t.TempDir()
		testutil.WriteZip(t, dir, "1T2024.zip", testutil.CSVMember("a.csv", [][]string{header, {"d", "1", "311", "receitas", "1", "1"}}))

		rows, err := e.ExtractDir(context.Background(), dir)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("missing directory", func(t *testing.T) {
		e, _ := newTestExtractor(t)
		_, err := e.ExtractDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("cancelled context", func(t *testing.T) {
		e, _ := newTestExtractor(t)
		dir := t.TempDir()
		testutil.WriteZip(t, dir, "1T2024.zip", testutil.CSVMember("a.csv", [][]string{header}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.ExtractDir(ctx, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// Every kept row contains both filter terms; every dropped row misses one.
func TestFilterProperty(t *testing.T) {
	e, _ := newTestExtractor(t)
	dir := t.TempDir()

	descriptions := []string{
		"Eventos/Sinistros", "eventos", "SINISTROS", "", "Prevenção e sinistralidade",
		"EVENTUAIS SINISTROS", "Sin even", "outros",
	}
	table := [][]string{header}
	for i, d := range descriptions {
		table = append(table, []string{"d", string(rune('a' + i)), "411", d, "1", "1"})
	}
	path := testutil.WriteZip(t, dir, "1T2024.zip", testutil.CSVMember("a.csv", table))

	rows, err := e.ExtractArchive(context.Background(), path)
	require.NoError(t, err)

	kept := map[string]bool{}
	for _, r := range rows {
		kept[r.Get("DESCRICAO")] = true
	}
	for _, d := range descriptions {
		lower := strings.ToLower(d)
		both := strings.Contains(lower, "even") && strings.Contains(lower, "sin")
		assert.Equal(t, both, kept[d], d)
	}
}
