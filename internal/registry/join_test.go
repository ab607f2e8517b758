package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/pkg/contracts/domain"
)

func TestDigitsOnly(t *testing.T) {
	tests := map[string]string{
		"12.345.678/0001-90": "12345678000190",
		"  123 ":             "123",
		"abc":                "",
		"":                   "",
		"nan":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, DigitsOnly(in), in)
	}
}

func TestBuildTaxIDIndex_FirstOccurrenceWins(t *testing.T) {
	index := BuildTaxIDIndex([]domain.RegistryRecord{
		{RegistryID: "1", TaxID: "111"},
		{RegistryID: "2", TaxID: ""},
		{RegistryID: "", TaxID: "333"},
		{RegistryID: "1", TaxID: "999"},
	})

	assert.Equal(t, map[string]string{"1": "111"}, index)
}

func TestBackfill(t *testing.T) {
	items := []domain.LineItem{
		{RegistryID: "1", TaxID: ""},
		{RegistryID: "1", TaxID: "555"},
		{RegistryID: "7", TaxID: ""},
		{RegistryID: "1", TaxID: "  "},
	}

	out := Backfill(items, map[string]string{"1": "111"})
	require.Len(t, out, 4)
	assert.Equal(t, "111", out[0].TaxID)
	assert.Equal(t, "555", out[1].TaxID)
	assert.Equal(t, "", out[2].TaxID)
	assert.Equal(t, "111", out[3].TaxID)

	// the input is not mutated
	assert.Equal(t, "", items[0].TaxID)
}

func TestDedupeByTaxKey_LowestRegistryIDWins(t *testing.T) {
	records := []domain.RegistryRecord{
		{RegistryID: "900", TaxID: "11.111", LegalName: "LATER"},
		{RegistryID: "ABC", TaxID: "11111", LegalName: "NON NUMERIC"},
		{RegistryID: "100", TaxID: "11-111", LegalName: "EARLIEST"},
		{RegistryID: "5", TaxID: "", LegalName: "NO KEY"},
		{RegistryID: "XYZ", TaxID: "22", LegalName: "X"},
		{RegistryID: "ABD", TaxID: "22", LegalName: "A"},
	}

	byKey := DedupeByTaxKey(records)
	require.Len(t, byKey, 2)
	assert.Equal(t, "EARLIEST", byKey["11111"].LegalName)
	assert.Equal(t, "A", byKey["22"].LegalName)

	// order independent
	reversed := make([]domain.RegistryRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	assert.Equal(t, byKey, DedupeByTaxKey(reversed))
}

func TestLeftJoin(t *testing.T) {
	byKey := map[string]domain.RegistryRecord{
		"111": {RegistryID: "1", TaxID: "111", LegalName: "ALFA", Category: "MEDICINA", Region: "SP"},
	}
	items := []domain.LineItem{
		{RegistryID: "1", TaxID: "1.1.1", Description: "A"},
		{RegistryID: "2", TaxID: "222", Description: "B"},
		{RegistryID: "3", TaxID: "", Description: "C"},
	}

	records := leftJoin(items, byKey)
	require.Len(t, records, 3)

	assert.Equal(t, domain.EnrichmentMatched, records[0].Enrichment)
	assert.Equal(t, "ALFA", records[0].LegalName)
	assert.Equal(t, "1", records[0].MatchedRegistryID)

	for _, rec := range records[1:] {
		assert.Equal(t, domain.EnrichmentNotFound, rec.Enrichment)
		assert.Equal(t, domain.NotFound, rec.LegalName)
		assert.Equal(t, domain.NotFound, rec.Category)
		assert.Equal(t, domain.NotFound, rec.Region)
		assert.Equal(t, domain.NotFound, rec.MatchedRegistryID)
	}

	for i, rec := range records {
		assert.Equal(t, items[i], rec.LineItem)
	}
}
