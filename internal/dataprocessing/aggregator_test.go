package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/shared/testutil"
	"ansanalytics/pkg/contracts/domain"
)

func joined(name, region string, delta float64) domain.JoinedRecord {
	return domain.JoinedRecord{
		LineItem:   domain.LineItem{Delta: delta},
		LegalName:  name,
		Region:     region,
		Enrichment: domain.EnrichmentMatched,
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	a := NewAggregator(nil)

	result := domain.JoinResult{Enriched: true, Records: []domain.JoinedRecord{
		joined("BETA SAUDE", "RJ", 10),
		joined("ALFA SAUDE", "SP", 100),
		joined("BETA SAUDE", "RJ", 20),
		joined("ALFA SAUDE", "SP", -40),
		joined("ALFA SAUDE", "MG", 5),
		joined(domain.NotFound, domain.NotFound, 1),
		joined("BETA SAUDE", "RJ", 30),
	}}

	aggs := a.Aggregate(context.Background(), result)
	require.Len(t, aggs, 4)

	assert.Equal(t, "BETA SAUDE", aggs[0].LegalName)
	assert.Equal(t, 3, aggs[0].Count)
	assert.InDelta(t, 60, aggs[0].Total, 1e-9)
	assert.InDelta(t, 20, aggs[0].Mean, 1e-9)
	assert.Equal(t, "60.00", aggs[0].TotalFormatted)
	assert.Equal(t, "20.00", aggs[0].MeanFormatted)

	assert.Equal(t, "ALFA SAUDE", aggs[1].LegalName)
	assert.Equal(t, "SP", aggs[1].Region)
	assert.Equal(t, 2, aggs[1].Count)
	assert.Equal(t, "30.00", aggs[1].MeanFormatted)

	// ties on count break on legal name, then region
	assert.Equal(t, "ALFA SAUDE", aggs[2].LegalName)
	assert.Equal(t, "MG", aggs[2].Region)
	assert.Equal(t, domain.NotFound, aggs[3].LegalName)
}

func TestAggregator_Unenriched(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	a := NewAggregator(logger)

	aggs := a.Aggregate(context.Background(), domain.Unenriched([]domain.LineItem{{Delta: 1}}))
	assert.NotNil(t, aggs)
	assert.Empty(t, aggs)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "aggregation skipped")
}

// Count and sum per group equal the joined rows carrying that pair.
func TestAggregator_Invariant(t *testing.T) {
	names := []string{"A", "B", "C"}
	regions := []string{"SP", "RJ"}

	var records []domain.JoinedRecord
	for i := 0; i < 60; i++ {
		records = append(records, joined(names[i%3], regions[i%2], float64(i)*1.25-20))
	}

	aggs := NewAggregator(nil).Aggregate(context.Background(), domain.JoinResult{Enriched: true, Records: records})

	total := 0
	for _, agg := range aggs {
		count, sum := 0, 0.0
		for _, r := range records {
			if r.LegalName == agg.LegalName && r.Region == agg.Region {
				count++
				sum += r.Delta
			}
		}
		assert.Equal(t, count, agg.Count)
		assert.InDelta(t, sum, agg.Total, 1e-9)
		assert.InDelta(t, sum/float64(count), agg.Mean, 1e-9)
		total += agg.Count
	}
	assert.Equal(t, len(records), total)
	assert.Len(t, aggs, 6)

	for i := 1; i < len(aggs); i++ {
		assert.GreaterOrEqual(t, aggs[i-1].Count, aggs[i].Count)
	}
	assert.False(t, math.IsNaN(aggs[0].Mean))
}

func TestAggregator_Deterministic(t *testing.T) {
	result := domain.JoinResult{Enriched: true, Records: []domain.JoinedRecord{
		joined("Z", "SP", 1), joined("A", "SP", 1), joined("M", "RJ", 1), joined("M", "AC", 1),
	}}

	first := NewAggregator(nil).Aggregate(context.Background(), result)
	second := NewAggregator(nil).Aggregate(context.Background(), result)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A", "M", "M", "Z"}, []string{first[0].LegalName, first[1].LegalName, first[2].LegalName, first[3].LegalName})
	assert.Equal(t, "AC", first[1].Region)
}
