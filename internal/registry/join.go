package registry

import (
	"strconv"
	"strings"

	"ansanalytics/pkg/contracts/domain"
)

// BuildTaxIDIndex maps registry ID to tax ID for records carrying both.
// When an ID repeats, the first occurrence in registry order wins.
func BuildTaxIDIndex(records []domain.RegistryRecord) map[string]string {
	index := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.RegistryID == "" || rec.TaxID == "" {
			continue
		}
		if _, ok := index[rec.RegistryID]; !ok {
			index[rec.RegistryID] = rec.TaxID
		}
	}
	return index
}

// Backfill returns a copy of items where every empty tax ID is looked up by
// registry ID. Items that already carry a tax ID are left untouched.
func Backfill(items []domain.LineItem, index map[string]string) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	for i := range out {
		if strings.TrimSpace(out[i].TaxID) != "" {
			continue
		}
		if taxID, ok := index[out[i].RegistryID]; ok {
			out[i].TaxID = taxID
		}
	}
	return out
}

// DigitsOnly strips every non-digit character from s
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DedupeByTaxKey keeps one record per non-empty digits-only tax key. The
// record with the lowest numeric registry ID wins, so the result does not
// depend on registry order.
func DedupeByTaxKey(records []domain.RegistryRecord) map[string]domain.RegistryRecord {
	byKey := make(map[string]domain.RegistryRecord, len(records))
	for _, rec := range records {
		key := DigitsOnly(rec.TaxID)
		if key == "" {
			continue
		}
		current, ok := byKey[key]
		if !ok || registryIDLess(rec.RegistryID, current.RegistryID) {
			byKey[key] = rec
		}
	}
	return byKey
}

// registryIDLess orders numeric IDs numerically, ahead of non-numeric ones,
// which compare lexically.
func registryIDLess(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// leftJoin enriches items against the deduplicated registry. Empty keys never
// match; unmatched rows carry the NotFound sentinel.
func leftJoin(items []domain.LineItem, byKey map[string]domain.RegistryRecord) []domain.JoinedRecord {
	records := make([]domain.JoinedRecord, len(items))
	for i, item := range items {
		rec := domain.JoinedRecord{LineItem: item}

		key := DigitsOnly(item.TaxID)
		match, ok := byKey[key]
		if key != "" && ok {
			rec.MatchedRegistryID = match.RegistryID
			rec.LegalName = match.LegalName
			rec.Category = match.Category
			rec.Region = match.Region
			rec.Enrichment = domain.EnrichmentMatched
		} else {
			rec.MatchedRegistryID = domain.NotFound
			rec.LegalName = domain.NotFound
			rec.Category = domain.NotFound
			rec.Region = domain.NotFound
			rec.Enrichment = domain.EnrichmentNotFound
		}

		records[i] = rec
	}
	return records
}
