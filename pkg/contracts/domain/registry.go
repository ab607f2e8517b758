package domain

// NotFound marks registry attributes that could not be joined
const NotFound = "Não encontrado"

// EnrichmentStatus records how a line item was enriched with registry data
type EnrichmentStatus string

const (
	// EnrichmentMatched means the registry join found the operator
	EnrichmentMatched EnrichmentStatus = "ENRICHED"
	// EnrichmentNotFound means the join ran but no operator matched the tax ID
	EnrichmentNotFound EnrichmentStatus = "NOT_FOUND"
	// EnrichmentUnavailable means the registry could not be used in this run
	EnrichmentUnavailable EnrichmentStatus = "UNENRICHED"
)

// RegistryRecord is one active operator from the ANS registry (CADOP)
type RegistryRecord struct {
	RegistryID string `json:"registry_id"`
	TaxID      string `json:"tax_id"`
	LegalName  string `json:"legal_name"`
	Category   string `json:"category"`
	Region     string `json:"region"`
}

// JoinedRecord is a line item enriched with registry attributes
type JoinedRecord struct {
	LineItem

	MatchedRegistryID string           `json:"matched_registry_id"`
	LegalName         string           `json:"legal_name"`
	Category          string           `json:"category"`
	Region            string           `json:"region"`
	Enrichment        EnrichmentStatus `json:"enrichment"`
}

// JoinResult carries the joined rows and whether the registry was applied.
// When Enriched is false, the registry columns are absent from the result.
type JoinResult struct {
	Records  []JoinedRecord `json:"records"`
	Enriched bool           `json:"enriched"`
}

// Unenriched wraps line items that could not be joined against the registry
func Unenriched(items []LineItem) JoinResult {
	records := make([]JoinedRecord, len(items))
	for i, item := range items {
		records[i] = JoinedRecord{
			LineItem:   item,
			Enrichment: EnrichmentUnavailable,
		}
	}
	return JoinResult{Records: records, Enriched: false}
}
