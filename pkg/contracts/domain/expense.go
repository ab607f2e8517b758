package domain

import "strings"

// DeltaStatus classifies the sign of an expense delta
type DeltaStatus string

const (
	DeltaStatusValid    DeltaStatus = "Válido"
	DeltaStatusZeroed   DeltaStatus = "Zerado"
	DeltaStatusNegative DeltaStatus = "Negativo"
)

// ClassifyDelta returns exactly one status for every delta value.
func ClassifyDelta(delta float64) DeltaStatus {
	switch {
	case delta == 0:
		return DeltaStatusZeroed
	case delta < 0:
		return DeltaStatusNegative
	default:
		return DeltaStatusValid
	}
}

// Source column names found in the ANS accounting disclosure files
const (
	ColumnRegistryID     = "REG_ANS"
	ColumnAccountCode    = "CD_CONTA_CONTABIL"
	ColumnDescription    = "DESCRICAO"
	ColumnOpeningBalance = "VL_SALDO_INICIAL"
	ColumnClosingBalance = "VL_SALDO_FINAL"
)

// RawRow is a single matched row read from an archive member.
// Header names are trimmed and upper-cased.
type RawRow struct {
	Fields        map[string]string `json:"fields"`
	SourceArchive string            `json:"source_archive"`
	Member        string            `json:"member"`
}

// Get returns the trimmed value of a column, or "" when the column is absent
func (r RawRow) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// LineItem is one normalized accounting entry for an operator and period
type LineItem struct {
	RegistryID     string      `json:"registry_id"`
	AccountCode    string      `json:"account_code"`
	TaxID          string      `json:"tax_id"`
	Description    string      `json:"description"`
	Quarter        string      `json:"quarter"`
	Year           string      `json:"year"`
	OpeningBalance float64     `json:"opening_balance"`
	ClosingBalance float64     `json:"closing_balance"`
	Delta          float64     `json:"delta"`
	DeltaFormatted string      `json:"delta_formatted"`
	Status         DeltaStatus `json:"status"`
	SourceArchive  string      `json:"source_archive"`
}
