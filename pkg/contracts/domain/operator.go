package domain

import "time"

// Operator is a health plan operator as served by the query API
type Operator struct {
	RegistryID int64   `json:"reg_ans" db:"reg_ans"`
	TaxID      string  `json:"cnpj" db:"cnpj"`
	LegalName  *string `json:"razao_social" db:"razao_social"`
	Category   *string `json:"modalidade,omitempty" db:"modalidade"`
	Region     *string `json:"uf" db:"uf"`
}

// ExpenseEntry is one persisted line item in an operator's expense history
type ExpenseEntry struct {
	Year          string     `json:"ano" db:"ano"`
	Quarter       string     `json:"trimestre" db:"trimestre"`
	Description   string     `json:"descricao_conta" db:"descricao_conta"`
	Amount        float64    `json:"valor_despesa" db:"valor_despesa"`
	ReferenceDate *time.Time `json:"data_referencia" db:"data_referencia"`
}

// OperatorTotal is a (legal name, total) pair used by the statistics view
type OperatorTotal struct {
	LegalName string  `json:"razao_social"`
	Total     float64 `json:"total_despesas"`
}

// RegionTotal is the summed expense for one region
type RegionTotal struct {
	Region string  `json:"uf"`
	Total  float64 `json:"total"`
}

// Statistics is the aggregate overview served by the query API
type Statistics struct {
	GrandTotal   *float64        `json:"total_geral"`
	AverageEntry *float64        `json:"media_lancamento"`
	TopOperators []OperatorTotal `json:"top_5"`
	ByRegion     []RegionTotal   `json:"distribuicao_uf"`
}

// PageMeta describes a page of results
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// OperatorPage is a paginated list of operators
type OperatorPage struct {
	Data []Operator `json:"data"`
	Meta PageMeta   `json:"meta"`
}
