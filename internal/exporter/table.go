package exporter

import (
	"ansanalytics/pkg/contracts/domain"
)

// Table is an ordered set of columns and string rows ready to be written
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}

// Persisted column names
const (
	ColRegistroANS     = "RegistroANS"
	ColCNPJ            = "CNPJ"
	ColRazaoSocial     = "RazaoSocial"
	ColModalidade      = "Modalidade"
	ColUF              = "UF"
	ColTrimestre       = "Trimestre"
	ColAno             = "Ano"
	ColValorDespesas   = "ValorDespesas"
	ColStatusValor     = "Status_Valor"
	ColStatusCadastro  = "Status_Cadastro"
	ColTotalDespesas   = "Total_Despesas"
	ColQtdLancamentos  = "Qtd_Lancamentos"
	ColMediaLancamento = "Media_Lancamento"
)

// EnrichedDetailColumns is the row-level column set of an enriched run
var EnrichedDetailColumns = []string{
	ColRegistroANS, ColCNPJ, ColRazaoSocial, ColModalidade, ColUF,
	ColTrimestre, ColAno, ColValorDespesas, ColStatusValor,
	domain.ColumnDescription, ColStatusCadastro,
}

// DegradedDetailColumns is the row-level column set when the registry was
// not applied; only the normalized columns are present.
var DegradedDetailColumns = []string{
	domain.ColumnRegistryID, domain.ColumnAccountCode, ColCNPJ,
	domain.ColumnDescription, ColTrimestre, ColAno,
	domain.ColumnOpeningBalance, domain.ColumnClosingBalance,
	ColValorDespesas, ColStatusValor, ColStatusCadastro,
}

// AggregateColumns is the column set of the aggregate file
var AggregateColumns = []string{
	ColRazaoSocial, ColUF, ColTotalDespesas, ColQtdLancamentos, ColMediaLancamento,
}

// DetailTable projects joined records onto the persisted row-level columns.
// The numeric delta is never persisted, only its formatted text.
func DetailTable(result domain.JoinResult) Table {
	rows := make([][]string, 0, len(result.Records))

	if result.Enriched {
		for _, rec := range result.Records {
			rows = append(rows, []string{
				rec.MatchedRegistryID,
				rec.TaxID,
				rec.LegalName,
				rec.Category,
				rec.Region,
				rec.Quarter,
				rec.Year,
				rec.DeltaFormatted,
				string(rec.Status),
				rec.Description,
				string(rec.Enrichment),
			})
		}
		return Table{Columns: EnrichedDetailColumns, Rows: rows}
	}

	for _, rec := range result.Records {
		rows = append(rows, []string{
			rec.RegistryID,
			rec.AccountCode,
			rec.TaxID,
			rec.Description,
			rec.Quarter,
			rec.Year,
			formatAmount(rec.OpeningBalance),
			formatAmount(rec.ClosingBalance),
			rec.DeltaFormatted,
			string(rec.Status),
			string(rec.Enrichment),
		})
	}
	return Table{Columns: DegradedDetailColumns, Rows: rows}
}

// AggregateTable projects aggregates onto the aggregate file columns
func AggregateTable(aggregates []domain.Aggregate) Table {
	rows := make([][]string, 0, len(aggregates))
	for _, agg := range aggregates {
		rows = append(rows, []string{
			agg.LegalName,
			agg.Region,
			agg.TotalFormatted,
			formatCount(agg.Count),
			agg.MeanFormatted,
		})
	}
	return Table{Columns: AggregateColumns, Rows: rows}
}
