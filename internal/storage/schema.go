package storage

// Dates are kept as ISO-8601 text so both drivers scan them the same way.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS operadoras (
		reg_ans INTEGER PRIMARY KEY,
		cnpj TEXT,
		razao_social TEXT,
		modalidade TEXT,
		uf TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_operadoras_cnpj ON operadoras (cnpj)`,
	`CREATE TABLE IF NOT EXISTS despesas_detalhadas (
		reg_ans INTEGER NOT NULL,
		cnpj TEXT,
		razao_social TEXT,
		trimestre TEXT,
		ano TEXT,
		descricao_conta TEXT,
		valor_despesa DOUBLE PRECISION NOT NULL,
		status_valor TEXT,
		data_referencia TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_despesas_detalhadas_reg_ans ON despesas_detalhadas (reg_ans)`,
	`CREATE TABLE IF NOT EXISTS despesas_agregadas (
		razao_social TEXT,
		uf TEXT,
		total_despesas DOUBLE PRECISION NOT NULL,
		qtd_lancamentos INTEGER NOT NULL,
		media_lancamento DOUBLE PRECISION NOT NULL
	)`,
}

const (
	tableOperators  = "operadoras"
	tableExpenses   = "despesas_detalhadas"
	tableAggregates = "despesas_agregadas"
)
