package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"ansanalytics/internal/dataprocessing"
	apperrors "ansanalytics/internal/errors"
	"ansanalytics/internal/exporter"
	"ansanalytics/internal/infrastructure"
	"ansanalytics/pkg/contracts/domain"
)

// ErrMissingIDColumn is returned when the row-level file has neither
// RegistroANS nor REG_ANS.
var ErrMissingIDColumn = errors.New("registry identifier column not found")

// LoadReport summarizes one load
type LoadReport struct {
	Operators  int `json:"operators"`
	Expenses   int `json:"expenses"`
	Aggregates int `json:"aggregates"`
	// Invalid counts detail rows dropped for an unparseable identifier
	Invalid int `json:"invalid"`
	// Duplicates counts detail rows whose identifier was already seen
	Duplicates int `json:"duplicates"`
	// InvalidAmounts counts rows skipped for an unparseable amount
	InvalidAmounts int `json:"invalid_amounts"`
}

// Loader replaces the database contents with the processor outputs
type Loader struct {
	store   *Store
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewLoader creates a Loader
func NewLoader(store *Store, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopPipelineMetrics()
	}
	return &Loader{
		store:   store,
		logger:  logger.With(slog.String("component", "loader")),
		metrics: metrics,
	}
}

type operatorRow struct {
	registryID int64
	taxID      *string
	legalName  *string
	category   *string
	region     *string
}

type expenseRow struct {
	registryID    int64
	taxID         *string
	legalName     *string
	quarter       *string
	year          *string
	description   *string
	amount        float64
	status        *string
	referenceDate *string
}

type aggregateRow struct {
	legalName *string
	region    *string
	total     float64
	count     int64
	mean      float64
}

// detailData is the parsed content of the row-level file
type detailData struct {
	operators []operatorRow
	expenses  []expenseRow
	report    LoadReport
}

// Load reads both files and replaces the three tables in one transaction.
// A missing aggregate file leaves despesas_agregadas empty.
func (l *Loader) Load(ctx context.Context, detailPath, aggregatePath string) (*LoadReport, error) {
	detail, err := readDetailFile(detailPath)
	if err != nil {
		return nil, err
	}

	var aggregates []aggregateRow
	if aggregatePath != "" {
		aggregates, err = readAggregateFile(aggregatePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger.WarnContext(ctx, "aggregate file not found, aggregate table left empty",
				slog.String("path", aggregatePath))
		case err != nil:
			return nil, err
		}
	}

	report := detail.report
	report.Aggregates = len(aggregates)

	if report.Invalid > 0 {
		l.logger.WarnContext(ctx, "rows with invalid registry identifier removed",
			slog.Int("rows", report.Invalid))
	}
	if report.InvalidAmounts > 0 {
		l.logger.WarnContext(ctx, "rows with invalid amount skipped",
			slog.Int("rows", report.InvalidAmounts))
	}

	if err := l.replace(ctx, detail, aggregates); err != nil {
		return nil, err
	}

	l.metrics.Add(ctx, l.metrics.RowsLoaded, report.Operators+report.Expenses+report.Aggregates)
	l.metrics.Add(ctx, l.metrics.RowsRejected, report.Invalid+report.InvalidAmounts)

	l.logger.InfoContext(ctx, "load finished",
		slog.Int("operators", report.Operators),
		slog.Int("expenses", report.Expenses),
		slog.Int("aggregates", report.Aggregates),
		slog.Int("invalid", report.Invalid),
		slog.Int("duplicates", report.Duplicates))
	return &report, nil
}

func (l *Loader) replace(ctx context.Context, detail *detailData, aggregates []aggregateRow) (err error) {
	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				l.logger.ErrorContext(ctx, "rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	for _, table := range []string{tableExpenses, tableAggregates, tableOperators} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return apperrors.NewStorageError("failed to clear "+table, err)
		}
	}

	insertOperator := l.store.rebind(`INSERT INTO operadoras (reg_ans, cnpj, razao_social, modalidade, uf) VALUES (?, ?, ?, ?, ?)`)
	for _, op := range detail.operators {
		if _, err = tx.ExecContext(ctx, insertOperator, op.registryID, op.taxID, op.legalName, op.category, op.region); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to insert operator %d", op.registryID), err)
		}
	}

	insertExpense := l.store.rebind(`INSERT INTO despesas_detalhadas (reg_ans, cnpj, razao_social, trimestre, ano, descricao_conta, valor_despesa, status_valor, data_referencia) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, e := range detail.expenses {
		if _, err = tx.ExecContext(ctx, insertExpense,
			e.registryID, e.taxID, e.legalName, e.quarter, e.year, e.description, e.amount, e.status, e.referenceDate,
		); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to insert expense for operator %d", e.registryID), err)
		}
	}

	insertAggregate := l.store.rebind(`INSERT INTO despesas_agregadas (razao_social, uf, total_despesas, qtd_lancamentos, media_lancamento) VALUES (?, ?, ?, ?, ?)`)
	for _, a := range aggregates {
		if _, err = tx.ExecContext(ctx, insertAggregate, a.legalName, a.region, a.total, a.count, a.mean); err != nil {
			return apperrors.NewStorageError("failed to insert aggregate", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit load", err)
	}
	return nil
}

func readDetailFile(path string) (*detailData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open detail file", err).WithContext("path", path)
	}
	defer f.Close()

	detail, err := readDetail(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return detail, nil
}

// readDetail parses the row-level file. Rows whose identifier does not
// coerce to an integer are counted and dropped; the first row of each
// identifier defines the operator.
func readDetail(r io.Reader) (*detailData, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	idColumn := exporter.ColRegistroANS
	if _, ok := header[idColumn]; !ok {
		idColumn = domain.ColumnRegistryID
	}
	if _, ok := header[idColumn]; !ok {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("expected %s or %s", exporter.ColRegistroANS, domain.ColumnRegistryID),
			ErrMissingIDColumn,
		)
	}

	get := func(record []string, column string) string {
		i, ok := header[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	detail := &detailData{}
	seen := make(map[int64]bool)
	for _, record := range records {
		id, ok := parseRegistryID(get(record, idColumn))
		if !ok {
			detail.report.Invalid++
			continue
		}

		taxID := nullable(get(record, exporter.ColCNPJ))
		legalName := nullable(get(record, exporter.ColRazaoSocial))

		if seen[id] {
			detail.report.Duplicates++
		} else {
			seen[id] = true
			detail.operators = append(detail.operators, operatorRow{
				registryID: id,
				taxID:      taxID,
				legalName:  legalName,
				category:   nullable(get(record, exporter.ColModalidade)),
				region:     nullable(get(record, exporter.ColUF)),
			})
		}

		amount, err := dataprocessing.ParseAmount(get(record, exporter.ColValorDespesas))
		if err != nil {
			detail.report.InvalidAmounts++
			continue
		}

		quarter := get(record, exporter.ColTrimestre)
		year := get(record, exporter.ColAno)
		detail.expenses = append(detail.expenses, expenseRow{
			registryID:    id,
			taxID:         taxID,
			legalName:     legalName,
			quarter:       nullable(quarter),
			year:          nullable(year),
			description:   nullable(get(record, domain.ColumnDescription)),
			amount:        amount,
			status:        nullable(get(record, exporter.ColStatusValor)),
			referenceDate: referenceDate(quarter, year),
		})
	}

	detail.report.Operators = len(detail.operators)
	detail.report.Expenses = len(detail.expenses)
	return detail, nil
}

func readAggregateFile(path string) ([]aggregateRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := readAggregates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// readAggregates parses the aggregate file. A header-only file yields no rows.
func readAggregates(r io.Reader) ([]aggregateRow, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	for _, column := range exporter.AggregateColumns {
		if _, ok := header[column]; !ok {
			return nil, apperrors.NewParsingError(fmt.Sprintf("aggregate file is missing column %s", column), nil)
		}
	}

	rows := make([]aggregateRow, 0, len(records))
	for n, record := range records {
		get := func(column string) string {
			if i := header[column]; i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		total, err := dataprocessing.ParseAmount(get(exporter.ColTotalDespesas))
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("aggregate row %d", n+1), err)
		}
		mean, err := dataprocessing.ParseAmount(get(exporter.ColMediaLancamento))
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("aggregate row %d", n+1), err)
		}
		count, err := strconv.ParseInt(get(exporter.ColQtdLancamentos), 10, 64)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("aggregate row %d", n+1), err)
		}

		rows = append(rows, aggregateRow{
			legalName: nullable(get(exporter.ColRazaoSocial)),
			region:    nullable(get(exporter.ColUF)),
			total:     total,
			count:     count,
			mean:      mean,
		})
	}
	return rows, nil
}

// readCSV reads a ';'-separated file and indexes its trimmed header.
// A leading UTF-8 BOM is ignored.
func readCSV(r io.Reader) (map[string]int, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to read csv", err)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.NewParsingError("csv file is empty", nil)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	return header, records[1:], nil
}

// parseRegistryID coerces an identifier to an integer. Integral float text
// such as "123456.0" is accepted; anything else is invalid.
func parseRegistryID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// nullable maps empty text and the not-found marker to NULL
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, domain.NotFound) {
		return nil
	}
	return &s
}

// referenceDate returns the first day of the quarter as YYYY-MM-DD, or nil
// when quarter or year cannot be read. The quarter is the first digit of
// text such as "3º Trimestre".
func referenceDate(quarter, year string) *string {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return nil
	}
	q := 0
	for _, r := range quarter {
		if r >= '1' && r <= '9' {
			q = int(r - '0')
			break
		}
	}
	if q < 1 || q > 4 {
		return nil
	}
	d := time.Date(y, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC).Format(dateLayout)
	return &d
}

const dateLayout = "2006-01-02"
