package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/pkg/contracts/domain"
)

const archiveSuffix = ".zip"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Config controls which rows are kept and how text members are split
type Config struct {
	FilterTerms []string
	Delimiter   rune
}

// Extractor scans disclosure archives
type Extractor struct {
	terms     []string
	delimiter rune
	logger    *slog.Logger
}

// New creates an Extractor. Filter terms are matched case-insensitively;
// a zero delimiter means ';'.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ';'
	}

	terms := make([]string, 0, len(cfg.FilterTerms))
	for _, t := range cfg.FilterTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}

	return &Extractor{
		terms:     terms,
		delimiter: cfg.Delimiter,
		logger:    logger.With(slog.String("component", "extractor")),
	}
}

// Matches reports whether description contains every filter term.
// An empty description never matches.
func (e *Extractor) Matches(description string) bool {
	d := strings.ToLower(strings.TrimSpace(description))
	if d == "" {
		return false
	}
	for _, term := range e.terms {
		if !strings.Contains(d, term) {
			return false
		}
	}
	return true
}

// ExtractDir processes every archive in dir in lexical file-name order and
// returns the concatenated matches. No matches yields an empty slice.
func (e *Extractor) ExtractDir(ctx context.Context, dir string) ([]domain.RawRow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewNotFoundError("archive directory").
			WithContext("dir", dir).
			WithContext("cause", err.Error())
	}

	var archives []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), archiveSuffix) {
			continue
		}
		archives = append(archives, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(archives)

	e.logger.InfoContext(ctx, "scanning archives",
		slog.String("dir", dir),
		slog.Int("archive_count", len(archives)))

	rows := make([]domain.RawRow, 0)
	skipped := 0
	for _, archive := range archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matched, err := e.ExtractArchive(ctx, archive)
		if err != nil {
			skipped++
			e.logger.WarnContext(ctx, "archive skipped",
				slog.String("archive", filepath.Base(archive)),
				slog.String("error", err.Error()))
			continue
		}
		rows = append(rows, matched...)
	}

	e.logger.InfoContext(ctx, "extraction finished",
		slog.Int("archives", len(archives)),
		slog.Int("archives_skipped", skipped),
		slog.Int("rows_matched", len(rows)))

	return rows, nil
}

// ExtractArchive returns the matching rows of one archive, in member order.
// Members that cannot be parsed are logged and skipped.
func (e *Extractor) ExtractArchive(ctx context.Context, archivePath string) ([]domain.RawRow, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open archive", err).
			WithContext("archive", archivePath)
	}
	defer zr.Close()

	archiveName := filepath.Base(archivePath)
	var rows []domain.RawRow

	for _, member := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if member.FileInfo().IsDir() {
			continue
		}

		kind := memberKind(member.Name)
		if kind == kindUnsupported {
			e.logger.DebugContext(ctx, "ignoring member",
				slog.String("archive", archiveName),
				slog.String("member", member.Name))
			continue
		}

		table, err := e.readMember(member, kind)
		if err != nil {
			e.logger.WarnContext(ctx, "member skipped",
				slog.String("archive", archiveName),
				slog.String("member", member.Name),
				slog.String("error", err.Error()))
			continue
		}

		matched := e.filterTable(table, archiveName, member.Name)
		e.logger.DebugContext(ctx, "member processed",
			slog.String("archive", archiveName),
			slog.String("member", member.Name),
			slog.Int("rows", max(len(table)-1, 0)),
			slog.Int("matched", len(matched)))
		rows = append(rows, matched...)
	}

	return rows, nil
}

type kind int

const (
	kindUnsupported kind = iota
	kindText
	kindWorkbook
)

func memberKind(name string) kind {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".txt":
		return kindText
	case ".xlsx":
		return kindWorkbook
	default:
		return kindUnsupported
	}
}

func (e *Extractor) readMember(member *zip.File, k kind) ([][]string, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, fmt.Errorf("open member: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read member: %w", err)
	}

	if k == kindWorkbook {
		return readWorkbook(data)
	}
	return readDelimited(data, e.delimiter)
}

// decodeText returns data as UTF-8, falling back to ISO-8859-1 when data
// is not valid UTF-8.
func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode latin-1: %w", err)
	}
	return decoded, nil
}

func readDelimited(data []byte, delimiter rune) ([][]string, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	table, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited text: %w", err)
	}
	return table, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// raw values keep numeric cells free of display formatting
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// filterTable turns a header-first table into RawRows, keeping matches only
func (e *Extractor) filterTable(table [][]string, archiveName, memberName string) []domain.RawRow {
	if len(table) == 0 {
		return nil
	}

	header := make([]string, len(table[0]))
	descIdx := -1
	for i, h := range table[0] {
		header[i] = strings.ToUpper(strings.TrimSpace(h))
		if header[i] == domain.ColumnDescription && descIdx < 0 {
			descIdx = i
		}
	}
	if descIdx < 0 {
		e.logger.Debug("member has no description column",
			slog.String("archive", archiveName),
			slog.String("member", memberName))
		return nil
	}

	var rows []domain.RawRow
	for _, record := range table[1:] {
		if descIdx >= len(record) || !e.Matches(record[descIdx]) {
			continue
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if _, seen := fields[name]; seen {
				continue
			}
			if i < len(record) {
				fields[name] = record[i]
			} else {
				fields[name] = ""
			}
		}

		rows = append(rows, domain.RawRow{
			Fields:        fields,
			SourceArchive: archiveName,
			Member:        memberName,
		})
	}
	return rows
}
