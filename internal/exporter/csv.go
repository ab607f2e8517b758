package exporter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"ansanalytics/internal/config"
	apperrors "ansanalytics/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOutcome reports what happened to one output file
type WriteOutcome string

const (
	Written       WriteOutcome = "written"
	SkippedLocked WriteOutcome = "skipped_locked"
	SkippedError  WriteOutcome = "skipped_error"
)

// CSVWriter writes tables as delimited files
type CSVWriter struct {
	paths     *config.Paths
	delimiter rune
	logger    *slog.Logger
}

// NewCSVWriter creates a writer. Relative paths are resolved under the
// output directory of paths; a zero delimiter means ';'.
func NewCSVWriter(paths *config.Paths, delimiter rune, logger *slog.Logger) *CSVWriter {
	if delimiter == 0 {
		delimiter = ';'
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		paths:     paths,
		delimiter: delimiter,
		logger:    logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteTable writes the UTF-8 BOM, the header and every row, creating parent
// directories as needed. An existing file is truncated.
func (w *CSVWriter) WriteTable(filePath string, table Table) error {
	fullPath := w.resolvePath(filePath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		if isLockError(err) {
			return apperrors.NewPermissionError("output directory is not writable", err).
				WithContext("path", dir)
		}
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		if isLockError(err) {
			return apperrors.NewPermissionError("file is locked or not writable", err).
				WithContext("path", fullPath)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	writer.Comma = w.delimiter

	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range table.Rows {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return file.Close()
}

// Persist writes table and classifies the result. Failures are logged and
// reported through the outcome, never returned.
func (w *CSVWriter) Persist(ctx context.Context, filePath string, table Table) WriteOutcome {
	fullPath := w.resolvePath(filePath)

	err := w.WriteTable(fullPath, table)
	switch {
	case err == nil:
		w.logger.InfoContext(ctx, "file saved",
			slog.String("path", fullPath),
			slog.Int("rows", table.Len()))
		return Written
	case apperrors.IsType(err, apperrors.ErrTypePermission):
		w.logger.ErrorContext(ctx, "file is locked or not writable: close the file and retry",
			slog.String("path", fullPath),
			slog.String("file", filepath.Base(fullPath)),
			slog.String("error", err.Error()))
		return SkippedLocked
	default:
		w.logger.ErrorContext(ctx, "failed to save file",
			slog.String("path", fullPath),
			slog.String("file", filepath.Base(fullPath)),
			slog.String("error", err.Error()))
		return SkippedError
	}
}

func isLockError(err error) bool {
	return errors.Is(err, fs.ErrPermission) || isSharingViolation(err)
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetOutputPath(filePath)
}
