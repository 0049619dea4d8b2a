// Package parsers ingests the tabular inputs of a reconciliation run: the
// colon-delimited results file returned by the public-safety side, the
// spreadsheet reference tables, the roster extract, and the county lookup
// files. Parsers accept readers or paths and return typed records plus the
// raw table where downstream reports need to project original columns.
package parsers

import (
	"os"
	"strings"
	"time"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// ParseStats summarizes one parse operation.
type ParseStats struct {
	TotalRows    int
	ParsedRows   int
	SkippedRows  int
	CoercedDates int
}

// headerMap builds a trimmed header -> index map.
func headerMap(headers []string) map[string]int {
	m := make(map[string]int, len(headers))
	for i, h := range headers {
		m[strings.TrimSpace(h)] = i
	}
	return m
}

// requireColumns verifies that every named column is present. A missing
// column means a format change upstream and is fatal.
func requireColumns(m map[string]int, file string, names ...string) error {
	for _, name := range names {
		if _, ok := m[name]; !ok {
			return errors.ParseError(errors.CodeMissingColumn, file, 1, name, nil)
		}
	}
	return nil
}

// cell returns the trimmed value at the named column, or "" when the column
// is absent or the row is short.
func cell(row []string, m map[string]int, name string) string {
	idx, ok := m[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// coerceDate parses the named date cell. A bad value never discards the
// row: it is coerced to the zero time, counted, and logged, and downstream
// predicates treat the zero time as unknown.
func coerceDate(row []string, hm map[string]int, col string, stats *ParseStats, log logger.Logger, lineNo int) time.Time {
	raw := cell(row, hm, col)
	t, err := models.ParseDate(raw)
	if err != nil {
		stats.CoercedDates++
		log.WithFields(logger.Fields{
			"line":   lineNo,
			"column": col,
			"value":  raw,
		}).Warn("Unparseable date treated as unknown")
		return time.Time{}
	}
	return t
}

// openInput opens an input file, mapping OS errors to the categorized kinds.
func openInput(path string, log logger.Logger) (*os.File, error) {
	log.WithField("file_path", path).Debug("Opening input file")

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeDirectoryError, path, err)
	}
	return file, nil
}
