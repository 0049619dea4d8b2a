package parsers

import (
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Column names on the statewide roster extract.
const (
	colRosterChildID   = "CHILD_PID"
	colRosterName      = "NM_PERSON_FULL"
	colRosterRecovered = "DT_RECOVERED"
	colRosterLegal     = "LEGAL_STATUS"
)

// RosterParser reads the statewide missing-children roster extract. The full
// row is preserved in header order so report writers can project the
// original columns.
type RosterParser struct {
	logger logger.Logger
}

// NewRosterParser creates a RosterParser.
func NewRosterParser(log logger.Logger) *RosterParser {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &RosterParser{logger: log.WithComponent("roster_parser")}
}

// ParseFile parses the roster extract's first sheet.
func (p *RosterParser) ParseFile(path string) (*models.RosterTable, *ParseStats, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.ParseError(errors.CodeEmptyFile, path, 0, "", nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = h
	}
	hm := headerMap(headers)
	if err := requireColumns(hm, path, colRosterChildID, colRosterRecovered, colRosterLegal); err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	table := &models.RosterTable{Headers: headers}

	for i, row := range rows[1:] {
		lineNo := i + 2
		if emptyRow(row) {
			continue
		}
		stats.TotalRows++

		// Pad short rows so projections stay aligned with the header.
		padded := make([]string, len(headers))
		copy(padded, row)

		entry := &models.RosterEntry{
			ChildID:     models.TrimID(cell(row, hm, colRosterChildID)),
			Name:        cell(row, hm, colRosterName),
			LegalStatus: cell(row, hm, colRosterLegal),
			Row:         padded,
		}
		entry.Recovered = coerceDate(row, hm, colRosterRecovered, stats, p.logger, lineNo)
		if entry.ChildID == "" {
			stats.SkippedRows++
			continue
		}

		table.Entries = append(table.Entries, entry)
		stats.ParsedRows++
	}

	p.logger.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
	}).Info("Parsed roster extract")

	return table, stats, nil
}
