package parsers

import (
	"strconv"
	"strings"
	"time"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Column names on the children-in-care extract feeding the outbound
// submission.
const (
	colCarePersonID  = "ID_PP_PERSON"
	colCareFirst     = "NM_PERSON_FIRST"
	colCareMiddle    = "NM_PERSON_MIDDLE"
	colCareLast      = "NM_PERSON_LAST"
	colCareBirth     = "DT_CHILD_BIRTH"
	colCareEntered   = "DT_ENTER_CARE"
	colCareExited    = "DT_EXIT_CARE"
	colCareGender    = "GENDER"
	colCareFiscalYr  = "RPT_FISCAL_YR"
	colCareQuarter   = "RPT_QTR"
)

// CareRecord is one row of the children-in-care extract, before episode
// picking and name expansion.
type CareRecord struct {
	PersonID    string
	FirstName   string
	MiddleName  string
	LastName    string
	DateOfBirth time.Time
	EnteredCare time.Time
	ExitedCare  time.Time
	Gender      string
	FiscalYear  int
	Quarter     int
}

// CareParser reads the children-in-care extract spreadsheet.
type CareParser struct {
	logger logger.Logger
}

// NewCareParser creates a CareParser.
func NewCareParser(log logger.Logger) *CareParser {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &CareParser{logger: log.WithComponent("care_parser")}
}

// ParseFile parses the extract's first sheet. Rows with unparseable fiscal
// year or quarter values are skipped with a warning rather than aborting;
// the extract mixes reporting periods and the caller filters by period.
func (p *CareParser) ParseFile(path string) ([]*CareRecord, *ParseStats, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.ParseError(errors.CodeEmptyFile, path, 0, "", nil)
	}

	hm := headerMap(rows[0])
	if err := requireColumns(hm, path,
		colCarePersonID, colCareFirst, colCareLast, colCareBirth,
		colCareEntered, colCareGender, colCareFiscalYr); err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	var records []*CareRecord

	for i, row := range rows[1:] {
		lineNo := i + 2
		if emptyRow(row) {
			continue
		}
		stats.TotalRows++

		rec := &CareRecord{
			// Extract renders some IDs with thousands separators.
			PersonID:   models.TrimID(strings.ReplaceAll(cell(row, hm, colCarePersonID), ",", "")),
			FirstName:  cell(row, hm, colCareFirst),
			MiddleName: cell(row, hm, colCareMiddle),
			LastName:   cell(row, hm, colCareLast),
			Gender:     cell(row, hm, colCareGender),
		}

		rec.DateOfBirth = coerceDate(row, hm, colCareBirth, stats, p.logger, lineNo)
		rec.EnteredCare = coerceDate(row, hm, colCareEntered, stats, p.logger, lineNo)
		rec.ExitedCare = coerceDate(row, hm, colCareExited, stats, p.logger, lineNo)

		fy := cell(row, hm, colCareFiscalYr)
		rec.FiscalYear, err = strconv.Atoi(strings.TrimPrefix(fy, "FY"))
		if err != nil {
			stats.SkippedRows++
			p.logger.WithField("line", lineNo).Warnf("Skipping row with bad fiscal year %q", fy)
			continue
		}

		if q := cell(row, hm, colCareQuarter); q != "" {
			rec.Quarter, err = strconv.Atoi(strings.TrimPrefix(q, "Q"))
			if err != nil {
				stats.SkippedRows++
				p.logger.WithField("line", lineNo).Warnf("Skipping row with bad quarter %q", q)
				continue
			}
		}

		records = append(records, rec)
		stats.ParsedRows++
	}

	p.logger.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
	}).Info("Parsed children-in-care extract")

	return records, stats, nil
}
