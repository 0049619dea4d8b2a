package parsers

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Column names on the person reference spreadsheet (the expanded-variant
// table sent out with the submission and read back at reconciliation time).
const (
	colPersonName    = "Name"
	colPersonDOB     = "Date_of_Birth"
	colPersonID      = "Person_ID"
	colPersonEntered = "Entered_Care"
	colPersonExited  = "Exited_Care"
)

// PersonsParser reads the person reference spreadsheet into PersonRecords.
// One row per expanded name variant per care episode; the multiplicity is
// what makes the exact join work.
type PersonsParser struct {
	logger logger.Logger
}

// NewPersonsParser creates a PersonsParser.
func NewPersonsParser(log logger.Logger) *PersonsParser {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &PersonsParser{logger: log.WithComponent("persons_parser")}
}

// ParseFile parses the reference spreadsheet's first sheet.
func (p *PersonsParser) ParseFile(path string) ([]*models.PersonRecord, *ParseStats, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.ParseError(errors.CodeEmptyFile, path, 0, "", nil)
	}

	hm := headerMap(rows[0])
	if err := requireColumns(hm, path,
		colPersonName, colPersonDOB, colPersonID, colPersonEntered, colPersonExited); err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	var persons []*models.PersonRecord

	for i, row := range rows[1:] {
		lineNo := i + 2
		if emptyRow(row) {
			continue
		}
		stats.TotalRows++

		person := &models.PersonRecord{
			Name:     cell(row, hm, colPersonName),
			PersonID: models.TrimID(cell(row, hm, colPersonID)),
		}

		person.DateOfBirth = coerceDate(row, hm, colPersonDOB, stats, p.logger, lineNo)
		person.EnteredCare = coerceDate(row, hm, colPersonEntered, stats, p.logger, lineNo)
		person.ExitedCare = coerceDate(row, hm, colPersonExited, stats, p.logger, lineNo)

		if err := person.Validate(); err != nil {
			stats.SkippedRows++
			p.logger.WithField("line", lineNo).Debug("Skipping person row: ", err)
			continue
		}

		persons = append(persons, person)
		stats.ParsedRows++
	}

	if stats.ParsedRows == 0 {
		return nil, nil, errors.ValidationError(errors.CodeEmptyDataset, "persons", path, nil)
	}

	p.logger.WithFields(logger.Fields{
		"file":   path,
		"parsed": stats.ParsedRows,
	}).Info("Parsed person reference table")

	return persons, stats, nil
}

// readSheet loads the first sheet of a workbook as string rows.
func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError(errors.CodeEmptyFile, path, 0, "", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "", err)
	}
	return rows, nil
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
