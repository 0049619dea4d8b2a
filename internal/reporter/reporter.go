// Package reporter renders run outputs: spreadsheet reports for review, CSV
// exports, a console summary, and the fixed-width submission file.
package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"roster-reconciliation-service/internal/fiscal"
	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Reporter writes report tables to an output directory, with file names
// tagged by reporting period.
type Reporter struct {
	outputDir string
	period    fiscal.Period
	logger    logger.Logger
}

// NewReporter creates a Reporter. The output directory is created when
// missing.
func NewReporter(outputDir string, period fiscal.Period, log logger.Logger) (*Reporter, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, outputDir, err)
	}
	return &Reporter{
		outputDir: outputDir,
		period:    period,
		logger:    log.WithComponent("reporter"),
	}, nil
}

// SpreadsheetPath returns the output path for a table's spreadsheet.
func (r *Reporter) SpreadsheetPath(table *models.Table) string {
	return filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.xlsx", table.Name, r.period.Label()))
}

// WriteSpreadsheet writes one table as a single-sheet workbook and returns
// the path written.
func (r *Reporter) WriteSpreadsheet(table *models.Table) (string, error) {
	path := r.SpreadsheetPath(table)

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headerRow := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return "", errors.ReconciliationError(errors.CodeReportFailed, table.Name, err)
	}

	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", errors.ReconciliationError(errors.CodeReportFailed, table.Name, err)
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return "", errors.ReconciliationError(errors.CodeReportFailed, table.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, path, err)
	}

	r.logger.WithFields(logger.Fields{
		"report": table.Name,
		"rows":   len(table.Rows),
		"path":   path,
	}).Info("Wrote spreadsheet report")

	return path, nil
}

// WriteCSV writes one table as CSV and returns the path written.
func (r *Reporter) WriteCSV(table *models.Table) (string, error) {
	path := filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.csv", table.Name, r.period.Label()))

	file, err := os.Create(path)
	if err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Headers); err != nil {
		return "", errors.ReconciliationError(errors.CodeReportFailed, table.Name, err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return "", errors.ReconciliationError(errors.CodeReportFailed, table.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.ReconciliationError(errors.CodeReportFailed, table.Name, err)
	}

	r.logger.WithFields(logger.Fields{
		"report": table.Name,
		"rows":   len(table.Rows),
		"path":   path,
	}).Info("Wrote CSV report")

	return path, nil
}

// WriteSummary prints the run's row counts to a writer, usually stdout.
func WriteSummary(w io.Writer, period fiscal.Period, tables ...*models.Table) {
	fmt.Fprintf(w, "Reconciliation summary for %s\n", period.Label())
	fmt.Fprintf(w, "%s\n", "----------------------------------------")
	for _, t := range tables {
		fmt.Fprintf(w, "%-28s %6d rows\n", t.Name, len(t.Rows))
	}
}
