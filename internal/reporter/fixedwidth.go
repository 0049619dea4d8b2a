package reporter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"roster-reconciliation-service/internal/models"
	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Submission line layout: name left-justified in 30, ISO date in 10, sex in
// 1. No header, no separators.
const (
	submissionNameWidth = 30
	submissionLineWidth = 41
)

// WriteSubmission writes the fixed-width submission rows. Rows missing a
// name, birth date, or sex code are skipped with a warning; duplicates are
// written once. Returns the number of lines written.
func WriteSubmission(w io.Writer, rows []*models.SubmissionRow, log logger.Logger) (int, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("submission_writer")

	bw := bufio.NewWriter(w)
	seen := make(map[string]bool)
	written := 0
	skipped := 0

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		sex := strings.TrimSpace(row.Sex)
		if name == "" || sex == "" || row.DateOfBirth.IsZero() {
			skipped++
			continue
		}

		if len(name) > submissionNameWidth {
			name = name[:submissionNameWidth]
		}
		line := fmt.Sprintf("%-*s%s%s",
			submissionNameWidth, name,
			row.DateOfBirth.Format("2006-01-02"),
			sex[:1])

		if seen[line] {
			continue
		}
		seen[line] = true

		if _, err := bw.WriteString(line + "\n"); err != nil {
			return written, errors.FileError(errors.CodeDirectoryError, "submission", err)
		}
		written++
	}

	if err := bw.Flush(); err != nil {
		return written, errors.FileError(errors.CodeDirectoryError, "submission", err)
	}

	if skipped > 0 {
		log.Warnf("Skipped %d submission rows with missing name, birth date, or sex", skipped)
	}
	log.WithField("rows", written).Info("Wrote fixed-width submission")

	return written, nil
}

// WriteSubmissionFile writes the submission rows to a file path.
func WriteSubmissionFile(path string, rows []*models.SubmissionRow, log logger.Logger) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, errors.FileError(errors.CodeDirectoryError, path, err)
	}
	defer file.Close()

	return WriteSubmission(file, rows, log)
}
