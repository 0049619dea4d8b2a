package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// Archive moves processed files out of the working data directories so they
// do not accumulate. Files are moved, not copied.
type Archive struct {
	dir    string
	logger logger.Logger
	now    func() time.Time
}

// NewArchive creates an Archive rooted at dir.
func NewArchive(dir string, log logger.Logger) *Archive {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Archive{dir: dir, logger: log.WithComponent("archive"), now: time.Now}
}

// Store moves a file into the archive directory. The archived name carries
// the query period (unless the name already contains it) and a timestamp
// suffix, so repeated runs never collide.
func (a *Archive) Store(filePath, queryPeriod string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		return "", errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, a.dir, err)
	}

	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if queryPeriod != "" && !strings.Contains(stem, queryPeriod) {
		stem = stem + "_" + queryPeriod
	}

	timestamp := a.now().Format("060102_150405")
	archived := filepath.Join(a.dir, fmt.Sprintf("%s%s.%s", stem, ext, timestamp))

	if err := os.Rename(filePath, archived); err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	a.logger.WithFields(logger.Fields{
		"from": filePath,
		"to":   archived,
	}).Info("Archived file")

	return archived, nil
}
