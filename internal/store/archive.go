package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/pipeline"
)

// ImportArchive saves import reports as JSON files in Dir. It is the report
// sink used when records are kept in files rather than SQLite.
type ImportArchive struct {
	Dir    string
	logger logging.Logger
}

// NewImportArchive creates an archive writing to dir.
func NewImportArchive(dir string, logger logging.Logger) *ImportArchive {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &ImportArchive{Dir: dir, logger: logger}
}

// FileName returns the archive file name for a report:
// "<period>_<format>_<id>.json", or "<format>_<id>.json" when the statement
// has no dated operation.
func FileName(report *pipeline.Report) string {
	parts := []string{}
	if period := report.Period.String(); period != "" {
		parts = append(parts, period)
	}
	parts = append(parts, strings.ToLower(report.Format.String()), report.ID)
	return strings.Join(parts, "_") + ".json"
}

// SaveImport writes report to Dir. An existing file for the same report is
// replaced.
func (a *ImportArchive) SaveImport(ctx context.Context, report *pipeline.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report == nil || report.ID == "" {
		return fmt.Errorf("cannot archive a report without id")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal import %s: %w", report.ID, err)
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create imports directory: %w", err)
	}

	path := filepath.Join(a.Dir, FileName(report))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write import %s: %w", report.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write import %s: %w", report.ID, err)
	}

	a.logger.Info("Archived import",
		logging.Field{Key: logging.FieldImportID, Value: report.ID},
		logging.Field{Key: logging.FieldFile, Value: path})
	return nil
}
