// Package common contains shared functionality for command handlers
package common

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/stmt-categorizer/internal/container"
	"fjacquet/stmt-categorizer/internal/currencyutils"
	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/hierarchy"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/pdftext"
	"fjacquet/stmt-categorizer/internal/pipeline"
	"fjacquet/stmt-categorizer/internal/textutils"
)

// ErrNoContainer is returned when a command runs before initialization.
var ErrNoContainer = fmt.Errorf("container not initialized")

// RequireContainer returns c, or ErrNoContainer when it is nil.
func RequireContainer(c *container.Container) (*container.Container, error) {
	if c == nil {
		return nil, ErrNoContainer
	}
	return c, nil
}

// ReadDocument loads a statement file. PDFs are converted with extractor;
// other files are decoded to UTF-8.
func ReadDocument(ctx context.Context, extractor pdftext.Extractor, path, format string) (detector.Document, error) {
	if path == "" {
		return detector.Document{}, fmt.Errorf("input file is required")
	}
	f, err := detector.ParseFormat(format)
	if err != nil {
		return detector.Document{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return detector.Document{}, fmt.Errorf("error reading input file: %w", err)
	}

	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") || bytes.HasPrefix(raw, []byte("%PDF")) {
		text, err = extractor.ExtractText(ctx, path)
		if err != nil {
			return detector.Document{}, err
		}
	} else {
		if textutils.LooksBinary(raw) {
			return detector.Document{}, fmt.Errorf("%s is neither a PDF nor a text statement", path)
		}
		text, err = textutils.DecodeDocument(raw, "")
		if err != nil {
			return detector.Document{}, err
		}
	}

	return detector.Document{Text: text, Filename: filepath.Base(path), Format: f}, nil
}

// PrintReport writes a human-readable import report to w.
func PrintReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "Import %s (%s)\n", report.ID, report.Format.Label())
	if holder := report.Statement.Holder.Name; holder != "" {
		fmt.Fprintf(w, "Holder: %s\n", holder)
	}
	if period := report.Period.String(); period != "" {
		fmt.Fprintf(w, "Period: %s\n", period)
	}
	for _, c := range report.Categorized {
		fmt.Fprintf(w, "  %3d  %-40s %10s  %-14s %s\n",
			c.Index, c.Operation.Description, currencyutils.FormatAmount(c.Operation.SignedAmount(), ""),
			c.Result.Category.Label(), c.Result.Source)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  %3d  %-40s %10s  FAILED: %s\n",
			f.Index, f.Operation.Description, currencyutils.FormatAmount(f.Operation.SignedAmount(), ""), f.Reason)
	}
	for _, s := range report.SkippedLines {
		fmt.Fprintf(w, "  line %d skipped: %s\n", s.Line, s.Reason)
	}
	fmt.Fprintln(w, report.Summary())
}

// PrintTree writes the category tree to w, indenting children.
func PrintTree(w io.Writer, roots []*models.Category) {
	for _, e := range hierarchy.Flatten(roots) {
		line := strings.Repeat("  ", e.Depth) + e.Category.Name
		if e.Category.Code != "" {
			line += fmt.Sprintf(" [%s]", e.Category.Code)
		}
		fmt.Fprintf(w, "%s (%s)\n", line, e.Category.ID)
	}
}
