package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/stmtparser"
)

// DateRange represents a date range with start and end dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD".
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// Include widens the range to contain t. Zero times are ignored.
func (dr DateRange) Include(t time.Time) DateRange {
	if t.IsZero() {
		return dr
	}
	if dr.Start.IsZero() || t.Before(dr.Start) {
		dr.Start = t
	}
	if dr.End.IsZero() || t.After(dr.End) {
		dr.End = t
	}
	return dr
}

// CategorizedOperation is an operation with its category. Index refers to
// the statement's operations.
type CategorizedOperation struct {
	Index     int                         `json:"index"`
	Operation models.BankOperation        `json:"operation"`
	Result    models.CategorizationResult `json:"result"`
}

// OperationFailure is an operation the categorizer could not handle.
type OperationFailure struct {
	Index     int                  `json:"index"`
	Operation models.BankOperation `json:"operation"`
	Reason    string               `json:"reason"`
	Err       error                `json:"-"`
}

// Report is the outcome of one import. Categorized and Failures are in
// document order and together cover every operation of Statement.
type Report struct {
	ID           string                   `json:"id"`
	Format       detector.Format          `json:"format"`
	Filename     string                   `json:"filename,omitempty"`
	ImportedAt   time.Time                `json:"imported_at"`
	Period       DateRange                `json:"period"`
	Statement    *models.BankStatement    `json:"statement"`
	Categorized  []CategorizedOperation   `json:"categorized"`
	Failures     []OperationFailure       `json:"failures"`
	SkippedLines []stmtparser.SkippedLine `json:"skipped_lines"`
}

func newReport(doc detector.Document, res *stmtparser.Result, now time.Time) *Report {
	r := &Report{
		ID:           uuid.NewString(),
		Format:       res.Format,
		Filename:     doc.Filename,
		ImportedAt:   now,
		Statement:    res.Statement,
		Categorized:  []CategorizedOperation{},
		Failures:     []OperationFailure{},
		SkippedLines: res.SkippedLines,
	}
	if r.SkippedLines == nil {
		r.SkippedLines = []stmtparser.SkippedLine{}
	}
	for _, op := range res.Statement.Operations() {
		r.Period = r.Period.Include(op.OperationDate)
	}
	return r
}

// Imported returns the number of categorized operations.
func (r *Report) Imported() int { return len(r.Categorized) }

// Failed returns the number of operations that could not be categorized.
func (r *Report) Failed() int { return len(r.Failures) }

// Summary returns "N imported, M failed", followed by the number of skipped
// lines when there are any.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d imported, %d failed", r.Imported(), r.Failed())
	if n := len(r.SkippedLines); n > 0 {
		s += fmt.Sprintf(", %d lines skipped", n)
	}
	return s
}
