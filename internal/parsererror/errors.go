// Package parsererror defines the typed errors raised by the import pipeline.
// Callers distinguish them with errors.As; every wrapper implements Unwrap so
// the underlying cause stays reachable with errors.Is.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimited is returned when a classifier call cannot acquire a rate
// limiter slot before its deadline.
var ErrRateLimited = errors.New("classifier rate limit exceeded")

// ParseError represents an error during parsing of a single value.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents an input document that cannot be read as a
// statement at all (empty, binary, unknown selector).
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string // Optional: a snippet of the actual content for debugging
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// FormatDetectionAmbiguousError is returned when the content of a document
// carries the signature of more than one bank and no format was pinned.
type FormatDetectionAmbiguousError struct {
	Filename   string
	Candidates []string
}

func (e *FormatDetectionAmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous statement format for '%s': matches %s; select a format explicitly",
		e.Filename, strings.Join(e.Candidates, ", "))
}

// NoOperationsFoundError is returned when extraction completes without a
// single operation line; the caller may retry with another format.
type NoOperationsFoundError struct {
	Format       string
	SkippedLines int
}

func (e *NoOperationsFoundError) Error() string {
	if e.SkippedLines > 0 {
		return fmt.Sprintf("no operations found using %s layout (%d malformed lines skipped)",
			e.Format, e.SkippedLines)
	}
	return fmt.Sprintf("no operations found using %s layout", e.Format)
}

// MalformedOperationLineError describes a line shaped like an operation that
// could not be turned into one. It is reported, never fatal.
type MalformedOperationLineError struct {
	Line   int
	Text   string
	Reason string
	Err    error
}

func (e *MalformedOperationLineError) Error() string {
	return fmt.Sprintf("malformed operation line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *MalformedOperationLineError) Unwrap() error {
	return e.Err
}

// ClassificationUnavailableError is returned when the remote classifier
// cannot be reached, times out or is not configured.
type ClassificationUnavailableError struct {
	Description string
	Err         error
}

func (e *ClassificationUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("classification unavailable for %q", e.Description)
	}
	return fmt.Sprintf("classification unavailable for %q: %v", e.Description, e.Err)
}

func (e *ClassificationUnavailableError) Unwrap() error {
	return e.Err
}

// InvalidClassificationOutputError is returned when the classifier answered
// with something outside the category vocabulary.
type InvalidClassificationOutputError struct {
	Description string
	Output      string
}

func (e *InvalidClassificationOutputError) Error() string {
	return fmt.Sprintf("classifier returned %q for %q, which is not a known category",
		e.Output, e.Description)
}

// CategorizationError attaches the strategy name to a categorization failure.
type CategorizationError struct {
	Transaction string
	Strategy    string
	Err         error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %s using %s: %v",
		e.Transaction, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}
