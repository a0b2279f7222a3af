// Package pipeline orchestrates an import: format detection, statement
// extraction and per-operation categorization.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/events"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/stmtparser"
)

// DefaultMaxConcurrency caps concurrent categorizations when unset.
const DefaultMaxConcurrency = 4

// Categorizer assigns a category to one description.
type Categorizer interface {
	Categorize(ctx context.Context, description string) (models.CategorizationResult, error)
}

// ReportSink persists import reports.
type ReportSink interface {
	SaveImport(ctx context.Context, report *Report) error
}

// Options configures an Importer.
type Options struct {
	MaxConcurrency int
	// Sink and Publisher are used by Save; both are optional.
	Sink      ReportSink
	Publisher events.Publisher
}

// Importer runs documents through the pipeline.
type Importer struct {
	detector    *detector.Detector
	extractor   *stmtparser.Extractor
	categorizer Categorizer
	limit       int
	sink        ReportSink
	publisher   events.Publisher
	logger      logging.Logger
	now         func() time.Time
}

// NewImporter creates an Importer.
func NewImporter(det *detector.Detector, ext *stmtparser.Extractor, cat Categorizer, opts Options, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	return &Importer{
		detector:    det,
		extractor:   ext,
		categorizer: cat,
		limit:       opts.MaxConcurrency,
		sink:        opts.Sink,
		publisher:   opts.Publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Import detects the document's format, extracts its operations and
// categorizes each one. Detection and extraction failures abort the import;
// categorization failures are reported per operation.
func (im *Importer) Import(ctx context.Context, doc detector.Document) (*Report, error) {
	format, err := im.detector.Detect(doc)
	if err != nil {
		return nil, err
	}

	res, err := im.extractor.Extract(doc.Text, format)
	if err != nil {
		return nil, err
	}

	report := newReport(doc, res, im.now().UTC())
	log := im.logger.WithFields(
		logging.Field{Key: logging.FieldImportID, Value: report.ID},
		logging.Field{Key: logging.FieldFile, Value: doc.Filename},
		logging.Field{Key: logging.FieldFormat, Value: format},
	)

	indices := make([]int, res.Statement.Len())
	for i := range indices {
		indices[i] = i
	}
	categorized, failures, err := im.categorizeAll(ctx, res.Statement, indices)
	if err != nil {
		return nil, fmt.Errorf("import cancelled: %w", err)
	}
	report.Categorized = categorized
	report.Failures = failures

	log.Info("Import completed", logging.Field{Key: logging.FieldStatus, Value: report.Summary()})
	return report, nil
}

// Retry categorizes the report's failed operations again and moves those
// that succeed into Categorized, keeping document order.
func (im *Importer) Retry(ctx context.Context, report *Report) error {
	if len(report.Failures) == 0 {
		return nil
	}
	indices := make([]int, len(report.Failures))
	for i, f := range report.Failures {
		indices[i] = f.Index
	}

	categorized, failures, err := im.categorizeAll(ctx, report.Statement, indices)
	if err != nil {
		return fmt.Errorf("retry cancelled: %w", err)
	}

	report.Categorized = append(report.Categorized, categorized...)
	sort.SliceStable(report.Categorized, func(i, j int) bool {
		return report.Categorized[i].Index < report.Categorized[j].Index
	})
	report.Failures = failures

	im.logger.Info("Retried failed operations",
		logging.Field{Key: logging.FieldImportID, Value: report.ID},
		logging.Field{Key: logging.FieldStatus, Value: report.Summary()})
	return nil
}

// CategorizeOne categorizes a single description.
func (im *Importer) CategorizeOne(ctx context.Context, description string) (models.CategorizationResult, error) {
	return im.categorizer.Categorize(ctx, description)
}

type slot struct {
	result models.CategorizationResult
	err    error
}

// categorizeAll categorizes the operations at indices with at most limit
// calls in flight. Results come back in the order of indices. Only a
// cancelled context is returned as an error.
func (im *Importer) categorizeAll(ctx context.Context, stmt *models.BankStatement, indices []int) ([]CategorizedOperation, []OperationFailure, error) {
	slots := make([]slot, len(indices))

	var g errgroup.Group
	g.SetLimit(im.limit)
	for i, idx := range indices {
		if ctx.Err() != nil {
			break
		}
		desc := stmt.Operation(idx).Description
		g.Go(func() error {
			result, err := im.categorizer.Categorize(ctx, desc)
			slots[i] = slot{result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	categorized := make([]CategorizedOperation, 0, len(indices))
	failures := make([]OperationFailure, 0)
	for i, idx := range indices {
		op := stmt.Operation(idx)
		if slots[i].err != nil {
			im.logger.WithError(slots[i].err).Debug("Operation not categorized",
				logging.Field{Key: logging.FieldIndex, Value: idx},
				logging.Field{Key: logging.FieldDescription, Value: op.Description})
			failures = append(failures, OperationFailure{
				Index: idx, Operation: op, Reason: slots[i].err.Error(), Err: slots[i].err,
			})
			continue
		}
		categorized = append(categorized, CategorizedOperation{Index: idx, Operation: op, Result: slots[i].result})
	}
	return categorized, failures, nil
}

// Save persists report through the configured sink and publishes an
// ImportCompleted event. A publishing failure is logged and does not undo
// the save.
func (im *Importer) Save(ctx context.Context, report *Report) error {
	if im.sink == nil {
		return fmt.Errorf("no record store configured")
	}
	if err := im.sink.SaveImport(ctx, report); err != nil {
		return fmt.Errorf("save import %s: %w", report.ID, err)
	}

	msg := events.ImportCompleted{
		ImportID:     report.ID,
		Format:       string(report.Format),
		Filename:     report.Filename,
		Imported:     report.Imported(),
		Failed:       report.Failed(),
		SkippedLines: len(report.SkippedLines),
		Timestamp:    im.now().UTC(),
	}
	if err := im.publisher.PublishImportCompleted(ctx, msg); err != nil {
		im.logger.WithError(err).Warn("Failed to publish import event",
			logging.Field{Key: logging.FieldImportID, Value: report.ID})
	}
	return nil
}
