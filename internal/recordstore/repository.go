// Package recordstore persists categories, patterns and import reports in a
// SQLite database.
package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fjacquet/stmt-categorizer/internal/dateutils"
	"fjacquet/stmt-categorizer/internal/logging"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/pipeline"
)

// ErrImportNotFound is returned by GetImport for unknown ids.
var ErrImportNotFound = errors.New("import not found")

const timestampLayout = time.RFC3339Nano

// SQLiteRepository is the SQLite record store.
type SQLiteRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it.
func NewSQLiteRepository(dbPath string, logger logging.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("Opened record store", logging.Field{Key: logging.FieldFile, Value: dbPath})
	return &SQLiteRepository{db: db, logger: logger}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListCategories returns every category row.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, parent_id, code FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		var code string
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &code); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Code = models.TransactionCategory(code)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SaveCategories replaces every category row.
func (r *SQLiteRepository) SaveCategories(ctx context.Context, categories []models.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, parent_id, code) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.ParentID, string(c.Code)); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit categories: %w", err)
	}

	r.logger.Info("Saved categories", logging.Field{Key: logging.FieldCount, Value: len(categories)})
	return nil
}

// ListPatterns returns the patterns in insertion order.
func (r *SQLiteRepository) ListPatterns(ctx context.Context) ([]models.CategorizationPattern, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, pattern, category_id, priority, created_at, updated_at FROM patterns ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var list []models.CategorizationPattern
	for rows.Next() {
		var (
			p                    models.CategorizationPattern
			createdAt, updatedAt string
		)
		if err := rows.Scan(&p.ID, &p.Pattern, &p.CategoryID, &p.Priority, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		p.CreatedAt = parseTimestamp(createdAt)
		p.UpdatedAt = parseTimestamp(updatedAt)
		list = append(list, p)
	}
	return list, rows.Err()
}

// SavePattern inserts p or updates the row with its id, keeping the row's
// position.
func (r *SQLiteRepository) SavePattern(ctx context.Context, p models.CategorizationPattern) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patterns (id, pattern, category_id, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pattern = excluded.pattern,
			category_id = excluded.category_id,
			priority = excluded.priority,
			updated_at = excluded.updated_at`,
		p.ID, p.Pattern, p.CategoryID, p.Priority, formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save pattern %s: %w", p.ID, err)
	}
	return nil
}

// DeletePattern removes the pattern with id.
func (r *SQLiteRepository) DeletePattern(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete pattern %s: %w", id, err)
	}
	return nil
}

// SaveImport stores the report, its operations and their categories in one
// transaction.
func (r *SQLiteRepository) SaveImport(ctx context.Context, report *pipeline.Report) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := report.Statement
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO imports (id, format, filename, holder, statement_number, issue_date, closing_date,
			opening_balance, imported_at, imported, failed, skipped_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, string(report.Format), report.Filename, stmt.Holder.Name, stmt.Info.StatementNumber,
		dateutils.ToISODate(stmt.Info.IssueDate), dateutils.ToISODate(stmt.Info.ClosingDate),
		nullableDecimal(stmt.Info.OpeningBalance), formatTimestamp(report.ImportedAt),
		report.Imported(), report.Failed(), len(report.SkippedLines)); err != nil {
		return fmt.Errorf("insert import %s: %w", report.ID, err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO operations (import_id, idx, operation_date, value_date, description, debit, credit,
			category, category_id, source, confidence, failure_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare operation insert: %w", err)
	}
	defer insert.Close()

	for _, c := range report.Categorized {
		if err := insertOperation(ctx, insert, report.ID, c.Index, c.Operation, c.Result, ""); err != nil {
			return err
		}
	}
	for _, f := range report.Failures {
		if err := insertOperation(ctx, insert, report.ID, f.Index, f.Operation, models.CategorizationResult{}, f.Reason); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import %s: %w", report.ID, err)
	}

	r.logger.Info("Saved import",
		logging.Field{Key: logging.FieldImportID, Value: report.ID},
		logging.Field{Key: logging.FieldCount, Value: stmt.Len()})
	return nil
}

func insertOperation(ctx context.Context, insert *sql.Stmt, importID string, idx int, op models.BankOperation, res models.CategorizationResult, reason string) error {
	_, err := insert.ExecContext(ctx, importID, idx,
		dateutils.ToISODate(op.OperationDate), dateutils.ToISODate(op.ValueDate), op.Description,
		nullableDecimal(op.Debit), nullableDecimal(op.Credit),
		string(res.Category), res.CategoryID, res.Source, res.Confidence, reason)
	if err != nil {
		return fmt.Errorf("insert operation %d: %w", idx, err)
	}
	return nil
}

// ImportRecord is a stored import with its operations in document order.
type ImportRecord struct {
	ID           string
	Format       string
	Filename     string
	Holder       string
	ImportedAt   time.Time
	Imported     int
	Failed       int
	SkippedLines int
	Operations   []OperationRecord
}

// OperationRecord is a stored operation.
type OperationRecord struct {
	Index         int
	OperationDate string
	Description   string
	Amount        decimal.Decimal
	Category      models.TransactionCategory
	Source        string
	FailureReason string
}

// GetImport loads a stored import.
func (r *SQLiteRepository) GetImport(ctx context.Context, id string) (*ImportRecord, error) {
	rec := &ImportRecord{}
	var importedAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, format, filename, holder, imported_at, imported, failed, skipped_lines
		FROM imports WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Format, &rec.Filename, &rec.Holder, &importedAt, &rec.Imported, &rec.Failed, &rec.SkippedLines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get import %s: %w", id, err)
	}
	rec.ImportedAt = parseTimestamp(importedAt)

	rows, err := r.db.QueryContext(ctx, `
		SELECT idx, operation_date, description, debit, credit, category, source, failure_reason
		FROM operations WHERE import_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("list operations of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			op            OperationRecord
			debit, credit sql.NullString
			category      string
		)
		if err := rows.Scan(&op.Index, &op.OperationDate, &op.Description, &debit, &credit, &category, &op.Source, &op.FailureReason); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		switch {
		case debit.Valid:
			d, err := decimal.NewFromString(debit.String)
			if err != nil {
				return nil, fmt.Errorf("decode debit of operation %d: %w", op.Index, err)
			}
			op.Amount = d.Neg()
		case credit.Valid:
			c, err := decimal.NewFromString(credit.String)
			if err != nil {
				return nil, fmt.Errorf("decode credit of operation %d: %w", op.Index, err)
			}
			op.Amount = c
		}
		op.Category = models.TransactionCategory(category)
		rec.Operations = append(rec.Operations, op)
	}
	return rec, rows.Err()
}

func nullableDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
