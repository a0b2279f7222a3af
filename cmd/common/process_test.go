package common

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-categorizer/internal/detector"
	"fjacquet/stmt-categorizer/internal/models"
	"fjacquet/stmt-categorizer/internal/pdftext"
	"fjacquet/stmt-categorizer/internal/pipeline"
	"fjacquet/stmt-categorizer/internal/stmtparser"
)

func TestRequireContainer(t *testing.T) {
	_, err := RequireContainer(nil)
	assert.ErrorIs(t, err, ErrNoContainer)
}

func TestReadDocument_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releve.txt")
	// "Libellé" in windows-1252
	require.NoError(t, os.WriteFile(path, []byte("Date Libell\xe9\n"), 0644))

	doc, err := ReadDocument(context.Background(), &pdftext.MockExtractor{}, path, "fortuneo")
	require.NoError(t, err)
	assert.Equal(t, "Date Libellé\n", doc.Text)
	assert.Equal(t, "releve.txt", doc.Filename)
	assert.Equal(t, detector.FormatFortuneo, doc.Format)
}

func TestReadDocument_PDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releve.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0644))

	doc, err := ReadDocument(context.Background(), &pdftext.MockExtractor{Text: "extracted"}, path, "")
	require.NoError(t, err)
	assert.Equal(t, "extracted", doc.Text)
	assert.Equal(t, detector.FormatAuto, doc.Format)

	boom := errors.New("pdftotext missing")
	_, err = ReadDocument(context.Background(), &pdftext.MockExtractor{Err: boom}, path, "")
	assert.ErrorIs(t, err, boom)
}

func TestReadDocument_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := ReadDocument(ctx, nil, "", "")
	assert.EqualError(t, err, "input file is required")

	_, err = ReadDocument(ctx, nil, filepath.Join(dir, "x.txt"), "cic")
	assert.Error(t, err)

	_, err = ReadDocument(ctx, nil, filepath.Join(dir, "missing.txt"), "")
	assert.Error(t, err)

	bin := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(bin, []byte{0x89, 'P', 'N', 'G', 0, 0}, 0644))
	_, err = ReadDocument(ctx, nil, bin, "")
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	op := models.NewDebitOperation(day, day, "CB LIDL", decimal.RequireFromString("9.99"))
	report := &pipeline.Report{
		ID:        "abc",
		Format:    detector.FormatBoursobank,
		Period:    pipeline.DateRange{Start: day, End: day},
		Statement: models.NewBankStatement(models.AccountHolder{Name: "M DUPONT"}, models.StatementInfo{}, []models.BankOperation{op, op}),
		Categorized: []pipeline.CategorizedOperation{
			{Index: 0, Operation: op, Result: models.CategorizationResult{Category: models.CategoryFood, Source: models.SourcePattern}},
		},
		Failures:     []pipeline.OperationFailure{{Index: 1, Operation: op, Reason: "rate limited"}},
		SkippedLines: []stmtparser.SkippedLine{{Line: 7, Reason: "no amount"}},
	}

	var buf bytes.Buffer
	PrintReport(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "Import abc (BOURSOBANK)")
	assert.Contains(t, out, "Holder: M DUPONT")
	assert.Contains(t, out, "Period: 2024-03-01_2024-03-01")
	assert.Contains(t, out, "-9,99")
	assert.Contains(t, out, "FAILED: rate limited")
	assert.Contains(t, out, "line 7 skipped: no amount")
	assert.Contains(t, out, "1 imported, 1 failed, 1 lines skipped")
}

func TestPrintTree(t *testing.T) {
	child := &models.Category{ID: "groceries", Name: "Groceries", ParentID: "food"}
	roots := []*models.Category{
		{ID: "food", Name: "Food", Code: models.CategoryFood, Children: []*models.Category{child}},
	}

	var buf bytes.Buffer
	PrintTree(&buf, roots)
	assert.Equal(t, "Food [FOOD] (food)\n  Groceries (groceries)\n", buf.String())
}
