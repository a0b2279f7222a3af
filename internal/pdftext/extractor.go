// Package pdftext turns PDF statements into layout-preserving text using the
// pdftotext tool from poppler.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor extracts text content from a PDF file.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// PopplerExtractor runs `pdftotext -layout` and reads its standard output.
type PopplerExtractor struct {
	// Binary defaults to "pdftotext" when empty.
	Binary string
}

// NewPopplerExtractor creates a PopplerExtractor using pdftotext from PATH.
func NewPopplerExtractor() *PopplerExtractor {
	return &PopplerExtractor{}
}

// runCommand is swapped in tests.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ExtractText extracts text from pdfPath. Column alignment is preserved so
// that debit and credit amounts stay in their columns.
func (e *PopplerExtractor) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	bin := e.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	stdout, stderr, err := runCommand(ctx, bin, "-layout", "-enc", "UTF-8", pdfPath, "-")
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return "", fmt.Errorf("error running pdftotext on %s: %w: %s", pdfPath, err, msg)
		}
		return "", fmt.Errorf("error running pdftotext on %s: %w", pdfPath, err)
	}
	return string(stdout), nil
}

// MockExtractor returns predefined text, for tests.
type MockExtractor struct {
	Text  string
	Err   error
	Calls []string
}

// ExtractText returns the predefined text or error.
func (m *MockExtractor) ExtractText(_ context.Context, pdfPath string) (string, error) {
	m.Calls = append(m.Calls, pdfPath)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
