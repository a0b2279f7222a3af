package pdftext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopplerExtractor_ExtractText(t *testing.T) {
	orig := runCommand
	t.Cleanup(func() { runCommand = orig })

	var gotName string
	var gotArgs []string
	runCommand = func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		gotName, gotArgs = name, args
		return []byte("Titulaire : M. DUPONT\n"), nil, nil
	}

	text, err := NewPopplerExtractor().ExtractText(context.Background(), "/tmp/releve.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Titulaire : M. DUPONT\n", text)
	assert.Equal(t, "pdftotext", gotName)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "/tmp/releve.pdf", "-"}, gotArgs)
}

func TestPopplerExtractor_ReportsStderr(t *testing.T) {
	orig := runCommand
	t.Cleanup(func() { runCommand = orig })

	runCommand = func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("Syntax Error: Couldn't find trailer dictionary\n"), errors.New("exit status 1")
	}

	_, err := (&PopplerExtractor{Binary: "/usr/bin/pdftotext"}).ExtractText(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.pdf")
	assert.Contains(t, err.Error(), "trailer dictionary")
}

func TestMockExtractor(t *testing.T) {
	m := &MockExtractor{Text: "hello"}
	text, err := m.ExtractText(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, []string{"a.pdf"}, m.Calls)

	m.Err = errors.New("boom")
	_, err = m.ExtractText(context.Background(), "b.pdf")
	assert.EqualError(t, err, "boom")
}
