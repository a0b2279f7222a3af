package parsererror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid decimal")
	err := &ParseError{Parser: "fortuneo", Field: "amount", Value: "12,3,4", Err: originalErr}

	assert.Equal(t, "fortuneo: failed to parse amount='12,3,4': invalid decimal", err.Error())
	assert.True(t, errors.Is(err, originalErr))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "ambiguous format",
			err:      &FormatDetectionAmbiguousError{Filename: "releve.pdf", Candidates: []string{"fortuneo", "boursobank"}},
			expected: "ambiguous statement format for 'releve.pdf': matches fortuneo, boursobank; select a format explicitly",
		},
		{
			name:     "no operations",
			err:      &NoOperationsFoundError{Format: "auto"},
			expected: "no operations found using auto layout",
		},
		{
			name:     "no operations with skipped lines",
			err:      &NoOperationsFoundError{Format: "fortuneo", SkippedLines: 2},
			expected: "no operations found using fortuneo layout (2 malformed lines skipped)",
		},
		{
			name:     "malformed line",
			err:      &MalformedOperationLineError{Line: 4, Text: "05/01/2024  CB SHOP", Reason: "no amount"},
			expected: `malformed operation line 4: no amount: "05/01/2024  CB SHOP"`,
		},
		{
			name:     "classification unavailable without cause",
			err:      &ClassificationUnavailableError{Description: "CB SHOP"},
			expected: `classification unavailable for "CB SHOP"`,
		},
		{
			name:     "invalid classification output",
			err:      &InvalidClassificationOutputError{Description: "CB DOMINOS", Output: "PIZZA"},
			expected: `classifier returned "PIZZA" for "CB DOMINOS", which is not a known category`,
		},
		{
			name: "invalid format with snippet",
			err: &InvalidFormatError{
				FilePath:             "/tmp/statement.bin",
				ExpectedFormat:       "text or PDF",
				ActualContentSnippet: "\x00\x01",
				Msg:                  "binary content",
			},
			expected: "invalid format in file '/tmp/statement.bin': binary content. Expected: text or PDF. Content snippet: '\x00\x01'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestClassificationUnavailable_UnwrapsCause(t *testing.T) {
	wrapped := fmt.Errorf("categorize: %w", &ClassificationUnavailableError{
		Description: "SNCF",
		Err:         context.DeadlineExceeded,
	})

	var target *ClassificationUnavailableError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "SNCF", target.Description)
	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded))
}

func TestCategorizationError_Unwrap(t *testing.T) {
	inner := &InvalidClassificationOutputError{Description: "X", Output: "PIZZA"}
	err := &CategorizationError{Transaction: "X", Strategy: "AI", Err: inner}

	assert.Equal(t, `categorization failed for X using AI: classifier returned "PIZZA" for "X", which is not a known category`, err.Error())

	var target *InvalidClassificationOutputError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "PIZZA", target.Output)
}

func TestMalformedOperationLine_Unwrap(t *testing.T) {
	cause := errors.New("both debit and credit populated")
	err := &MalformedOperationLineError{Line: 1, Text: "x", Reason: "ambiguous amounts", Err: cause}
	assert.True(t, errors.Is(err, cause))
}
