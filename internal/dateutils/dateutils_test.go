package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementDate(t *testing.T) {
	want := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		hasError bool
	}{
		{"slash", "05/01/2024", false},
		{"dash", "05-01-2024", false},
		{"dot", "05.01.2024", false},
		{"iso", "2024-01-05", false},
		{"padded", "  05/01/2024 ", false},
		{"invalid day", "32/01/2024", true},
		{"short year", "05/01/24", true},
		{"garbage", "hier", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatementDate(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestFindDate(t *testing.T) {
	got, ok := FindDate("Arrêté au 31.01.2024 inclus")
	require.True(t, ok)
	assert.Equal(t, "2024-01-31", ToISODate(got))

	got, ok = FindDate("Période du 99/99/2024 au 29/02/2024")
	require.True(t, ok, "an invalid first token must not hide a valid one")
	assert.Equal(t, "2024-02-29", ToISODate(got))

	_, ok = FindDate("no date here")
	assert.False(t, ok)
}

func TestToISODate(t *testing.T) {
	assert.Equal(t, "", ToISODate(time.Time{}))
	assert.Equal(t, "2023-12-31", ToISODate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}
