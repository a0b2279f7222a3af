package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-categorizer/internal/logging"
)

// TestCSVRow represents a test CSV row for gocsv unmarshaling
type TestCSVRow struct {
	Name    string `csv:"Name"`
	Age     int    `csv:"Age"`
	Country string `csv:"Country"`
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Age,Country\nJohn Doe,30,USA\nJane Smith,25,Canada\n"), 0600))

	logger := logging.NewMockLogger()
	rows, err := ReadCSVFile[TestCSVRow](path, logger)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane Smith", rows[1].Name)
	assert.Equal(t, 25, rows[1].Age)
	assert.Equal(t, "Canada", rows[1].Country)
	assert.True(t, logger.HasEntry("DEBUG", "Successfully read CSV data"))
}

func TestReadCSVFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadCSVFile[TestCSVRow](filepath.Join(dir, "missing.csv"), nil)
	assert.ErrorContains(t, err, "error opening CSV file")

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Name,Age\nJohn,notanumber\n"), 0600))
	_, err = ReadCSVFile[TestCSVRow](bad, nil)
	assert.ErrorContains(t, err, "error parsing CSV file")
}
