package logging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_DerivedLoggersShareEntries(t *testing.T) {
	root := NewMockLogger()
	child := root.WithField(FieldFormat, "fortuneo").WithError(errors.New("boom"))

	child.Warn("line skipped", Field{Key: FieldLine, Value: 7})
	root.Info("done")

	entries := root.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.EqualError(t, entries[0].Error, "boom")

	v, ok := entries[0].FieldValue(FieldFormat)
	require.True(t, ok)
	assert.Equal(t, "fortuneo", v)
	v, ok = entries[0].FieldValue(FieldLine)
	require.True(t, ok)
	assert.Equal(t, 7, v)

	assert.True(t, root.HasEntry("INFO", "done"))
	assert.Len(t, root.GetEntriesByLevel("WARN"), 1)
}

func TestMockLogger_ZeroValueUsable(t *testing.T) {
	var m MockLogger
	m.Debug("hello")
	assert.True(t, m.HasEntry("DEBUG", "hello"))

	m.Clear()
	assert.Empty(t, m.GetEntries())
}

func TestMockLogger_ConcurrentWrites(t *testing.T) {
	m := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.WithField(FieldIndex, i).Debug("categorized")
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.GetEntries(), 20)
}
