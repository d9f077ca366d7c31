package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewTraceWriter(tmpDir, "run-1", false)
	require.NoError(t, err)

	entries := []TraceEntry{
		{Iteration: 0, Value: -9000},
		{Iteration: 1, Value: -6000},
		{Iteration: 2, Value: -4300, Params: []float64{1, 2, 3}},
	}
	for _, e := range entries {
		require.NoError(t, writer.Write(e))
	}
	require.NoError(t, writer.Close())
	assert.FileExists(t, writer.Path())

	reader, err := NewTraceReader(tmpDir, "run-1")
	require.NoError(t, err)
	defer reader.Close()

	got, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestTraceWriter_RejectsNonFinite(t *testing.T) {
	writer, err := NewTraceWriter(t.TempDir(), "run-1", false)
	require.NoError(t, err)
	defer writer.Close()

	assert.Error(t, writer.Write(TraceEntry{Value: math.Inf(-1)}))
	assert.Error(t, writer.Write(TraceEntry{Value: math.NaN()}))
}

func TestTraceWriter_WriteHistorySkipsNonFinite(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewTraceWriter(tmpDir, "run-1", false)
	require.NoError(t, err)
	require.NoError(t, writer.WriteHistory([]float64{math.Inf(-1), -10, -5}))
	require.NoError(t, writer.Close())

	reader, err := NewTraceReader(tmpDir, "run-1")
	require.NoError(t, err)
	defer reader.Close()

	got, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []TraceEntry{{Iteration: 1, Value: -10}, {Iteration: 2, Value: -5}}, got)
}

func TestTraceWriter_Append(t *testing.T) {
	tmpDir := t.TempDir()

	w1, err := NewTraceWriter(tmpDir, "run-1", false)
	require.NoError(t, err)
	require.NoError(t, w1.Write(TraceEntry{Iteration: 0, Value: 3}))
	require.NoError(t, w1.Close())

	w2, err := NewTraceWriter(tmpDir, "run-1", true)
	require.NoError(t, err)
	require.NoError(t, w2.Write(TraceEntry{Iteration: 1, Value: 2}))
	require.NoError(t, w2.Flush())
	require.NoError(t, w2.Close())

	reader, err := NewTraceReader(tmpDir, "run-1")
	require.NoError(t, err)
	defer reader.Close()

	got, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
