package mutate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/attractor/internal/audit"
	"github.com/steveyegge/attractor/internal/pipelock"
)

func writePipeline(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.dot")
	require.NoError(t, os.WriteFile(path, []byte(retryPipeline), 0o644))
	return path
}

func testEditor(path string) *Editor {
	e := NewEditor(path)
	e.Locker = pipelock.NewMemLocker()
	return e
}

func TestEditor_AddEdgeWritesAndAudits(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)

	require.NoError(t, e.AddEdge("start", "gate", AddOptions{Label: "fast path"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `start -> gate [label="fast path"];`)

	records, err := audit.Read(audit.LogPath(path))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.CmdEdgeAdd, records[0].Command)
	assert.Equal(t, "start", records[0].Src)
	assert.Equal(t, "gate", records[0].Dst)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestEditor_RemoveEdgeWritesAndAudits(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)

	count, err := e.RemoveEdge("decide", "impl", "fail", "")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "decide -> impl")

	records, err := audit.Read(audit.LogPath(path))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, audit.CmdEdgeRemove, records[0].Command)
	assert.Equal(t, 1, records[0].Count)
	assert.Equal(t, "fail", records[0].Condition)
}

func TestEditor_DryRunTouchesNothing(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)
	e.DryRun = true

	require.NoError(t, e.AddEdge("start", "gate", AddOptions{}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, retryPipeline, string(content), "dry run must not write")

	records, err := audit.Read(audit.LogPath(path))
	require.NoError(t, err)
	assert.Empty(t, records, "dry run must not audit")
}

func TestEditor_DryRunStillValidates(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)
	e.DryRun = true

	err := e.AddEdge("gate", "impl", AddOptions{})
	assert.ErrorContains(t, err, "unguarded cycle")
}

func TestEditor_FailedMutationLeavesNoAudit(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)

	require.Error(t, e.AddEdge("ghost", "impl", AddOptions{}))

	records, err := audit.Read(audit.LogPath(path))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEditor_ListEdges(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)

	edges, err := e.ListEdges()
	require.NoError(t, err)
	require.Len(t, edges, 5)
	assert.Equal(t, "start", edges[0].Src)
	assert.Equal(t, "impl", edges[0].Dst)
}

func TestEditor_AuditPathOverride(t *testing.T) {
	path := writePipeline(t)
	e := testEditor(path)
	e.AuditPath = filepath.Join(filepath.Dir(path), "custom.jsonl")

	require.NoError(t, e.AddEdge("start", "gate", AddOptions{}))

	records, err := audit.Read(e.AuditPath)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	defaultRecords, err := audit.Read(audit.LogPath(path))
	require.NoError(t, err)
	assert.Empty(t, defaultRecords)
}

func TestEditor_DefaultLockerReleasesSentinel(t *testing.T) {
	path := writePipeline(t)
	e := NewEditor(path)

	require.NoError(t, e.AddEdge("start", "gate", AddOptions{}))

	_, err := os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "sentinel should be removed after the mutation")
}
