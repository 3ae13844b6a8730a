package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewkit/crew/core"
	"github.com/crewkit/crew/logging"
)

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	runCtx := core.NewRunContext(context.Background(), "run-1", "request", core.NewIntent(), nil, logging.NoOpLogger{})
	return core.NewToolContext(runCtx, "fc-1")
}

func TestWriteReadList(t *testing.T) {
	dir := t.TempDir()
	files := New(func(o *Options) { o.BaseDir = dir })

	result, err := files.Call(newToolContext(t), map[string]any{
		"action":  "write",
		"path":    "notes/summary.md",
		"content": "# Findings\n",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, result.(map[string]any)["bytes_written"])

	result, err = files.Call(newToolContext(t), map[string]any{
		"action": "read",
		"path":   "notes/summary.md",
	})
	require.NoError(t, err)
	assert.Equal(t, "# Findings\n", result.(map[string]any)["content"])

	result, err = files.Call(newToolContext(t), map[string]any{
		"action": "list",
		"path":   "notes",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"summary.md"}, result.(map[string]any)["entries"])
}

func TestReadMissingFile(t *testing.T) {
	files := New(func(o *Options) { o.BaseDir = t.TempDir() })

	_, err := files.Call(newToolContext(t), map[string]any{
		"action": "read",
		"path":   "missing.txt",
	})
	require.Error(t, err)
}

func TestRejectsEscapingPaths(t *testing.T) {
	files := New(func(o *Options) { o.BaseDir = t.TempDir() })

	_, err := files.Call(newToolContext(t), map[string]any{
		"action": "read",
		"path":   "../../etc/passwd",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}
