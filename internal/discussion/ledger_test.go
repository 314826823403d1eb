package discussion

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLedgerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "discussions.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLedgerLoad(t *testing.T) {
	path := writeLedgerFile(t, `[
  {"id": 1, "file": "a.js", "lines": [2], "comment": "x"},
  {"id": 2, "file": "b.go", "lines": [3, 7], "comment": "y",
   "provenance": {"owner": "acme", "repo": "api", "pullRequestNumber": 9}}
]`)

	ledger := NewLedger(path, "fallback.txt", nil)
	discussions, err := ledger.Load()
	require.NoError(t, err)
	require.Len(t, discussions, 2)

	assert.Equal(t, int64(1), discussions[0].ID)
	assert.False(t, discussions[0].IsRemote())
	assert.Equal(t, 2, discussions[0].TargetLine())

	assert.True(t, discussions[1].IsRemote())
	assert.Equal(t, 3, discussions[1].TargetLine())
	assert.Equal(t, "go", discussions[1].FileType())
}

func TestLedgerLoad_MissingFileDefaults(t *testing.T) {
	path := writeLedgerFile(t, `[{"id": 5, "lines": [1], "comment": "c"}]`)

	var warn bytes.Buffer
	ledger := NewLedger(path, "main.py", &warn)
	discussions, err := ledger.Load()
	require.NoError(t, err)

	assert.Equal(t, "main.py", discussions[0].File)
	assert.Contains(t, warn.String(), "discussion 5")
}

func TestLedgerLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing id", `[{"file": "a.js", "lines": [1], "comment": "x"}]`, "missing id"},
		{"missing comment", `[{"id": 3, "file": "a.js", "lines": [1]}]`, "id 3"},
		{"empty lines", `[{"id": 4, "file": "a.js", "lines": [], "comment": "x"}]`, "empty lines"},
		{"bad line number", `[{"id": 4, "file": "a.js", "lines": [0], "comment": "x"}]`, "invalid line"},
		{"not json", `{{{`, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger(writeLedgerFile(t, tt.content), "f", nil)
			_, err := ledger.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLedgerRemoveResolved(t *testing.T) {
	path := writeLedgerFile(t, `[]`)
	ledger := NewLedger(path, "f", nil)

	all := []Discussion{
		{ID: 1, File: "a", Lines: []int{1}, Comment: "one"},
		{ID: 2, File: "b", Lines: []int{2}, Comment: "two"},
		{ID: 3, File: "c", Lines: []int{3}, Comment: "three"},
	}

	remaining, err := ledger.RemoveResolved(all, []int64{2})
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, int64(1), remaining[0].ID)
	assert.Equal(t, int64(3), remaining[1].ID)

	// Persisted with stable 2-space indentation.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"id\": 1"))

	reloaded, err := ledger.Load()
	require.NoError(t, err)
	assert.Len(t, reloaded, 2)
}

func TestLedgerRemoveResolved_AbsentIDIsNoop(t *testing.T) {
	path := writeLedgerFile(t, `[]`)
	ledger := NewLedger(path, "f", nil)

	all := []Discussion{{ID: 1, File: "a", Lines: []int{1}, Comment: "one"}}
	remaining, err := ledger.RemoveResolved(all, []int64{99})
	require.NoError(t, err)
	assert.Equal(t, all, remaining)
}

func TestLedgerSave_EmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discussions.json")
	ledger := NewLedger(path, "f", nil)

	require.NoError(t, ledger.Save(nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestLedgerAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discussions.json")
	ledger := NewLedger(path, "f", nil)

	added, err := ledger.Append([]Discussion{
		{ID: 1, File: "a", Lines: []int{1}, Comment: "one"},
		{ID: 2, File: "b", Lines: []int{2}, Comment: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Duplicate ids are skipped on re-import.
	added, err = ledger.Append([]Discussion{
		{ID: 2, File: "b", Lines: []int{2}, Comment: "two"},
		{ID: 3, File: "c", Lines: []int{3}, Comment: "three"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	all, err := ledger.Load()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
