package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/resolv/internal/codectx"
	"github.com/sanix-darker/resolv/internal/discussion"
	"github.com/sanix-darker/resolv/internal/suggest"
	"github.com/sanix-darker/resolv/internal/undo"
)

type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, _ *codectx.CodeContext, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeApprover struct {
	accept bool
	seen   []ApprovalRequest
}

func (f *fakeApprover) Approve(req ApprovalRequest) bool {
	f.seen = append(f.seen, req)
	return f.accept
}

type harness struct {
	dir      string
	file     string
	ledger   *discussion.Ledger
	undoMgr  *undo.Manager
	out, err bytes.Buffer
}

func newHarness(t *testing.T, content string, discussions []discussion.Discussion) *harness {
	t.Helper()

	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	for i := range discussions {
		if discussions[i].File == "" {
			discussions[i].File = "main.go"
		}
	}
	raw, err := json.Marshal(discussions)
	require.NoError(t, err)
	ledgerPath := filepath.Join(dir, "reviews.json")
	require.NoError(t, os.WriteFile(ledgerPath, raw, 0o644))

	return &harness{
		dir:     dir,
		file:    file,
		ledger:  discussion.NewLedger(ledgerPath, "main.go", nil),
		undoMgr: undo.NewManager(filepath.Join(dir, ".resolv_cache")),
	}
}

func (h *harness) coordinator(t *testing.T, gen SuggestionGenerator, app Approver, dryRun bool) *Coordinator {
	t.Helper()
	return NewCoordinator(Options{
		Contexts: codectx.NewProvider(nil, h.dir, 2),
		Suggests: gen,
		Approver: app,
		UndoMgr:  h.undoMgr,
		Ledger:   h.ledger,
		RepoRoot: h.dir,
		DryRun:   dryRun,
		Out:      &h.out,
		Err:      &h.err,
	})
}

func (h *harness) fileContent(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(h.file)
	require.NoError(t, err)
	return string(raw)
}

func TestRun_AcceptedFixIsAppliedAndLedgerPruned(t *testing.T) {
	h := newHarness(t, "L1\nL2\nL3\n", []discussion.Discussion{
		{ID: 1, Lines: []int{2}, Comment: "rename this"},
	})
	app := &fakeApprover{accept: true}

	result, err := h.coordinator(t, &fakeGenerator{reply: "L2-fixed"}, app, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, []int64{1}, result.ResolvedIDs)

	assert.Equal(t, "L1\nL2-fixed\nL3\n", h.fileContent(t))

	remaining, err := h.ledger.Load()
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// the approver saw the extracted line against the suggestion
	require.Len(t, app.seen, 1)
	assert.Equal(t, "L2", app.seen[0].Original)
	assert.Equal(t, "L2-fixed", app.seen[0].Suggested)
}

func TestRun_RejectedFixLeavesEverythingUntouched(t *testing.T) {
	h := newHarness(t, "L1\nL2\nL3\n", []discussion.Discussion{
		{ID: 1, Lines: []int{2}, Comment: "rename this"},
	})

	result, err := h.coordinator(t, &fakeGenerator{reply: "L2-fixed"}, &fakeApprover{accept: false}, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)

	assert.Equal(t, "L1\nL2\nL3\n", h.fileContent(t))

	remaining, err := h.ledger.Load()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(1), remaining[0].ID)
}

func TestRun_OutOfBoundsLineErrorsWithoutTouchingAnything(t *testing.T) {
	h := newHarness(t, "L1\nL2\nL3\n", []discussion.Discussion{
		{ID: 1, Lines: []int{99}, Comment: "fix it"},
	})
	app := &fakeApprover{accept: true}

	result, err := h.coordinator(t, &fakeGenerator{reply: "nope"}, app, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, app.seen)

	assert.Contains(t, h.err.String(), "line 99")
	assert.Contains(t, h.err.String(), "3 lines")

	assert.Equal(t, "L1\nL2\nL3\n", h.fileContent(t))
	remaining, err := h.ledger.Load()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestRun_ErroredDiscussionDoesNotAbortBatch(t *testing.T) {
	h := newHarness(t, "L1\nL2\nL3\n", []discussion.Discussion{
		{ID: 1, Lines: []int{99}, Comment: "will error"},
		{ID: 2, Lines: []int{3}, Comment: "will apply"},
	})

	result, err := h.coordinator(t, &fakeGenerator{reply: "L3-new"}, &fakeApprover{accept: true}, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []int64{2}, result.ResolvedIDs)
	assert.Equal(t, "L1\nL2\nL3-new\n", h.fileContent(t))

	remaining, err := h.ledger.Load()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(1), remaining[0].ID)
}

func TestRun_NoSuggestionCountsAsSkipped(t *testing.T) {
	h := newHarness(t, "L1\nL2\n", []discussion.Discussion{
		{ID: 1, Lines: []int{1}, Comment: "hm"},
	})
	app := &fakeApprover{accept: true}

	result, err := h.coordinator(t, &fakeGenerator{err: suggest.ErrNoSuggestion}, app, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, app.seen)
	assert.Empty(t, h.err.String())
}

func TestRun_DryRunNeverWrites(t *testing.T) {
	h := newHarness(t, "L1\nL2\n", []discussion.Discussion{
		{ID: 1, Lines: []int{1}, Comment: "change it"},
	})

	result, err := h.coordinator(t, &fakeGenerator{reply: "L1-new"}, &fakeApprover{accept: true}, true).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "L1\nL2\n", h.fileContent(t))

	remaining, err := h.ledger.Load()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestRun_AppliedFixIsUndoable(t *testing.T) {
	h := newHarness(t, "L1\nL2\nL3\n", []discussion.Discussion{
		{ID: 7, Lines: []int{2}, Comment: "fix"},
	})

	_, err := h.coordinator(t, &fakeGenerator{reply: "L2-fixed"}, &fakeApprover{accept: true}, false).Run(context.Background())
	require.NoError(t, err)

	ok, reason := h.undoMgr.CanUndo()
	require.True(t, ok, reason)

	rec, err := h.undoMgr.PerformUndo()
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.DiscussionID)
	assert.Equal(t, "L1\nL2\nL3\n", h.fileContent(t))
}
