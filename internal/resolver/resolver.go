// Package resolver drives review discussions through context
// extraction, suggestion, approval, fix application and ledger update,
// one discussion at a time.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sanix-darker/resolv/internal/codectx"
	"github.com/sanix-darker/resolv/internal/common"
	"github.com/sanix-darker/resolv/internal/discussion"
	"github.com/sanix-darker/resolv/internal/fix"
	"github.com/sanix-darker/resolv/internal/suggest"
	"github.com/sanix-darker/resolv/internal/undo"
)

// State tracks where a discussion is in its resolution lifecycle.
type State int

const (
	StatePending State = iota
	StateContextResolved
	StateSuggestionReceived
	StateApplied
	StateSkipped
	StateErrored
	StateLedgered
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateContextResolved:
		return "context-resolved"
	case StateSuggestionReceived:
		return "suggestion-received"
	case StateApplied:
		return "applied"
	case StateSkipped:
		return "skipped"
	case StateErrored:
		return "errored"
	case StateLedgered:
		return "ledgered"
	default:
		return "unknown"
	}
}

// ContextProvider yields the code surrounding a discussion.
type ContextProvider interface {
	GetContext(d discussion.Discussion) (*codectx.CodeContext, error)
}

// SuggestionGenerator proposes replacement text for the commented lines.
type SuggestionGenerator interface {
	Generate(ctx context.Context, code *codectx.CodeContext, comment, fileType string) (string, error)
}

// ApprovalRequest is what the approver gets to decide on.
type ApprovalRequest struct {
	Discussion discussion.Discussion
	Original   string
	Suggested  string
}

// Approver decides whether a suggested fix gets applied. It may block
// indefinitely on a human.
type Approver interface {
	Approve(req ApprovalRequest) bool
}

// RunResult aggregates the outcome of one resolution batch. Errored
// discussions count as skipped.
type RunResult struct {
	Processed   int
	Applied     int
	Skipped     int
	ResolvedIDs []int64
}

// Coordinator runs the per-discussion state machine sequentially. The
// undo manager holds a single slot, so discussions are never processed
// in parallel.
type Coordinator struct {
	contexts ContextProvider
	suggests SuggestionGenerator
	approver Approver
	undoMgr  *undo.Manager
	ledger   *discussion.Ledger
	repoRoot string
	dryRun   bool
	out      io.Writer
	errOut   io.Writer
}

// Options wires the coordinator's collaborators.
type Options struct {
	Contexts ContextProvider
	Suggests SuggestionGenerator
	Approver Approver
	UndoMgr  *undo.Manager
	Ledger   *discussion.Ledger
	RepoRoot string
	DryRun   bool
	Out      io.Writer
	Err      io.Writer
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	return &Coordinator{
		contexts: opts.Contexts,
		suggests: opts.Suggests,
		approver: opts.Approver,
		undoMgr:  opts.UndoMgr,
		ledger:   opts.Ledger,
		repoRoot: opts.RepoRoot,
		dryRun:   opts.DryRun,
		out:      opts.Out,
		errOut:   opts.Err,
	}
}

// Run loads the ledger, resolves each discussion in order, then prunes
// the resolved ids in one ledger update. A failing discussion never
// aborts the batch; ledger load and persist failures do.
func (c *Coordinator) Run(ctx context.Context) (RunResult, error) {
	var result RunResult

	discussions, err := c.ledger.Load()
	if err != nil {
		return result, fmt.Errorf("failed to load ledger: %w", err)
	}

	for _, d := range discussions {
		result.Processed++

		state, err := c.resolveOne(ctx, d)
		switch state {
		case StateApplied:
			result.Applied++
			result.ResolvedIDs = append(result.ResolvedIDs, d.ID)
		case StateErrored:
			result.Skipped++
			common.LogError(c.errOut, fmt.Sprintf("[x] discussion %d: %v", d.ID, err), false)
		default:
			result.Skipped++
		}
	}

	if len(result.ResolvedIDs) > 0 {
		if _, err := c.ledger.RemoveResolved(discussions, result.ResolvedIDs); err != nil {
			return result, fmt.Errorf("failed to update ledger: %w", err)
		}
	}

	common.LogInfo(c.out, fmt.Sprintf(
		"processed: %d, applied: %d, skipped: %d",
		result.Processed, result.Applied, result.Skipped), nil)

	return result, nil
}

// resolveOne walks a single discussion through the state machine and
// returns its terminal state. The returned error is non-nil only for
// StateErrored.
func (c *Coordinator) resolveOne(ctx context.Context, d discussion.Discussion) (State, error) {
	code, err := c.contexts.GetContext(d)
	if err != nil {
		return StateErrored, err
	}

	suggestion, err := c.suggests.Generate(ctx, code, d.Comment, d.FileType())
	if err != nil {
		if errors.Is(err, suggest.ErrNoSuggestion) {
			common.LogInfo(c.out, fmt.Sprintf("discussion %d: no change suggested, skipping", d.ID), nil)
			return StateSkipped, nil
		}
		return StateErrored, err
	}

	accepted := c.approver.Approve(ApprovalRequest{
		Discussion: d,
		Original:   code.Text,
		Suggested:  suggestion,
	})
	if !accepted {
		return StateSkipped, nil
	}

	if c.dryRun {
		common.LogInfo(c.out, fmt.Sprintf("discussion %d: dry-run, not touching %s", d.ID, d.File), nil)
		return StateSkipped, nil
	}

	if err := c.applyFix(d, suggestion); err != nil {
		return StateErrored, err
	}
	return StateApplied, nil
}

// applyFix backs the target up, splices the replacement into the
// discussion's line range and writes the file back.
func (c *Coordinator) applyFix(d discussion.Discussion, suggestion string) error {
	path := c.targetPath(d)

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	mode := fileMode(path)

	desc := fmt.Sprintf("fix for discussion %d on %s", d.ID, d.File)
	if _, err := c.undoMgr.CreateBackup(path, string(raw), d.ID, desc); err != nil {
		return fmt.Errorf("failed to back up %s: %w", path, err)
	}

	updated := fix.Apply(string(raw), suggestion, fix.RangeFromLines(d.Lines))
	if err := os.WriteFile(path, []byte(updated), mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	common.LogInfo(c.out, fmt.Sprintf("discussion %d: applied fix to %s", d.ID, d.File), nil)
	return nil
}

func (c *Coordinator) targetPath(d discussion.Discussion) string {
	if filepath.IsAbs(d.File) || c.repoRoot == "" {
		return d.File
	}
	return filepath.Join(c.repoRoot, d.File)
}

func fileMode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return 0o644
	}
	return info.Mode().Perm()
}
