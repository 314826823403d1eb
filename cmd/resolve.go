/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>

The main resolve module that handles:
- run : walk the ledger's pending discussions, suggest and apply fixes.
- list : show what is pending without touching anything.
- undo : revert the last applied fix.
- cleanup : prune old backup snapshots.
*/

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/sanix-darker/resolv/internal/codectx"
	common "github.com/sanix-darker/resolv/internal/common"
	"github.com/sanix-darker/resolv/internal/config"
	"github.com/sanix-darker/resolv/internal/discussion"
	"github.com/sanix-darker/resolv/internal/provider"
	_ "github.com/sanix-darker/resolv/internal/provider/anthropic"
	_ "github.com/sanix-darker/resolv/internal/provider/openai"
	"github.com/sanix-darker/resolv/internal/resolver"
	"github.com/sanix-darker/resolv/internal/suggest"
	"github.com/sanix-darker/resolv/internal/undo"
)

// NewRunCmd: add a new run command
func NewRunCmd(conf config.Config) *cobra.Command {

	runCmd := &cobra.Command{
		Use:     "run [--ledger path] [--repo path] [--dry-run] [--yes]",
		Short:   "resolve the pending discussions one by one.",
		Example: "resolv run --ledger reviews.json --repo .",
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.EnsureConfigFile(conf); err != nil && conf.Debug {
				common.LogInfo(conf.OutWriter, fmt.Sprintf("> could not seed config: %v", err), nil)
			}

			ledgerPath := common.GetArgByKey("ledger", cmd.Flags(), true, conf.ErrWriter)
			repoRoot := common.GetArgByKey("repo", cmd.Flags(), true, conf.ErrWriter)
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			autoYes, _ := cmd.Flags().GetBool("yes")

			if name, _ := cmd.Flags().GetString("provider"); name != "" {
				conf.Viper.Set(provider.ConfigKeyProvider, name)
			}

			providerCfg := provider.ResolveProvider(conf.Viper)
			aiProv, err := provider.Get(providerCfg.Name, providerCfg.Viper)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			cacheDir, err := config.GetCacheDirPath(conf)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			var approver resolver.Approver
			if autoYes {
				approver = autoApprover{}
			} else {
				approver = &promptApprover{conf: conf}
			}

			coord := resolver.NewCoordinator(resolver.Options{
				Contexts: codectx.NewProvider(reviewClient(conf), repoRoot, conf.Radius),
				Suggests: &spinnerGenerator{
					inner: suggest.NewGenerator(aiProv, 0),
					name:  providerCfg.Name,
				},
				Approver: approver,
				UndoMgr:  undo.NewManager(cacheDir),
				Ledger:   discussion.NewLedger(ledgerPath, conf.DefaultFile, conf.ErrWriter),
				RepoRoot: repoRoot,
				DryRun:   dryRun,
				Out:      conf.OutWriter,
				Err:      conf.ErrWriter,
			})

			if _, err := coord.Run(context.Background()); err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}
		},
	}

	runCmd.Flags().String("ledger", conf.LedgerFile, "path to the discussion ledger file")
	runCmd.Flags().String("repo", ".", "root of the repository the discussions refer to")
	runCmd.Flags().Bool("dry-run", false, "show proposed fixes without writing anything")
	runCmd.Flags().BoolP("yes", "y", false, "apply every suggested fix without prompting")
	runCmd.Flags().String("provider", "", "AI provider to use (openai, anthropic)")

	return runCmd
}

// NewListCmd: add a new list command
func NewListCmd(conf config.Config) *cobra.Command {

	listCmd := &cobra.Command{
		Use:     "list [--ledger path]",
		Short:   "show the pending discussions without resolving anything.",
		Example: "resolv list --ledger reviews.json",
		Run: func(cmd *cobra.Command, args []string) {
			ledgerPath := common.GetArgByKey("ledger", cmd.Flags(), true, conf.ErrWriter)

			discussions, err := discussion.NewLedger(ledgerPath, conf.DefaultFile, conf.ErrWriter).Load()
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			if len(discussions) == 0 {
				common.LogInfo(conf.OutWriter, "nothing pending.", nil)
				return
			}

			for _, d := range discussions {
				conf.Printers.ShowDiscussion(d.File, d.TargetLine(), remoteAuthor(d), d.Comment)
			}
			common.LogInfo(conf.OutWriter, fmt.Sprintf("\n%d pending discussion(s)", len(discussions)), nil)
		},
	}

	listCmd.Flags().String("ledger", conf.LedgerFile, "path to the discussion ledger file")

	return listCmd
}

// NewUndoCmd: add a new undo command
func NewUndoCmd(conf config.Config) *cobra.Command {

	undoCmd := &cobra.Command{
		Use:     "undo",
		Short:   "revert the last applied fix.",
		Example: "resolv undo",
		Run: func(cmd *cobra.Command, args []string) {
			cacheDir, err := config.GetCacheDirPath(conf)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			mgr := undo.NewManager(cacheDir)
			if ok, reason := mgr.CanUndo(); !ok {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] cannot undo: %s", reason), true)
			}

			rec, err := mgr.PerformUndo()
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}
			common.LogInfo(conf.OutWriter, fmt.Sprintf("restored %s (%s)", rec.FilePath, rec.Description), nil)
		},
	}

	return undoCmd
}

// NewCleanupCmd: add a new cleanup command
func NewCleanupCmd(conf config.Config) *cobra.Command {

	cleanupCmd := &cobra.Command{
		Use:     "cleanup [--keep N]",
		Short:   "prune old backup snapshots.",
		Example: "resolv cleanup --keep 5",
		Run: func(cmd *cobra.Command, args []string) {
			keep, _ := cmd.Flags().GetInt("keep")

			cacheDir, err := config.GetCacheDirPath(conf)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			deleted, err := undo.NewManager(cacheDir).CleanupOldBackups(keep)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}
			common.LogInfo(conf.OutWriter, fmt.Sprintf("deleted %d old backup(s)", deleted), nil)
		},
	}

	cleanupCmd.Flags().Int("keep", conf.KeepBackups, "number of most recent backups to keep")

	return cleanupCmd
}

// promptApprover shows the discussion and the proposed change, copies the
// suggestion to the clipboard and asks for a y/n.
type promptApprover struct {
	conf config.Config
}

func (a *promptApprover) Approve(req resolver.ApprovalRequest) bool {
	d := req.Discussion
	a.conf.Printers.ShowDiscussion(d.File, d.TargetLine(), remoteAuthor(d), d.Comment)
	a.conf.Printers.ShowProposal(req.Original, req.Suggested)

	// best effort, some environments have no clipboard
	if err := common.SetClipboardValue(req.Suggested); err == nil {
		common.LogInfo(a.conf.OutWriter, "(suggestion copied to clipboard)", nil)
	}

	return a.conf.Printers.Confirm("Apply this fix?")
}

type autoApprover struct{}

func (autoApprover) Approve(resolver.ApprovalRequest) bool { return true }

// spinnerGenerator keeps the terminal alive while the provider thinks.
type spinnerGenerator struct {
	inner resolver.SuggestionGenerator
	name  string
}

func (g *spinnerGenerator) Generate(ctx context.Context, code *codectx.CodeContext, comment, fileType string) (string, error) {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" asking %s for a fix...", g.name)
	s.Start()
	defer s.Stop()

	return g.inner.Generate(ctx, code, comment, fileType)
}

func remoteAuthor(d discussion.Discussion) string {
	if d.IsRemote() {
		return fmt.Sprintf("%s/%s#%d", d.Remote.Owner, d.Remote.Repo, d.Remote.PullNumber)
	}
	return ""
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(
		NewRunCmd(conf),
		NewListCmd(conf),
		NewUndoCmd(conf),
		NewCleanupCmd(conf),
	)
}
