/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	common "github.com/sanix-darker/resolv/internal/common"
	"github.com/sanix-darker/resolv/internal/config"
	"github.com/sanix-darker/resolv/internal/discussion"
)

// NewPullCmd: add a new pull command
func NewPullCmd(conf config.Config) *cobra.Command {

	pullCmd := &cobra.Command{
		Use:     "pull [owner/repo] <prNumber> [--ledger path]",
		Short:   "import the review comments of a pull request into the ledger.",
		Example: "resolv pull sanix-darker/resolv 42\nresolv pull 42",
		Run: func(cmd *cobra.Command, args []string) {
			common.CheckArgs(args, 1, cmd.Help)

			slug, number, err := resolveSlugAndNumber(args)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			client := reviewClient(conf)
			if client == nil {
				common.LogError(conf.ErrWriter, "[x] no GITHUB_TOKEN set, cannot reach the review platform", true)
			}

			parts := strings.SplitN(slug, "/", 2)
			owner, repo := parts[0], parts[1]

			comments, err := client.ListPullComments(owner, repo, number)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			incoming := make([]discussion.Discussion, 0, len(comments))
			for _, c := range comments {
				if c.Line < 1 || c.Path == "" {
					continue
				}
				incoming = append(incoming, discussion.Discussion{
					ID:      c.ID,
					File:    c.Path,
					Lines:   []int{c.Line},
					Comment: c.Body,
					Remote: &discussion.Remote{
						Owner:      owner,
						Repo:       repo,
						PullNumber: number,
						FullPath:   c.Path,
					},
				})
			}

			ledgerPath := common.GetArgByKey("ledger", cmd.Flags(), true, conf.ErrWriter)
			added, err := discussion.NewLedger(ledgerPath, conf.DefaultFile, conf.ErrWriter).Append(incoming)
			if err != nil {
				common.LogError(conf.ErrWriter, fmt.Sprintf("[x] %v", err), true)
			}

			common.LogInfo(conf.OutWriter, fmt.Sprintf(
				"imported %d discussion(s) from %s#%d into %s",
				added, slug, number, ledgerPath), nil)
		},
	}

	pullCmd.Flags().String("ledger", conf.LedgerFile, "path to the discussion ledger file")

	return pullCmd
}

// resolveSlugAndNumber accepts either "owner/repo prNumber" or just
// "prNumber" with the slug detected from the current repo's origin
// remote.
func resolveSlugAndNumber(args []string) (string, int64, error) {
	if len(args) >= 2 {
		slug := args[0]
		if !strings.Contains(slug, "/") {
			return "", 0, fmt.Errorf("expected owner/repo, got %q", slug)
		}
		number, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return "", 0, fmt.Errorf("invalid pull request number %q", args[1])
		}
		return slug, number, nil
	}

	number, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid pull request number %q", args[0])
	}

	slug, err := common.DetectRepoSlug(".")
	if err != nil {
		return "", 0, err
	}
	return slug, number, nil
}

func init() {
	conf := config.NewDefaultConfig()
	rootCmd.AddCommand(NewPullCmd(conf))
}
