/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/

package cmd

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// manCmd represents the man command
var manCmd = &cobra.Command{
	Use:    "man",
	Short:  "Generate the man page for resolv.",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err
		}

		page = page.WithSection("Copyright", "Copyright © 2023 sanix-darker <s4nixd@gmail.com>")
		fmt.Fprint(cmd.OutOrStdout(), page.Build(roff.NewDocument()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manCmd)
}
