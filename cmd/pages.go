package cmd

import "github.com/spf13/cobra"

func newPagesCmd(globals *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Render Notion pages",
	}

	cmd.AddCommand(newPagesGetCmd(globals))

	return cmd
}
