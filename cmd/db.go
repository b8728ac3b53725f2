package cmd

import "github.com/spf13/cobra"

func newDBCmd(globals *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "List pages of a Notion database",
	}

	cmd.AddCommand(newDBQueryCmd(globals))

	return cmd
}
