package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	profile    string
	configFile string
	logLevel   string
}

var globals = &globalOptions{
	profile: "default",
}

var rootCmd = &cobra.Command{
	Use:           "notioncms",
	Short:         "Render and serve Notion pages as HTML and Markdown",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command hierarchy.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("execute command: %w", err)
	}
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.profile, "profile", globals.profile, "Auth profile to use")
	flags.StringVar(&globals.configFile, "config", "", "Config file (default ~/.config/notioncms/config.yaml)")
	flags.StringVar(&globals.logLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")

	rootCmd.SetErr(os.Stderr)
	rootCmd.SetOut(os.Stdout)

	rootCmd.AddCommand(newAuthCmd(globals))
	rootCmd.AddCommand(newPagesCmd(globals))
	rootCmd.AddCommand(newDBCmd(globals))
	rootCmd.AddCommand(newBlocksCmd(globals))
	rootCmd.AddCommand(newServeCmd(globals))
}
