package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/BeliaevAndrey/vibeBot/cmd.version=... -X ...cmd.commit=...".
var (
	version = "unknown"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the bot",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("%s %s (commit %s, %s)\n", app, version, commit, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
