package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the envpipe version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "envpipe %s (commit: %s)\n", appVersion, appCommit)
	},
}
