package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the Cobra command for displaying the application version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bosco",
		Long:  `Print the version of bosco and the Go runtime it was built with.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bosco version %s (%s %s/%s)\n", rootCmd.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
