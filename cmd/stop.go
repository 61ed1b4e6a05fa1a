package cmd

import (
	"github.com/spf13/cobra"
)

var (
	stopSelection    selectionFlags
	restartSelection selectionFlags
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running services of the workspace",
	Long: `Resolve the run list of the workspace and stop whatever part of it is
running, in the reverse order of 'bosco run'.

Examples:
  bosco stop
  bosco stop -r '^app-'
  bosco stop --docker-only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return executeLifecycle(cmd, &stopSelection, actionStop)
	},
}

// restartCmd represents the restart command
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop and start the services of the workspace",
	Long: `Stop the selected services and start them again. Dependencies are
restarted too unless they are excluded.

Examples:
  bosco restart -r service-catalog
  bosco restart --service --deps-only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return executeLifecycle(cmd, &restartSelection, actionRestart)
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	stopSelection.register(stopCmd)
	restartSelection.register(restartCmd)
}
