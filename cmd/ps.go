package cmd

import (
	"context"
	"io"
	"sort"

	"bosco/internal/cli"
	"bosco/internal/containerizer"
	"bosco/internal/process"
	"bosco/pkg/logging"
	bstrings "bosco/pkg/strings"

	"github.com/spf13/cobra"
)

// psCmd represents the ps command
var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "Show the services that are running",
	Long: `List the node services managed by PM2 and the running docker containers.

Examples:
  bosco ps
  bosco ps -o json`,
	Args: cobra.NoArgs,
	RunE: runPS,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

// processRow is one running service.
type processRow struct {
	Name   string `json:"name" yaml:"name"`
	Runner string `json:"runner" yaml:"runner"`
	Image  string `json:"image,omitempty" yaml:"image,omitempty"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

func runPS(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := loadEnvironment(cmd, nil, nil)
	if err != nil {
		return err
	}

	rows := nodeProcesses(ctx)
	rows = append(rows, containers(ctx, env.settings.Docker.Runtime)...)

	if env.output.Structured() {
		return cli.WriteStructured(cmd.OutOrStdout(), env.output, rows)
	}
	if len(rows) == 0 {
		_, err := io.WriteString(cmd.OutOrStdout(), "No services are running\n")
		return err
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{cli.Repo(r.Name), r.Runner, bstrings.OneLine(r.Image, bstrings.CellMaxLen), r.Status})
	}
	cli.RenderTable(cmd.OutOrStdout(), []string{"Service", "Runner", "Image", "Status"}, table, cli.TableOptions{
		Plain: env.output == cli.OutputFormatPlain || !cli.IsTerminal(cmd.OutOrStdout()),
	})
	return nil
}

func nodeProcesses(ctx context.Context) []processRow {
	procs, err := process.NewPM2Runner(nil).Processes(ctx)
	if err != nil {
		logging.Warn(subsystem, "Could not list PM2 processes: %v", err)
		return nil
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].Name < procs[j].Name })
	rows := make([]processRow, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, processRow{Name: p.Name, Runner: "pm2", Status: p.Status})
	}
	return rows
}

func containers(ctx context.Context, runtimeType string) []processRow {
	rt, err := containerizer.NewContainerRuntime(ctx, runtimeType)
	if err != nil {
		logging.Warn(subsystem, "Docker is not available: %v", err)
		return nil
	}
	if c, ok := rt.(io.Closer); ok {
		defer c.Close()
	}

	running, err := rt.RunningContainers(ctx)
	if err != nil {
		logging.Warn(subsystem, "Could not list containers: %v", err)
		return nil
	}
	sort.Slice(running, func(i, j int) bool { return running[i].Name() < running[j].Name() })

	rows := make([]processRow, 0, len(running))
	for _, c := range running {
		rows = append(rows, processRow{Name: c.Name(), Runner: "docker", Image: c.Image, Status: c.Status})
	}
	return rows
}
