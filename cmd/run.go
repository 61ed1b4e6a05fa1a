package cmd

import (
	"context"
	"fmt"

	"bosco/internal/cli"
	"bosco/internal/manifest"
	"bosco/internal/orchestrator"

	"github.com/spf13/cobra"
)

var runSelection selectionFlags

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the services of the workspace and their dependencies",
	Long: `Resolve the run list of the workspace and start it: docker services
first, then docker-compose projects, then node services and finally apps.
Services that are already running are left alone.

Examples:
  bosco run
  bosco run -r 'service-(catalog|search)'
  bosco run -t upload --exclude infra-mongo
  bosco run --service --deps-only`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return executeLifecycle(cmd, &runSelection, actionStart)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runSelection.register(runCmd)
}

// lifecycleAction is what executeLifecycle does with a resolved run list.
type lifecycleAction string

const (
	actionStart   lifecycleAction = "start"
	actionStop    lifecycleAction = "stop"
	actionRestart lifecycleAction = "restart"
)

// executeLifecycle resolves the run list selected by flags and starts, stops
// or restarts it.
func executeLifecycle(cmd *cobra.Command, flags *selectionFlags, action lifecycleAction) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sel, err := flags.compile()
	if err != nil {
		return err
	}
	env, err := loadEnvironment(cmd, &sel, flags)
	if err != nil {
		return err
	}

	list, err := env.resolve(ctx, cmd, sel)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No services matched "+sel.match.String()))
		return nil
	}

	o, closeRuntime := newOrchestrator(ctx, env.settings)
	defer closeRuntime()

	switch action {
	case actionStop:
		return reportSummary(cmd, env, "stop", runWithProgress(cmd, o, "Stopping", list, o.Stop))
	case actionRestart:
		if err := reportSummary(cmd, env, "stop", runWithProgress(cmd, o, "Stopping", list, o.Stop)); err != nil {
			return err
		}
		return reportSummary(cmd, env, "start", runWithProgress(cmd, o, "Starting", list, o.Run))
	default:
		return reportSummary(cmd, env, "start", runWithProgress(cmd, o, "Starting", list, o.Run))
	}
}

// runWithProgress runs fn with a spinner naming the service that last
// changed state.
func runWithProgress(
	cmd *cobra.Command,
	o *orchestrator.Orchestrator,
	verb string,
	list []manifest.ServiceDescriptor,
	fn func(context.Context, []manifest.ServiceDescriptor) orchestrator.Summary,
) orchestrator.Summary {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	progress := cli.StartProgress(cmd.ErrOrStderr(), fmt.Sprintf("%s %d services", verb, len(list)), globals.quiet)
	events := o.SubscribeToStateChanges()
	defer o.UnsubscribeFromStateChanges(events)
	done := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for {
			select {
			case ev := <-events:
				progress.Update(fmt.Sprintf("%s: %s is %s", verb, ev.Name, ev.NewState))
			case <-done:
				return
			}
		}
	}()

	summary := fn(ctx, list)
	close(done)
	<-drained
	progress.Stop("")
	return summary
}

// reportSummary prints the summary and turns failures into an error. With
// structured output the summary itself is printed.
func reportSummary(cmd *cobra.Command, env *environment, action string, summary orchestrator.Summary) error {
	if env.output.Structured() {
		if err := cli.WriteStructured(cmd.OutOrStdout(), env.output, summaryView(summary)); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), cli.FormatSummary(action, summary))
	}
	return cli.SummaryError(action, summary)
}

type failureView struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

type summaryResult struct {
	Started []string      `json:"started" yaml:"started"`
	Failed  []failureView `json:"failed" yaml:"failed"`
	Skipped []string      `json:"skipped" yaml:"skipped"`
	Unknown []string      `json:"unknown" yaml:"unknown"`
}

func summaryView(s orchestrator.Summary) summaryResult {
	out := summaryResult{
		Started: nonNil(s.Started),
		Failed:  make([]failureView, 0, len(s.Failed)),
		Skipped: nonNil(s.Skipped),
		Unknown: nonNil(s.Unknown),
	}
	for _, f := range s.Failed {
		out.Failed = append(out.Failed, failureView{Name: f.Name, Error: f.Err.Error()})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
