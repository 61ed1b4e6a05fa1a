package cmd

import (
	"context"
	"strconv"

	"bosco/internal/cli"

	"github.com/spf13/cobra"
)

var (
	depsSelection selectionFlags
	depsRunList   bool
	depsCDN       bool
)

// depsCmd represents the deps command
var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show the dependencies of the workspace",
	Long: `Print the dependency tree of every repository in the workspace.
Dependencies that lead back to one of their ancestors are marked (circular).

With --run-list, or with -o json|yaml, the resolved run list is printed
instead, in the order 'bosco run' would start it.

Examples:
  bosco deps
  bosco deps --run-list -r '^service-'
  bosco deps -o json`,
	Args: cobra.NoArgs,
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
	depsSelection.register(depsCmd)
	depsCmd.Flags().BoolVar(&depsRunList, "run-list", false, "Print the resolved run list instead of the tree")
	depsCmd.Flags().BoolVar(&depsCDN, "cdn", false, "Resolve as the asset server does, without remote configuration")
}

func runDeps(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sel, err := depsSelection.compile()
	if err != nil {
		return err
	}
	filters := depsSelection
	filters.cdnMode = depsCDN
	env, err := loadEnvironment(cmd, &sel, &filters)
	if err != nil {
		return err
	}
	repos := env.workspace.Repos()

	if env.output.Structured() {
		list, err := env.resolver.RepoRunList(ctx, repos, sel.match, sel.watch)
		if err != nil {
			return err
		}
		return cli.WriteStructured(cmd.OutOrStdout(), env.output, list)
	}

	if !depsRunList {
		return env.resolver.Display(ctx, repos, sel.match, sel.watch)
	}

	list, err := env.resolve(ctx, cmd, sel)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, desc := range list {
		rows = append(rows, []string{
			cli.Repo(desc.Name),
			string(desc.Service.Type),
			strconv.Itoa(desc.EffectiveOrder()),
			strconv.FormatBool(desc.Watch),
		})
	}
	cli.RenderTable(cmd.OutOrStdout(), []string{"Service", "Type", "Order", "Watch"}, rows, cli.TableOptions{
		Plain: env.output == cli.OutputFormatPlain || !cli.IsTerminal(cmd.OutOrStdout()),
	})
	return nil
}
