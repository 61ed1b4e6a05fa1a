package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"bosco/internal/cli"
	"bosco/internal/config"
	"bosco/internal/github"
	"bosco/pkg/logging"

	"github.com/spf13/cobra"
)

var teamLinkNoSync bool

// teamCmd represents the team command
var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Link GitHub teams to workspace directories",
	Long: `A team is written <organisation>/<team>. Linking a team to a directory
makes that directory a workspace: bosco run inside it works on the
repositories of the team.`,
	Args: cobra.NoArgs,
	RunE: runTeamCurrent,
}

var teamListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the configured teams",
	Args:    cobra.NoArgs,
	RunE:    runTeamList,
}

var teamLinkCmd = &cobra.Command{
	Use:   "ln <organisation/team> <directory>",
	Short: "Link a team to a workspace directory",
	Long: `Record directory as the workspace of the team, create its .bosco
directory and fetch the team's repositories from GitHub.

Examples:
  bosco team ln tes/resources ~/src/resources
  bosco team ln tes/resources . --no-sync`,
	Args: cobra.ExactArgs(2),
	RunE: runTeamLink,
}

var teamSyncCmd = &cobra.Command{
	Use:   "sync [organisation/team]",
	Short: "Refresh the repository list of linked teams from GitHub",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTeamSync,
}

func init() {
	rootCmd.AddCommand(teamCmd)
	teamCmd.AddCommand(teamListCmd, teamLinkCmd, teamSyncCmd)
	teamLinkCmd.Flags().BoolVar(&teamLinkNoSync, "no-sync", false, "Do not fetch the team's repositories")
}

func runTeamCurrent(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd, nil, nil)
	if err != nil {
		return err
	}
	team := env.workspace.Team()
	if team == "" {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Not in a team workspace"))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "You are in team %s (%s)\n", team, env.workspace.Root)
	return nil
}

type teamRow struct {
	Team  string `json:"team" yaml:"team"`
	Path  string `json:"path" yaml:"path"`
	Repos int    `json:"repos" yaml:"repos"`
}

func runTeamList(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment(cmd, nil, nil)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(env.settings.Teams))
	for name := range env.settings.Teams {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]teamRow, 0, len(names))
	for _, name := range names {
		team := env.settings.Teams[name]
		rows = append(rows, teamRow{Team: name, Path: team.Path, Repos: len(team.Repos)})
	}

	if env.output.Structured() {
		return cli.WriteStructured(cmd.OutOrStdout(), env.output, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No teams configured. Link one with 'bosco team ln <organisation/team> <directory>'")
		return nil
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{r.Team, r.Path, strconv.Itoa(r.Repos)})
	}
	cli.RenderTable(cmd.OutOrStdout(), []string{"Team", "Path", "Repos"}, table, cli.TableOptions{
		Plain: env.output == cli.OutputFormatPlain || !cli.IsTerminal(cmd.OutOrStdout()),
	})
	return nil
}

func runTeamLink(cmd *cobra.Command, args []string) error {
	team, dir := args[0], args[1]
	if err := config.ValidateTeamName(team); err != nil {
		return &cli.UsageError{Message: err.Error()}
	}

	path, err := filepath.Abs(expandHome(dir))
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(filepath.Join(path, config.WorkspaceMarker), 0755); err != nil {
		return fmt.Errorf("failed to create workspace in %s: %w", path, err)
	}

	store, err := loadUserStore()
	if err != nil {
		return err
	}
	if err := store.Set("teams:"+team+":path", path); err != nil {
		return err
	}

	if !teamLinkNoSync {
		if err := syncTeamRepos(cmd, store, team); err != nil {
			logging.Warn(subsystem, "Could not fetch the repositories of %s: %v", team, err)
		}
	}

	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Team %s linked to %s", team, path)))
	return nil
}

func runTeamSync(cmd *cobra.Command, args []string) error {
	store, err := loadUserStore()
	if err != nil {
		return err
	}

	var teams []string
	if len(args) == 1 {
		if err := config.ValidateTeamName(args[0]); err != nil {
			return &cli.UsageError{Message: err.Error()}
		}
		teams = []string{args[0]}
	} else {
		teams = store.Keys("teams")
	}
	if len(teams) == 0 {
		return &cli.UsageError{Message: "no teams configured; link one with 'bosco team ln <organisation/team> <directory>'"}
	}

	var failed []string
	for _, team := range teams {
		if err := syncTeamRepos(cmd, store, team); err != nil {
			logging.Error(subsystem, err, "Could not sync %s", team)
			failed = append(failed, team)
		}
	}

	if err := store.Save(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return &cli.PartialFailureError{Action: "sync", Failed: failed, Total: len(teams)}
	}
	return nil
}

// syncTeamRepos stores the repositories of team as listed by GitHub.
func syncTeamRepos(cmd *cobra.Command, store *config.Store, team string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var gh config.GitHubConfig
	if _, err := store.Decode("github", &gh); err != nil {
		return err
	}
	fetcher, err := github.NewFetcher(github.Options{AuthToken: gh.AuthToken, APIHostname: gh.APIHostname})
	if err != nil {
		return err
	}

	org, slug, _ := strings.Cut(team, "/")
	progress := cli.StartProgress(cmd.ErrOrStderr(), "Fetching repositories of "+team, globals.quiet)
	repos, err := fetcher.TeamRepos(ctx, org, slug)
	progress.Stop("")
	if err != nil {
		return err
	}

	if err := store.Set("teams:"+team+":repos", repos); err != nil {
		return err
	}
	logging.Info(subsystem, "Team %s has %d repositories", team, len(repos))
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
