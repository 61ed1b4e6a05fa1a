package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bosco/internal/cli"
	"bosco/internal/config"
	"bosco/internal/orchestrator"
	"bosco/internal/runlist"
)

// executeCommand runs the root command with args and fresh flag values.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	globals = globalFlags{environment: config.DefaultEnvironment, logLevel: "info", output: "table", quiet: true}
	configSetJSON = false
	teamLinkNoSync = false
	for _, sel := range []*selectionFlags{&runSelection, &stopSelection, &restartSelection, &depsSelection} {
		*sel = selectionFlags{repoRegex: ".*"}
	}
	depsRunList, depsCDN = false, false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)
	assert.Equal(t, testVersion, rootCmd.Version)
	assert.Equal(t, testVersion, GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "bosco", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"run", "stop", "restart", "ps", "deps", "config", "team", "version", "self-update"} {
		assert.True(t, found[name], "subcommand %s should be registered", name)
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config-path", "environment", "nocache", "offline", "team-only", "service", "verbose", "output", "quiet"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
	for _, c := range []*cobra.Command{runCmd, stopCmd, restartCmd, depsCmd} {
		for _, name := range []string{"repo", "tag", "exclude", "watch", "deps-only", "docker-only", "infra"} {
			assert.NotNil(t, c.Flags().Lookup(name), "%s --%s", c.Name(), name)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"general", errors.New("boom"), ExitCodeError},
		{"configuration", fmt.Errorf("load: %w", &config.ConfigurationError{Message: "bad"}), ExitCodeConfigError},
		{"no repositories", fmt.Errorf("resolve: %w", runlist.ErrNoRepositories), ExitCodeNoRepositories},
		{"partial failure", &cli.PartialFailureError{Action: "start", Failed: []string{"a"}, Total: 2}, ExitCodePartialFailure},
		{"usage", &cli.UsageError{Message: "bad flag"}, ExitCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestSelectionCompile(t *testing.T) {
	sel, err := (&selectionFlags{repoRegex: "^service-", watch: "app-", exclude: "mongo"}).compile()
	require.NoError(t, err)
	assert.Equal(t, "pattern ^service-", sel.match.String())
	assert.True(t, sel.watch.MatchString("app-web"))
	assert.True(t, sel.exclude.MatchString("infra-mongo"))

	sel, err = (&selectionFlags{repoRegex: "^service-", tag: "upload"}).compile()
	require.NoError(t, err)
	tag, ok := sel.match.Tag()
	assert.True(t, ok)
	assert.Equal(t, "upload", tag)
	assert.Nil(t, sel.watch)

	sel, err = (&selectionFlags{}).compile()
	require.NoError(t, err)
	_, ok = sel.match.Tag()
	assert.False(t, ok)

	_, err = (&selectionFlags{repoRegex: "("}).compile()
	var usage *cli.UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestSummaryView(t *testing.T) {
	view := summaryView(orchestrator.Summary{
		Started: []string{"service-a"},
		Failed:  []orchestrator.Failure{{Name: "infra-mongo", Err: errors.New("pull failed")}},
	})
	assert.Equal(t, []string{"service-a"}, view.Started)
	assert.Equal(t, []failureView{{Name: "infra-mongo", Error: "pull failed"}}, view.Failed)
	assert.NotNil(t, view.Skipped)
	assert.NotNil(t, view.Unknown)
}

func TestConfigSetAndGet(t *testing.T) {
	dir := t.TempDir()

	out, err := executeCommand(t, "config", "set", "github:org", "tes", "--config-path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved "+filepath.Join(dir, "bosco.yaml"))

	out, err = executeCommand(t, "config", "get", "github:org", "--config-path", dir)
	require.NoError(t, err)
	assert.Equal(t, "tes\n", out)

	_, err = executeCommand(t, "config", "set", "--json", "docker:localhost", `["a.local","b.local"]`, "--config-path", dir)
	require.NoError(t, err)

	out, err = executeCommand(t, "config", "get", "docker:localhost", "-o", "json", "--config-path", dir)
	require.NoError(t, err)
	assert.JSONEq(t, `["a.local","b.local"]`, out)

	_, err = executeCommand(t, "config", "set", "github", "x", "--config-path", dir)
	var usage *cli.UsageError
	assert.ErrorAs(t, err, &usage)

	_, err = executeCommand(t, "config", "unset", "github:org", "--config-path", dir)
	require.NoError(t, err)

	_, err = executeCommand(t, "config", "get", "github:org", "--config-path", dir)
	assert.ErrorContains(t, err, "github:org is not set")
}

func TestConfigSetInvalidJSON(t *testing.T) {
	_, err := executeCommand(t, "config", "set", "--json", "docker:localhost", "[", "--config-path", t.TempDir())
	var usage *cli.UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestConfigGetWithoutKeyHidesRepos(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bosco.yaml"), []byte("github:\n  org: tes\n  repos:\n  - service-a\n"), 0600))

	out, err := executeCommand(t, "config", "get", "--config-path", dir)
	require.NoError(t, err)
	assert.Equal(t, "org: tes\n", out)
}

func TestTeamList(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "resources")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bosco.yaml"), []byte(
		"teams:\n  tes/resources:\n    path: "+workspace+"\n    repos:\n    - service-a\n    - app-b\n"), 0600))

	out, err := executeCommand(t, "team", "ls", "-o", "plain", "--config-path", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"TEAM", "PATH", "REPOS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"tes/resources", workspace, "2"}, strings.Fields(lines[1]))
}

func TestTeamLinkWithoutSync(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	_, err := executeCommand(t, "team", "ln", "tes/resources", workspace, "--no-sync", "--config-path", dir)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(workspace, config.WorkspaceMarker))
	store, err := config.LoadStore(filepath.Join(dir, "bosco.yaml"))
	require.NoError(t, err)
	assert.Equal(t, workspace, store.GetString("teams:tes/resources:path"))

	_, err = executeCommand(t, "team", "ln", "resources", workspace, "--config-path", dir)
	var usage *cli.UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := executeCommand(t, "team", "ls", "-o", "xml", "--config-path", t.TempDir())
	var usage *cli.UsageError
	assert.ErrorAs(t, err, &usage)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "src"), expandHome("~/src"))
	assert.Equal(t, "/opt/src", expandHome("/opt/src"))
}
