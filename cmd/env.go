package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"bosco/internal/cli"
	"bosco/internal/config"
	"bosco/internal/containerizer"
	"bosco/internal/github"
	"bosco/internal/manifest"
	"bosco/internal/orchestrator"
	"bosco/internal/process"
	"bosco/internal/runlist"
	"bosco/pkg/logging"

	"github.com/spf13/cobra"
)

// selectionFlags choose which part of the run list a command works on.
type selectionFlags struct {
	repoRegex  string
	tag        string
	exclude    string
	watch      string
	depsOnly   bool
	dockerOnly bool
	infraOnly  bool
	cdnMode    bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.repoRegex, "repo", "r", ".*", "Regular expression selecting the repositories to run")
	cmd.Flags().StringVarP(&f.tag, "tag", "t", "", "Select repositories carrying this tag (takes precedence over --repo)")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "Regular expression of repositories to leave out")
	cmd.Flags().StringVarP(&f.watch, "watch", "w", "", "Regular expression of node services to run with file watching")
	cmd.Flags().BoolVarP(&f.depsOnly, "deps-only", "d", false, "Leave out the current repository in --service mode")
	cmd.Flags().BoolVar(&f.dockerOnly, "docker-only", false, "Only docker services")
	cmd.Flags().BoolVar(&f.infraOnly, "infra", false, "Only infra- repositories")
}

// compiled is a selection with its expressions parsed.
type compiled struct {
	match   runlist.MatchMode
	exclude *regexp.Regexp
	watch   *regexp.Regexp
}

func (f *selectionFlags) compile() (compiled, error) {
	var c compiled

	if f.tag != "" {
		c.match = runlist.ByTag(f.tag)
	} else {
		re, err := compileFlag("repo", f.repoRegex)
		if err != nil {
			return c, err
		}
		if re == nil {
			c.match = runlist.MatchAll()
		} else {
			c.match = runlist.ByRegex(re)
		}
	}

	var err error
	if c.exclude, err = compileFlag("exclude", f.exclude); err != nil {
		return c, err
	}
	if c.watch, err = compileFlag("watch", f.watch); err != nil {
		return c, err
	}
	return c, nil
}

func compileFlag(name, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &cli.UsageError{Message: fmt.Sprintf("invalid --%s expression %q: %v", name, expr, err)}
	}
	return re, nil
}

// environment is everything a command needs to resolve a run list.
type environment struct {
	store     *config.Store
	workspace *config.Workspace
	settings  config.Settings
	cache     *github.Cache
	resolver  *runlist.Resolver
	output    cli.OutputFormat
	out       io.Writer
}

// loadEnvironment reads the configuration and wires the resolver. A nil
// selection loads the configuration only.
func loadEnvironment(cmd *cobra.Command, sel *compiled, filters *selectionFlags) (*environment, error) {
	format, err := cli.ParseOutputFormat(globals.output)
	if err != nil {
		return nil, err
	}

	store, ws, err := config.Load(config.LoadOptions{
		ConfigPath:  globals.configPath,
		Environment: globals.environment,
		Environ:     os.Environ(),
	})
	if err != nil {
		return nil, err
	}

	settings, err := store.Settings()
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	env := &environment{
		store:     store,
		workspace: ws,
		settings:  settings,
		output:    format,
		out:       cmd.OutOrStdout(),
	}
	if sel == nil {
		return env, nil
	}

	if globals.service {
		if name := ws.EnterService(); name == "" {
			return nil, &cli.UsageError{Message: "--service needs a bosco-service.json in the current directory"}
		}
	}

	fetcher, err := github.NewFetcher(github.Options{
		AuthToken:      settings.GitHub.AuthToken,
		APIHostname:    settings.GitHub.APIHostname,
		DockerDefaults: settings.Docker.Defaults,
	})
	if err != nil {
		return nil, err
	}
	env.cache = github.NewCache(fetcher, store)
	env.cache.NoCache = globals.noCache
	env.cache.Offline = globals.offline

	opts := runlist.Options{
		Workspace:     ws,
		Remote:        env.cache,
		InServiceRepo: ws.InServiceRepo(),
		TeamOnly:      globals.teamOnly,
		Exclude:       sel.exclude,
		Output:        cmd.OutOrStdout(),
		Colors:        cli.IsTerminal(cmd.OutOrStdout()),
	}
	if filters != nil {
		opts.DepsOnly = filters.depsOnly
		opts.DockerOnly = filters.dockerOnly
		opts.InfraOnly = filters.infraOnly
		opts.CDNMode = filters.cdnMode
	}
	env.resolver = runlist.New(opts)
	return env, nil
}

// resolve produces the run list of the workspace behind a spinner.
func (e *environment) resolve(ctx context.Context, cmd *cobra.Command, sel compiled) ([]manifest.ServiceDescriptor, error) {
	progress := cli.StartProgress(cmd.ErrOrStderr(), "Resolving dependencies", globals.quiet)
	list, err := e.resolver.Resolve(ctx, e.workspace.Repos(), sel.match, sel.watch)
	progress.Stop("")
	if err != nil {
		return nil, err
	}
	return list, nil
}

// newOrchestrator connects the runners configured in settings. When Docker
// cannot be reached the docker services fail individually and the rest still
// run.
func newOrchestrator(ctx context.Context, settings config.Settings) (*orchestrator.Orchestrator, func()) {
	runners := orchestrator.Runners{
		Compose: containerizer.NewComposeRunner(),
		Node:    process.NewPM2Runner(process.NewNodeChecker()),
	}
	closeRuntime := func() {}

	rt, err := containerizer.NewContainerRuntime(ctx, settings.Docker.Runtime)
	if err != nil {
		logging.Warn(subsystem, "Docker is not available: %v", err)
	} else {
		closeRuntime = func() {
			if c, ok := rt.(io.Closer); ok {
				_ = c.Close()
			}
		}
		runners.Docker = containerizer.NewDockerRunner(rt, containerizer.DockerOptions{
			Hosts: containerizer.HostsOptions{
				HostIP:          containerizer.HostIP(),
				Localhost:       settings.Docker.Localhost,
				LocalhostDomain: settings.Docker.LocalhostDomain,
			},
			CheckHost: settings.Docker.CheckHost,
		})
	}

	o := orchestrator.New(orchestrator.Config{
		Runners:     runners,
		Concurrency: config.DefaultConcurrency(),
	})
	return o, closeRuntime
}
