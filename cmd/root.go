package cmd

import (
	"errors"
	"fmt"
	"os"

	"bosco/internal/cli"
	"bosco/internal/config"
	"bosco/internal/runlist"
	"bosco/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates the configuration could not be loaded.
	ExitCodeConfigError = 2
	// ExitCodeNoRepositories indicates there was nothing to resolve.
	ExitCodeNoRepositories = 3
	// ExitCodePartialFailure indicates that some services failed to start or stop.
	ExitCodePartialFailure = 4
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath  string
	environment string
	noCache     bool
	offline     bool
	teamOnly    bool
	service     bool
	verbose     bool
	logLevel    string
	output      string
	quiet       bool
}

var globals globalFlags

const subsystem = "CLI"

// rootCmd represents the base command for the bosco application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bosco",
	Short: "Run the services of a multi-repository workspace",
	Long: `bosco works out which services a workspace needs and in which order,
following the dependencies declared in bosco-service.json, and starts or
stops them with PM2, Docker and docker-compose.

Repositories that are not cloned locally are described from GitHub and the
result is cached in the bosco configuration.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		exitCode := getExitCode(err)
		os.Exit(exitCode)
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}

	if errors.Is(err, runlist.ErrNoRepositories) {
		return ExitCodeNoRepositories
	}

	var partial *cli.PartialFailureError
	if errors.As(err, &partial) {
		return ExitCodePartialFailure
	}

	return ExitCodeError
}

// initLogging routes log output to stderr at the level selected by
// --log-level or --verbose.
func initLogging(cmd *cobra.Command, _ []string) error {
	level, ok := logging.ParseLevel(globals.logLevel)
	if !ok {
		return &cli.UsageError{Message: fmt.Sprintf("unknown log level %q (debug, info, warn, error)", globals.logLevel)}
	}
	if globals.verbose {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "bosco version %s\n" .Version}}`)
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.configPath, "config-path", "", "Configuration directory (default $HOME/.config/bosco)")
	flags.StringVarP(&globals.environment, "environment", "e", config.DefaultEnvironment, "Environment overlay to load from .bosco/<environment>.yaml")
	flags.BoolVar(&globals.noCache, "nocache", false, "Always fetch remote service configuration")
	flags.BoolVar(&globals.offline, "offline", false, "Use cached remote service configuration regardless of age")
	flags.BoolVar(&globals.teamOnly, "team-only", false, "Skip services that are not cloned in the workspace")
	flags.BoolVar(&globals.service, "service", false, "Run only the repository in the current directory and its dependencies")
	flags.BoolVarP(&globals.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&globals.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVarP(&globals.output, "output", "o", "table", "Output format (table, plain, json, yaml)")
	flags.BoolVarP(&globals.quiet, "quiet", "q", false, "Suppress progress output")
}
