package cmd

import (
	"encoding/json"
	"fmt"

	"bosco/internal/cli"
	"bosco/internal/config"
	"bosco/pkg/logging"

	"github.com/spf13/cobra"
)

var configSetJSON bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change the bosco configuration",
	Long: `Manage the bosco configuration from the command line instead of editing
the configuration file. Keys are colon separated paths, for example
github:org or teams:tes/resources:path.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Long: `Print the value stored under key. Without a key the github section is
printed.

Examples:
  bosco config get github:org
  bosco config get docker -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration value",
	Long: `Store value under key and save the configuration file. Only single
values can be set; objects are changed one child key at a time.

Examples:
  bosco config set github:org tes
  bosco config set --json teams:tes/resources:repos '["service-a","app-b"]'`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd)
	configSetCmd.Flags().BoolVar(&configSetJSON, "json", false, "Parse value as JSON")
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := "github"
	if len(args) == 1 {
		key = args[0]
	}
	if err := config.ValidateKey(key); err != nil {
		return &cli.UsageError{Message: err.Error()}
	}

	env, err := loadEnvironment(cmd, nil, nil)
	if err != nil {
		return err
	}

	value, ok := env.store.Get(key)
	if !ok {
		return fmt.Errorf("%s is not set", key)
	}
	if len(args) == 0 {
		value = withoutRepos(value)
	}
	if s, isString := value.(string); isString && !env.output.Structured() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
		return err
	}

	format := env.output
	if !format.Structured() {
		format = cli.OutputFormatYAML
	}
	return cli.WriteStructured(cmd.OutOrStdout(), format, value)
}

// withoutRepos hides the repository list of the github section, which is
// long and rarely what the user is after.
func withoutRepos(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != "repos" {
			out[k] = v
		}
	}
	return out
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if err := config.ValidateKey(key); err != nil {
		return &cli.UsageError{Message: err.Error()}
	}

	var value any = raw
	if configSetJSON {
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return &cli.UsageError{Message: fmt.Sprintf("value is not valid JSON: %v", err)}
		}
	}

	store, err := loadUserStore()
	if err != nil {
		return err
	}

	prev, existed := store.Get(key)
	if _, isObject := prev.(map[string]any); isObject {
		return &cli.UsageError{Message: fmt.Sprintf("%s is an object; set one of its children using ':' as the separator", key)}
	}

	if err := store.Set(key, value); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}

	if existed {
		logging.Info(subsystem, "Changed %s from %v to %v", key, prev, value)
	} else {
		logging.Info(subsystem, "Set %s to %v", key, value)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved "+store.Path()))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := config.ValidateKey(key); err != nil {
		return &cli.UsageError{Message: err.Error()}
	}

	store, err := loadUserStore()
	if err != nil {
		return err
	}
	store.Delete(key)
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Removed "+key))
	return nil
}

// loadUserStore opens the user configuration file without the workspace and
// environment layers, so that a configuration that fails validation can
// still be repaired.
func loadUserStore() (*config.Store, error) {
	path, err := config.UserStorePath(globals.configPath)
	if err != nil {
		return nil, err
	}
	return config.LoadStore(path)
}
