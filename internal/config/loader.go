package config

import (
	"fmt"
	"os"
	"path/filepath"

	"bosco/pkg/logging"
)

const (
	userConfigDir  = ".config/bosco"
	configFileName = "bosco.yaml"
	// DefaultEnvironment is used when --environment is not given.
	DefaultEnvironment = "local"
)

// osUserHomeDir is a variable so tests can point the default location elsewhere.
var osUserHomeDir = os.UserHomeDir

// GetUserConfigDir returns ~/.config/bosco.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// UserStorePath is the user configuration file inside configPath, or inside
// the default directory when configPath is empty.
func UserStorePath(configPath string) (string, error) {
	if configPath == "" {
		dir, err := GetUserConfigDir()
		if err != nil {
			return "", err
		}
		configPath = dir
	}
	return filepath.Join(configPath, configFileName), nil
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigPath overrides the user configuration directory.
	ConfigPath string
	// Cwd is where workspace discovery starts.
	Cwd string
	// Environment selects the .bosco/<environment>.yaml overlay.
	Environment string
	// Environ is the process environment used for BOSCO_ overrides.
	Environ []string
}

// Load builds the layered store and the workspace it belongs to.
func Load(opts LoadOptions) (*Store, *Workspace, error) {
	path, err := UserStorePath(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := LoadStore(path)
	if err != nil {
		return nil, nil, err
	}

	env := opts.Environment
	if env == "" {
		env = DefaultEnvironment
	}

	cwd := opts.Cwd
	if cwd == "" {
		if cwd, err = os.Getwd(); err != nil {
			return nil, nil, fmt.Errorf("could not determine working directory: %w", err)
		}
	}

	ws := NewWorkspace(store, cwd, env)
	if err := store.AddOverrideFile(ws.EnvConfigFile()); err != nil {
		return nil, nil, err
	}
	store.AddEnvOverrides(opts.Environ)

	settings, err := store.Settings()
	if err != nil {
		return nil, nil, &ConfigurationError{FilePath: store.Path(), ErrorType: "parse", Message: "configuration has unexpected shape", Err: err}
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, &ConfigurationError{
			FilePath:    store.Path(),
			ErrorType:   "validation",
			Message:     "configuration is invalid",
			Err:         err,
			Suggestions: []string{"Fix the reported keys with 'bosco config set <key> <value>'"},
		}
	}

	logging.Debug("ConfigLoader", "Using configuration %s in environment %s (workspace %s)", store.Path(), env, ws.Root)
	return store, ws, nil
}
