package containerizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const composeSubsystem = "DockerCompose"

// composeFiles are the file names docker-compose picks up by default.
var composeFiles = []string{"docker-compose.yml", "docker-compose.yaml"}

// ComposeRunner runs docker-compose services from their repository directory.
type ComposeRunner struct{}

// NewComposeRunner returns a ComposeRunner.
func NewComposeRunner() *ComposeRunner {
	return &ComposeRunner{}
}

// List reports "docker-compose" when the binary is usable. Compose projects
// are always (re)started, docker-compose itself skips what is up to date.
func (r *ComposeRunner) List(ctx context.Context) ([]string, error) {
	cmd := execCommandContext(ctx, "docker-compose", "--version")
	if err := cmd.Run(); err != nil {
		return nil, nil
	}
	return []string{"docker-compose"}, nil
}

// Start runs docker-compose up -d in the service directory.
func (r *ComposeRunner) Start(ctx context.Context, desc manifest.ServiceDescriptor) error {
	if err := requireComposeFile(desc); err != nil {
		return err
	}
	logging.Info(composeSubsystem, "Starting %s", desc.Name)
	return r.compose(ctx, desc.Cwd, "up", "-d")
}

// Stop runs docker-compose stop in the service directory.
func (r *ComposeRunner) Stop(ctx context.Context, desc manifest.ServiceDescriptor) error {
	if err := requireComposeFile(desc); err != nil {
		return err
	}
	logging.Info(composeSubsystem, "Stopping %s", desc.Name)
	return r.compose(ctx, desc.Cwd, "stop")
}

func (r *ComposeRunner) compose(ctx context.Context, dir string, args ...string) error {
	cmd := execCommandContext(ctx, "docker-compose", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker-compose %s failed in %s: %w\nOutput: %s", args[0], dir, err, string(output))
	}
	logging.Debug(composeSubsystem, "docker-compose %s: %s", args[0], string(output))
	return nil
}

func requireComposeFile(desc manifest.ServiceDescriptor) error {
	if desc.Cwd == "" {
		return fmt.Errorf("%s is not cloned locally, docker-compose needs its repository", desc.Name)
	}
	for _, name := range composeFiles {
		if _, err := os.Stat(filepath.Join(desc.Cwd, name)); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no docker-compose.yml or docker-compose.yaml in %s", desc.Cwd)
}
