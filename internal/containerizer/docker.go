package containerizer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bosco/pkg/logging"
)

const dockerSubsystem = "Docker"

// CLIRuntime implements ContainerRuntime using the Docker CLI
type CLIRuntime struct{}

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// NewCLIRuntime creates a runtime that drives the docker command.
func NewCLIRuntime(ctx context.Context) (*CLIRuntime, error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return nil, fmt.Errorf("docker command not found in PATH: %w", err)
	}

	cmd := execCommandContext(ctx, "docker", "info")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	return &CLIRuntime{}, nil
}

// ImageExists checks if an image is present locally
func (d *CLIRuntime) ImageExists(ctx context.Context, image string) (bool, error) {
	return cliImageExists(ctx, image), nil
}

// PullImage pulls a container image
func (d *CLIRuntime) PullImage(ctx context.Context, image string) error {
	return cliPullImage(ctx, image)
}

// BuildImage builds an image from a local directory
func (d *CLIRuntime) BuildImage(ctx context.Context, image, contextDir string) error {
	return cliBuildImage(ctx, image, contextDir)
}

// RunningContainers lists running containers via docker ps
func (d *CLIRuntime) RunningContainers(ctx context.Context) ([]Container, error) {
	cmd := execCommandContext(ctx, "docker", "ps", "--no-trunc", "--format", "{{json .}}")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return parsePSOutput(output)
}

// StartContainer starts a container with the given configuration
func (d *CLIRuntime) StartContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	// A stale container with the same name blocks docker run.
	rm := execCommandContext(ctx, "docker", "rm", "-f", spec.Name)
	if err := rm.Run(); err != nil {
		logging.Debug(dockerSubsystem, "No previous container %s to remove", spec.Name)
	}

	args := runArgs(spec)
	logging.Debug(dockerSubsystem, "Starting container with command: docker %s", strings.Join(args, " "))

	cmd := execCommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to start container: %w\nOutput: %s", err, string(output))
	}

	containerID := strings.TrimSpace(string(output))
	logging.Info(dockerSubsystem, "Started container %s with ID %s", spec.Name, shortID(containerID))

	return containerID, nil
}

// StopContainer stops a running container
func (d *CLIRuntime) StopContainer(ctx context.Context, containerID string) error {
	logging.Debug(dockerSubsystem, "Stopping container %s", shortID(containerID))

	cmd := execCommandContext(ctx, "docker", "stop", containerID)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", shortID(containerID), err)
	}

	return nil
}

func runArgs(spec ContainerSpec) []string {
	args := []string{"run", "-d", "--name", spec.Name}

	for _, env := range spec.Env {
		args = append(args, "-e", env)
	}

	for _, port := range spec.ExposedPorts {
		bindings := spec.PortBindings[port]
		if len(bindings) == 0 {
			args = append(args, "--expose", port)
			continue
		}
		for _, b := range bindings {
			publish := b.HostPort + ":" + port
			if b.HostIP != "" {
				publish = b.HostIP + ":" + publish
			}
			args = append(args, "-p", publish)
		}
	}

	for _, host := range spec.ExtraHosts {
		args = append(args, "--add-host", host)
	}

	for _, bind := range spec.Binds {
		args = append(args, "-v", expandPath(bind))
	}

	if spec.NetworkMode != "" {
		args = append(args, "--network", spec.NetworkMode)
	}

	args = append(args, spec.Image)
	return append(args, spec.Cmd...)
}

type psLine struct {
	ID     string `json:"ID"`
	Names  string `json:"Names"`
	Image  string `json:"Image"`
	Status string `json:"Status"`
}

func parsePSOutput(output []byte) ([]Container, error) {
	var containers []Container
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ps psLine
		if err := json.Unmarshal([]byte(line), &ps); err != nil {
			return nil, fmt.Errorf("unexpected docker ps output %q: %w", line, err)
		}
		c := Container{ID: ps.ID, Image: ps.Image, Status: ps.Status}
		for _, name := range strings.Split(ps.Names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Names = append(c.Names, "/"+strings.TrimPrefix(name, "/"))
			}
		}
		containers = append(containers, c)
	}
	return containers, scanner.Err()
}

func cliImageExists(ctx context.Context, image string) bool {
	checkCmd := execCommandContext(ctx, "docker", "image", "inspect", image)
	return checkCmd.Run() == nil
}

func cliPullImage(ctx context.Context, image string) error {
	logging.Info(dockerSubsystem, "Pulling image %s ...", image)
	pullCmd := execCommandContext(ctx, "docker", "pull", image)
	pullCmd.Stdout = os.Stdout
	pullCmd.Stderr = os.Stderr

	if err := pullCmd.Run(); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", image, err)
	}
	return nil
}

func cliBuildImage(ctx context.Context, image, contextDir string) error {
	logging.Info(dockerSubsystem, "Building image %s from %s ...", image, contextDir)
	buildCmd := execCommandContext(ctx, "docker", "build", "-t", image, contextDir)
	output, err := buildCmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w\nOutput: %s", image, err, string(output))
	}
	return nil
}

func shortID(containerID string) string {
	if len(containerID) > 12 {
		return containerID[:12]
	}
	return containerID
}

// expandPath expands tilde in paths to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
