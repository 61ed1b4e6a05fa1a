package process

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const pm2Subsystem = "PM2"

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// PM2Runner runs node services under pm2.
type PM2Runner struct {
	versions *NodeChecker
}

// NewPM2Runner returns a runner that checks node versions with versions.
// A nil checker skips the check.
func NewPM2Runner(versions *NodeChecker) *PM2Runner {
	return &PM2Runner{versions: versions}
}

type pm2Process struct {
	Name   string `json:"name"`
	PM2Env struct {
		Status string `json:"status"`
	} `json:"pm2_env"`
}

// Process is a pm2 process and its status.
type Process struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
}

// List returns the pm2 processes that are online or errored.
func (r *PM2Runner) List(ctx context.Context) ([]string, error) {
	procs, err := r.Processes(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		names = append(names, p.Name)
	}
	return names, nil
}

// Processes returns the pm2 processes that are online or errored with their
// status.
func (r *PM2Runner) Processes(ctx context.Context) ([]Process, error) {
	cmd := execCommandContext(ctx, "pm2", "jlist")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pm2 jlist failed: %w", err)
	}
	return parseJList(output)
}

func parseJList(output []byte) ([]Process, error) {
	// pm2 may print banners before the JSON document.
	start := strings.Index(string(output), "[")
	if start < 0 {
		return nil, fmt.Errorf("unexpected pm2 jlist output: %q", strings.TrimSpace(string(output)))
	}

	var procs []pm2Process
	if err := json.Unmarshal(output[start:], &procs); err != nil {
		return nil, fmt.Errorf("failed to parse pm2 jlist output: %w", err)
	}

	var out []Process
	for _, p := range procs {
		if p.PM2Env.Status == "online" || p.PM2Env.Status == "errored" {
			out = append(out, Process{Name: p.Name, Status: p.PM2Env.Status})
		}
	}
	return out, nil
}

// Script is a start command split the way pm2 wants it.
type Script struct {
	Location string
	Args     []string
}

// ParseStart turns a start command into a script location and arguments.
// A leading "node" is dropped and ".js" is added when the script has no
// extension. Everything after " -- " is passed to the script.
func ParseStart(start string) Script {
	fields := strings.Fields(start)
	if len(fields) > 0 && fields[0] == "node" {
		fields = fields[1:]
		if len(fields) > 0 && filepath.Ext(fields[0]) == "" {
			fields[0] += ".js"
		}
	}
	location := strings.Join(fields, " ")

	var args []string
	if before, after, found := strings.Cut(location, " -- "); found {
		location = before
		args = strings.Fields(after)
	}
	return Script{Location: location, Args: args}
}

// startArgs builds the pm2 start command line.
func startArgs(desc manifest.ServiceDescriptor, script Script) []string {
	args := []string{"start", script.Location, "--name", desc.Name, "--cwd", desc.Cwd, "-f"}
	if desc.Watch {
		args = append(args, "--watch")
	}
	if len(script.Args) > 0 {
		args = append(args, "--")
		args = append(args, script.Args...)
	}
	return args
}

// Start launches the service's start script under pm2. A script that does
// not exist is reported and skipped.
func (r *PM2Runner) Start(ctx context.Context, desc manifest.ServiceDescriptor) error {
	if desc.Service.Start == "" {
		return fmt.Errorf("%s has no start script", desc.Name)
	}

	script := ParseStart(desc.Service.Start)
	if _, err := os.Stat(filepath.Join(desc.Cwd, script.Location)); err != nil {
		logging.Warn(pm2Subsystem, "Can't start %s, as I can't find script: %s", desc.Name, script.Location)
		return nil
	}

	if r.versions != nil {
		r.versions.Check(ctx, desc)
	}

	logging.Info(pm2Subsystem, "Starting %s ...", desc.Name)
	cmd := execCommandContext(ctx, "pm2", startArgs(desc, script)...)
	cmd.Dir = desc.Cwd
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pm2 start %s failed: %w\nOutput: %s", desc.Name, err, string(output))
	}
	return nil
}

// Stop stops the pm2 process and removes it from the process list.
func (r *PM2Runner) Stop(ctx context.Context, desc manifest.ServiceDescriptor) error {
	logging.Info(pm2Subsystem, "Stopping %s", desc.Name)
	for _, verb := range []string{"stop", "delete"} {
		cmd := execCommandContext(ctx, "pm2", verb, desc.Name)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("pm2 %s %s failed: %w\nOutput: %s", verb, desc.Name, err, string(output))
		}
	}
	return nil
}
