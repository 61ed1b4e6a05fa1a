package containerizer

import (
	"context"
	"fmt"
	"net"
	"time"

	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const (
	// DefaultCheckTimeout bounds the wait for a started container's port.
	DefaultCheckTimeout = 10 * time.Second
	// DefaultCheckInterval is the pause between port probes.
	DefaultCheckInterval = 200 * time.Millisecond
	defaultCheckHost     = "localhost"
)

// dialTimeout is replaced in tests.
var dialTimeout = net.DialTimeout

// DockerOptions configures a DockerRunner.
type DockerOptions struct {
	Hosts         HostsOptions
	CheckHost     string
	CheckInterval time.Duration
}

// DockerRunner starts and stops docker services on a ContainerRuntime.
type DockerRunner struct {
	runtime ContainerRuntime
	opts    DockerOptions
}

// NewDockerRunner wraps runtime. Empty options fall back to localhost and
// DefaultCheckInterval.
func NewDockerRunner(runtime ContainerRuntime, opts DockerOptions) *DockerRunner {
	if opts.CheckHost == "" {
		opts.CheckHost = defaultCheckHost
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	return &DockerRunner{runtime: runtime, opts: opts}
}

// List returns the names of running containers.
func (r *DockerRunner) List(ctx context.Context) ([]string, error) {
	containers, err := r.runtime.RunningContainers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(containers))
	for _, c := range containers {
		if name := c.Name(); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Start makes the image available, replaces any container of the same name
// and waits for the first published port to accept connections. A port that
// never opens is reported as a warning.
func (r *DockerRunner) Start(ctx context.Context, desc manifest.ServiceDescriptor) error {
	image := ImageFQN(desc.Service)

	if buildDir := BuildContext(desc); buildDir != "" {
		if err := r.runtime.BuildImage(ctx, image, buildDir); err != nil {
			return err
		}
	} else {
		present, err := r.runtime.ImageExists(ctx, image)
		if err != nil {
			return fmt.Errorf("check image %s: %w", image, err)
		}
		if !present {
			if err := r.runtime.PullImage(ctx, image); err != nil {
				return err
			}
		}
	}

	spec := BuildSpec(desc, image, r.opts.Hosts)
	if _, err := r.runtime.StartContainer(ctx, spec); err != nil {
		return err
	}

	port := spec.CheckPort()
	if port == "" {
		return nil
	}

	timeout := DefaultCheckTimeout
	if desc.Service.CheckTimeout > 0 {
		timeout = time.Duration(desc.Service.CheckTimeout) * time.Millisecond
	}
	if !r.waitForPort(ctx, port, timeout) {
		logging.Warn(dockerSubsystem, "Could not detect if %s had started on port %s after %s", spec.Name, port, timeout)
	}
	return nil
}

// Stop stops every running container named after the service.
func (r *DockerRunner) Stop(ctx context.Context, desc manifest.ServiceDescriptor) error {
	name := desc.ServiceName()
	containers, err := r.runtime.RunningContainers(ctx)
	if err != nil {
		return err
	}
	for _, c := range containers {
		if !c.HasName(name) {
			continue
		}
		logging.Info(dockerSubsystem, "Stopping %s", name)
		if err := r.runtime.StopContainer(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *DockerRunner) waitForPort(ctx context.Context, port string, timeout time.Duration) bool {
	addr := net.JoinHostPort(r.opts.CheckHost, port)
	deadline := time.Now().Add(timeout)

	for {
		conn, err := dialTimeout("tcp", addr, r.opts.CheckInterval)
		if err == nil {
			_ = conn.Close()
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(r.opts.CheckInterval):
		}
	}
}
