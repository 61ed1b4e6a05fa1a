package containerizer

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"bosco/pkg/logging"
)

const engineSubsystem = "DockerEngine"

// EngineRuntime talks to the Docker Engine API. Image pulls and builds go
// through the docker CLI so that progress and credentials behave as the
// operator expects.
type EngineRuntime struct {
	client *client.Client
}

// NewEngineRuntime connects using DOCKER_HOST and related variables.
func NewEngineRuntime() (*EngineRuntime, error) {
	c, err := client.New(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &EngineRuntime{client: c}, nil
}

// Close releases the client connection.
func (e *EngineRuntime) Close() error {
	return e.client.Close()
}

// RunningContainers lists running containers.
func (e *EngineRuntime) RunningContainers(ctx context.Context) ([]Container, error) {
	list, err := e.client.ContainerList(ctx, client.ContainerListOptions{All: false})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	containers := make([]Container, 0, len(list.Items))
	for _, c := range list.Items {
		containers = append(containers, Container{
			ID:     c.ID,
			Names:  append([]string(nil), c.Names...),
			Image:  c.Image,
			Status: c.Status,
		})
	}
	return containers, nil
}

// ImageExists checks the local image store.
func (e *EngineRuntime) ImageExists(ctx context.Context, image string) (bool, error) {
	return cliImageExists(ctx, image), nil
}

// PullImage pulls image.
func (e *EngineRuntime) PullImage(ctx context.Context, image string) error {
	return cliPullImage(ctx, image)
}

// BuildImage builds contextDir as image.
func (e *EngineRuntime) BuildImage(ctx context.Context, image, contextDir string) error {
	return cliBuildImage(ctx, image, contextDir)
}

// StartContainer removes a container of the same name, then creates and
// starts a new one.
func (e *EngineRuntime) StartContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	cfg, hostCfg, err := engineConfig(spec)
	if err != nil {
		return "", err
	}

	existing, err := e.client.ContainerInspect(ctx, spec.Name, client.ContainerInspectOptions{})
	switch {
	case err == nil:
		logging.Debug(engineSubsystem, "Removing previous container %s", shortID(existing.Container.ID))
		if _, err := e.client.ContainerRemove(ctx, existing.Container.ID, client.ContainerRemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
			return "", fmt.Errorf("remove existing container %q: %w", spec.Name, err)
		}
	case !errdefs.IsNotFound(err):
		return "", fmt.Errorf("inspect container %q: %w", spec.Name, err)
	}

	created, err := e.client.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     cfg,
		HostConfig: hostCfg,
		Name:       spec.Name,
		Image:      spec.Image,
	})
	if err != nil {
		return "", fmt.Errorf("create container %q: %w", spec.Name, err)
	}

	if _, err := e.client.ContainerStart(ctx, created.ID, client.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("start container %q: %w", spec.Name, err)
	}

	logging.Info(engineSubsystem, "Started container %s with ID %s", spec.Name, shortID(created.ID))
	return created.ID, nil
}

// StopContainer stops a running container.
func (e *EngineRuntime) StopContainer(ctx context.Context, containerID string) error {
	if _, err := e.client.ContainerStop(ctx, containerID, client.ContainerStopOptions{}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("stop container %s: %w", shortID(containerID), err)
	}
	return nil
}

func engineConfig(spec ContainerSpec) (*container.Config, *container.HostConfig, error) {
	exposed := network.PortSet{}
	portMap := network.PortMap{}

	for _, key := range spec.ExposedPorts {
		port, err := parsePort(key)
		if err != nil {
			return nil, nil, fmt.Errorf("container %q: %w", spec.Name, err)
		}
		exposed[port] = struct{}{}

		for _, b := range spec.PortBindings[key] {
			hostIP := b.HostIP
			if hostIP == "" {
				hostIP = "0.0.0.0"
			}
			addr, err := netip.ParseAddr(hostIP)
			if err != nil {
				return nil, nil, fmt.Errorf("container %q has invalid host ip %q: %w", spec.Name, hostIP, err)
			}
			portMap[port] = append(portMap[port], network.PortBinding{
				HostIP:   addr,
				HostPort: b.HostPort,
			})
		}
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		Cmd:          spec.Cmd,
		ExposedPorts: exposed,
		Labels:       map[string]string{"bosco.service": spec.Name},
	}

	hostCfg := &container.HostConfig{
		Binds:        spec.Binds,
		PortBindings: portMap,
		ExtraHosts:   spec.ExtraHosts,
		NetworkMode:  container.NetworkMode(spec.NetworkMode),
	}
	return cfg, hostCfg, nil
}

// parsePort reads "8080/tcp" (protocol defaults to tcp).
func parsePort(key string) (network.Port, error) {
	num, proto, found := strings.Cut(key, "/")
	if !found || proto == "" {
		proto = "tcp"
	}
	n, err := strconv.ParseUint(num, 10, 16)
	if err != nil {
		return network.Port{}, fmt.Errorf("invalid port %q: %w", key, err)
	}
	port, ok := network.PortFrom(uint16(n), network.IPProtocol(proto))
	if !ok {
		return network.Port{}, fmt.Errorf("invalid port %q", key)
	}
	return port, nil
}
