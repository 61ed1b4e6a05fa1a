package containerizer

import (
	"context"
	"strings"

	"bosco/internal/manifest"
)

// ContainerRuntime defines the container operations the docker runner needs.
type ContainerRuntime interface {
	// RunningContainers lists running containers.
	RunningContainers(ctx context.Context) ([]Container, error)

	// ImageExists reports whether image is available locally.
	ImageExists(ctx context.Context, image string) (bool, error)

	// PullImage pulls image from its registry.
	PullImage(ctx context.Context, image string) error

	// BuildImage builds contextDir and tags the result as image.
	BuildImage(ctx context.Context, image, contextDir string) error

	// StartContainer replaces any container with the same name and starts a
	// new one. It returns the container ID.
	StartContainer(ctx context.Context, spec ContainerSpec) (string, error)

	// StopContainer stops a running container.
	StopContainer(ctx context.Context, containerID string) error
}

// Container is a running container.
type Container struct {
	ID     string
	Names  []string // as reported by the engine, with a leading slash
	Image  string
	Status string
}

// HasName reports whether the container is called name.
func (c Container) HasName(name string) bool {
	for _, n := range c.Names {
		if n == "/"+name {
			return true
		}
	}
	return false
}

// Name is the first container name without its leading slash.
func (c Container) Name() string {
	if len(c.Names) == 0 {
		return ""
	}
	return strings.TrimPrefix(c.Names[0], "/")
}

// ContainerSpec holds configuration for starting a container
type ContainerSpec struct {
	Name         string
	Image        string
	Env          []string
	Cmd          []string
	ExposedPorts []string                          // "8080/tcp"
	PortBindings map[string][]manifest.PortBinding // keyed like ExposedPorts
	ExtraHosts   []string                          // "host:ip"
	Binds        []string                          // "host-path:container-path[:mode]"
	NetworkMode  string
}
