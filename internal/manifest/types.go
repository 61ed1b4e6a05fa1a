package manifest

import (
	"slices"
	"strings"
	"time"
)

// ServiceType says how a service is run.
type ServiceType string

const (
	TypeNode          ServiceType = "node"
	TypeDocker        ServiceType = "docker"
	TypeDockerCompose ServiceType = "docker-compose"
	// TypeSkip is never started or stopped but still shows up in tree displays.
	TypeSkip ServiceType = "skip"
	// TypeUnknown means no configuration could be found; reported, never run.
	TypeUnknown ServiceType = "unknown"
)

const (
	// DefaultLocalOrder is the order given to a locally built descriptor
	// before bosco-service.json is applied.
	DefaultLocalOrder = 50
	// ContainerOrder is the default order for docker and docker-compose services.
	ContainerOrder = 100
	// ProcessOrder is the default order for everything else.
	ProcessOrder = 500
)

// IsContainer reports whether the type is run by a container runtime.
func (t ServiceType) IsContainer() bool {
	return t == TypeDocker || t == TypeDockerCompose
}

// Runnable reports whether services of this type are ever started or stopped.
func (t ServiceType) Runnable() bool {
	return t == TypeNode || t.IsContainer()
}

// ServiceDescriptor is the resolved description of one repository/service.
// The JSON shape matches bosco-service.json so that remote descriptors can be
// cached verbatim.
type ServiceDescriptor struct {
	Name       string     `json:"name"`
	Cwd        string     `json:"cwd,omitempty"`
	Watch      bool       `json:"watch,omitempty"`
	Order      int        `json:"order,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Service    Service    `json:"service"`
	Server     *Server    `json:"server,omitempty"`
	CachedTime *time.Time `json:"cachedTime,omitempty"`
}

// Service describes how to run a service.
type Service struct {
	Name         string      `json:"name,omitempty"`
	Type         ServiceType `json:"type,omitempty"`
	Start        string      `json:"start,omitempty"`
	DependsOn    []string    `json:"dependsOn,omitempty"`
	NodeVersion  string      `json:"nodeVersion,omitempty"`
	Docker       *DockerSpec `json:"docker,omitempty"`
	Registry     string      `json:"registry,omitempty"`
	Username     string      `json:"username,omitempty"`
	Version      string      `json:"version,omitempty"`
	CheckTimeout int         `json:"checkTimeout,omitempty"` // milliseconds
}

// Server carries the port information read from a service's config/default.json.
type Server struct {
	Port int `json:"port,omitempty"`
}

// DockerSpec mirrors the subset of `docker inspect` output that bosco-service.json may set.
type DockerSpec struct {
	Image      string           `json:"image,omitempty"`
	Build      string           `json:"build,omitempty"` // build context, may contain {PATH}
	Config     DockerConfig     `json:"Config,omitempty"`
	HostConfig DockerHostConfig `json:"HostConfig,omitempty"`
}

// DockerConfig is the container create configuration.
type DockerConfig struct {
	Env []string `json:"Env,omitempty"`
	Cmd []string `json:"Cmd,omitempty"`
}

// DockerHostConfig is the host side of a container configuration.
type DockerHostConfig struct {
	ExposedPorts map[string]struct{}      `json:"ExposedPorts,omitempty"`
	PortBindings map[string][]PortBinding `json:"PortBindings,omitempty"`
	ExtraHosts   []string                 `json:"ExtraHosts,omitempty"`
	Binds        []string                 `json:"Binds,omitempty"`
	NetworkMode  string                   `json:"NetworkMode,omitempty"`
}

// PortBinding binds a container port to a host address.
type PortBinding struct {
	HostIP   string `json:"HostIp,omitempty"`
	HostPort string `json:"HostPort,omitempty"`
}

// Unknown returns the placeholder descriptor used when nothing is known about name.
func Unknown(name string) ServiceDescriptor {
	return ServiceDescriptor{
		Name:    name,
		Service: Service{Name: name, Type: TypeUnknown},
	}
}

// EffectiveOrder is the startup sort key: the declared order, or the
// type-based default when none was declared.
func (d ServiceDescriptor) EffectiveOrder() int {
	if d.Order != 0 {
		return d.Order
	}
	if d.Service.Type.IsContainer() {
		return ContainerOrder
	}
	return ProcessOrder
}

// HasTag reports whether tag is one of the descriptor's tags.
func (d ServiceDescriptor) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// ServiceName returns the runtime name: service.name when set, else the repo name.
func (d ServiceDescriptor) ServiceName() string {
	if d.Service.Name != "" {
		return d.Service.Name
	}
	return d.Name
}

// IsInfra reports whether the repository follows the infra- naming convention.
func IsInfra(name string) bool {
	return strings.Contains(name, "infra-")
}

// IsApp reports whether the repository follows the app- naming convention.
func IsApp(name string) bool {
	return strings.Contains(name, "app-")
}

// IsServiceRepo reports whether the repository follows the service- naming convention.
func IsServiceRepo(name string) bool {
	return strings.Contains(name, "service-")
}
