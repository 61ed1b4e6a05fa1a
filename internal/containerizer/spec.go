package containerizer

import (
	"sort"
	"strings"

	"bosco/internal/manifest"
)

const (
	hostIPVar = "{HOST_IP}"
	pathVar   = "{PATH}"

	defaultNetworkMode = "bridge"
)

// ImageFQN is the image a docker service runs: docker.image (tagged latest
// when untagged), local/<name> for services built from source, otherwise
// [registry/][username/]name:version.
func ImageFQN(svc manifest.Service) string {
	if svc.Docker != nil {
		fqn := svc.Docker.Image
		if fqn == "" && svc.Docker.Build != "" {
			fqn = "local/" + svc.Name
		}
		if fqn != "" {
			if !strings.Contains(fqn[strings.LastIndex(fqn, "/")+1:], ":") {
				fqn += ":latest"
			}
			return fqn
		}
	}

	var b strings.Builder
	if svc.Registry != "" {
		b.WriteString(svc.Registry + "/")
	}
	if svc.Username != "" {
		b.WriteString(svc.Username + "/")
	}
	version := svc.Version
	if version == "" {
		version = "latest"
	}
	b.WriteString(svc.Name + ":" + version)
	return b.String()
}

// HostsOptions describes the host entries added to every container.
type HostsOptions struct {
	// HostIP is the workstation address the entries resolve to.
	HostIP string
	// Localhost names always resolve to the workstation.
	Localhost []string
	// LocalhostDomain is appended to dependency names.
	LocalhostDomain string
}

// ExtraHosts returns the configured host entries followed by the configured
// localhost names and one entry per dependency. A service- dependency also
// gets an entry without the prefix.
func ExtraHosts(existing []string, dependsOn []string, opts HostsOptions) []string {
	hosts := append([]string(nil), existing...)
	for _, name := range opts.Localhost {
		hosts = append(hosts, name+":"+opts.HostIP)
	}
	for _, dep := range dependsOn {
		hosts = append(hosts, dep+opts.LocalhostDomain+":"+opts.HostIP)
		if short, ok := strings.CutPrefix(dep, "service-"); ok {
			hosts = append(hosts, short+opts.LocalhostDomain+":"+opts.HostIP)
		}
	}
	return hosts
}

// BuildSpec turns a docker service descriptor into a container spec.
// {HOST_IP} and {PATH} in Cmd and Binds are replaced by the workstation
// address and the repository path.
func BuildSpec(desc manifest.ServiceDescriptor, image string, hosts HostsOptions) ContainerSpec {
	svc := desc.Service
	spec := ContainerSpec{
		Name:         desc.ServiceName(),
		Image:        image,
		NetworkMode:  defaultNetworkMode,
		PortBindings: map[string][]manifest.PortBinding{},
	}

	var docker manifest.DockerSpec
	if svc.Docker != nil {
		docker = *svc.Docker
	}

	replacer := strings.NewReplacer(hostIPVar, hosts.HostIP, pathVar, desc.Cwd)

	spec.Env = append(spec.Env, docker.Config.Env...)
	for _, c := range docker.Config.Cmd {
		spec.Cmd = append(spec.Cmd, replacer.Replace(c))
	}
	for _, b := range docker.HostConfig.Binds {
		spec.Binds = append(spec.Binds, replacer.Replace(b))
	}
	if docker.HostConfig.NetworkMode != "" {
		spec.NetworkMode = docker.HostConfig.NetworkMode
	}

	exposed := map[string]bool{}
	for port := range docker.HostConfig.ExposedPorts {
		exposed[port] = true
	}
	for port, bindings := range docker.HostConfig.PortBindings {
		exposed[port] = true
		spec.PortBindings[port] = append([]manifest.PortBinding(nil), bindings...)
	}
	for port := range exposed {
		spec.ExposedPorts = append(spec.ExposedPorts, port)
	}
	sort.Strings(spec.ExposedPorts)

	spec.ExtraHosts = ExtraHosts(docker.HostConfig.ExtraHosts, svc.DependsOn, hosts)
	return spec
}

// CheckPort is the first published host port, in container port order, or "".
func (s ContainerSpec) CheckPort() string {
	ports := make([]string, 0, len(s.PortBindings))
	for port := range s.PortBindings {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	for _, port := range ports {
		bindings := s.PortBindings[port]
		if len(bindings) > 0 && bindings[0].HostPort != "" {
			return bindings[0].HostPort
		}
	}
	return ""
}

// BuildContext is the directory a build-from-source service is built from.
func BuildContext(desc manifest.ServiceDescriptor) string {
	if desc.Service.Docker == nil {
		return ""
	}
	return strings.ReplaceAll(desc.Service.Docker.Build, pathVar, desc.Cwd)
}
