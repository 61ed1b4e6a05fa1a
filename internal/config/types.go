package config

import (
	"runtime"

	"bosco/internal/manifest"
)

// Settings is the typed view over the keys bosco itself reads.
type Settings struct {
	GitHub GitHubConfig          `json:"github"`
	Teams  map[string]TeamConfig `json:"teams"`
	Docker DockerConfig          `json:"docker"`
	CDN    CDNConfig             `json:"cdn"`
}

// GitHubConfig holds the github:* keys.
type GitHubConfig struct {
	User        string   `json:"user,omitempty"`
	AuthToken   string   `json:"authToken,omitempty"`
	Org         string   `json:"org,omitempty"`
	APIHostname string   `json:"apiHostname,omitempty"` // GitHub Enterprise API host
	Repos       []string `json:"repos,omitempty"`
}

// TeamConfig describes a team workspace: teams:<org>/<team>.
type TeamConfig struct {
	Path  string   `json:"path"`
	Repos []string `json:"repos,omitempty"`
}

// DockerConfig holds the docker:* keys.
type DockerConfig struct {
	// Defaults is the template used to synthesize a docker service for
	// remote repositories that only declare a server port.
	Defaults *manifest.Service `json:"defaults,omitempty"`
	// Localhost names are added to every container's hosts file, pointing at the workstation.
	Localhost []string `json:"localhost,omitempty"`
	// LocalhostDomain is appended to dependency names for per-dependency host entries.
	LocalhostDomain string `json:"localhostDomain,omitempty"`
	// CheckHost is where started containers are probed for their first port.
	CheckHost string `json:"checkHost,omitempty"`
	// Runtime selects the docker client: "engine" (default) or "cli".
	Runtime string `json:"runtime,omitempty"`
}

// CDNConfig holds the cdn:* keys.
type CDNConfig struct {
	Port     int    `json:"port,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

const (
	defaultLocalhostDomain = ".service.local.tescloud.com"
	defaultCheckHost       = "localhost"
)

var defaultLocalhostNames = []string{"local.tescloud.com", "internal.tes-local.com", "www.tes-local.com"}

// Settings decodes the typed settings from the store.
func (s *Store) Settings() (Settings, error) {
	var settings Settings
	if _, err := s.Decode("github", &settings.GitHub); err != nil {
		return settings, err
	}
	if _, err := s.Decode("teams", &settings.Teams); err != nil {
		return settings, err
	}
	if _, err := s.Decode("docker", &settings.Docker); err != nil {
		return settings, err
	}
	if _, err := s.Decode("cdn", &settings.CDN); err != nil {
		return settings, err
	}
	settings.Docker.applyDefaults()
	return settings, nil
}

func (d *DockerConfig) applyDefaults() {
	if len(d.Localhost) == 0 {
		d.Localhost = append([]string(nil), defaultLocalhostNames...)
	}
	if d.LocalhostDomain == "" {
		d.LocalhostDomain = defaultLocalhostDomain
	}
	if d.CheckHost == "" {
		d.CheckHost = defaultCheckHost
	}
}

// DefaultDockerService is the template used when docker:defaults is not configured.
func DefaultDockerService(name string) manifest.Service {
	return manifest.Service{
		Type:     manifest.TypeDocker,
		Name:     name,
		Registry: "docker-registry.tescloud.com",
		Username: "tescloud",
		Version:  "latest",
		Docker: &manifest.DockerSpec{
			Config: manifest.DockerConfig{
				Env: []string{"TSL_ENV=local"},
			},
			HostConfig: manifest.DockerHostConfig{
				ExposedPorts: map[string]struct{}{},
				PortBindings: map[string][]manifest.PortBinding{},
				ExtraHosts:   []string{},
			},
		},
	}
}

// Concurrency bounds parallel work.
type Concurrency struct {
	// Network bounds network-constrained work such as fetches and node starts.
	Network int
	// CPU bounds CPU-constrained work such as container starts.
	CPU int
}

// DefaultConcurrency derives limits from the number of CPUs.
func DefaultConcurrency() Concurrency {
	return concurrencyFor(runtime.NumCPU())
}

func concurrencyFor(cpus int) Concurrency {
	c := Concurrency{Network: cpus * 4, CPU: cpus - 1}
	if c.Network < 1 {
		c.Network = 1
	}
	if c.CPU < 1 {
		c.CPU = 1
	}
	return c
}
