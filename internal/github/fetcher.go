package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bosco/internal/config"
	"bosco/internal/manifest"
	"bosco/pkg/logging"

	gh "github.com/google/go-github/v74/github"
	"golang.org/x/time/rate"
)

const (
	fetcherSubsystem = "GitHubFetcher"

	// DefaultConfigFile holds the server port of a service.
	DefaultConfigFile = "config/default.json"

	defaultRequestsPerSecond = 10
	defaultBurst             = 5
)

// Options configures a Fetcher.
type Options struct {
	AuthToken string
	// APIHostname selects a GitHub Enterprise installation.
	APIHostname string
	// BaseURL overrides the API endpoint entirely.
	BaseURL    string
	HTTPClient *http.Client

	// DockerDefaults is the template for synthesized docker services.
	// When nil, config.DefaultDockerService is used.
	DockerDefaults *manifest.Service

	RequestsPerSecond float64
	Burst             int
}

// Fetcher reads bosco-service.json and config/default.json from repositories
// that are not cloned locally.
type Fetcher struct {
	client         *gh.Client
	limiter        *rate.Limiter
	dockerDefaults *manifest.Service
}

// NewFetcher creates a Fetcher talking to github.com, an Enterprise host or
// an explicit base URL.
func NewFetcher(opts Options) (*Fetcher, error) {
	client := gh.NewClient(opts.HTTPClient)
	if opts.AuthToken != "" {
		client = client.WithAuthToken(opts.AuthToken)
	}

	switch {
	case opts.BaseURL != "":
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	case opts.APIHostname != "":
		endpoint := "https://" + opts.APIHostname + "/"
		var err error
		client, err = client.WithEnterpriseURLs(endpoint, endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API hostname %q: %w", opts.APIHostname, err)
		}
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Fetcher{
		client:         client,
		limiter:        rate.NewLimiter(rate.Limit(rps), burst),
		dockerDefaults: opts.DockerDefaults,
	}, nil
}

// FetchServiceConfig downloads the service descriptor of org/repo. When the
// descriptor does not declare a docker service, a docker service is
// synthesized from the server port in config/default.json and merged in as
// defaults.
func (f *Fetcher) FetchServiceConfig(ctx context.Context, org, repo string) (*manifest.ServiceDescriptor, error) {
	fullName := org + "/" + repo

	raw, err := f.readFile(ctx, org, repo, manifest.ServiceFile)
	if err != nil {
		return nil, &FetchError{Repo: fullName, Err: err}
	}

	desc, err := manifest.ReadServiceFile(raw, repo)
	if err != nil {
		return nil, &FetchError{Repo: fullName, Err: fmt.Errorf("invalid %s: %w", manifest.ServiceFile, err)}
	}

	defaults, err := f.readFile(ctx, org, repo, DefaultConfigFile)
	switch {
	case err == nil:
		var cfg struct {
			Server *manifest.Server `json:"server"`
		}
		if jerr := json.Unmarshal(defaults, &cfg); jerr != nil {
			logging.Debug(fetcherSubsystem, "Ignoring unparsable %s in %s: %v", DefaultConfigFile, fullName, jerr)
		} else {
			desc.Server = cfg.Server
			if desc.Server == nil {
				desc.Server = &manifest.Server{}
			}
		}
	case isNotFound(err):
		logging.Debug(fetcherSubsystem, "No %s in %s", DefaultConfigFile, fullName)
	default:
		logging.Warn(fetcherSubsystem, "Could not read %s of %s, continuing without it: %v", DefaultConfigFile, fullName, err)
	}

	if desc.Service.Type != manifest.TypeDocker {
		if docker, ok := f.synthesizeDocker(repo, desc); ok {
			merged, err := manifest.DefaultService(desc.Service, docker)
			if err != nil {
				return nil, &FetchError{Repo: fullName, Err: err}
			}
			desc.Service = merged
		}
	}

	return &desc, nil
}

func (f *Fetcher) readFile(ctx context.Context, org, repo, path string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	file, _, _, err := f.client.Repositories.GetContents(ctx, org, repo, path, nil)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// synthesizeDocker builds a docker service exposing the server port. Without
// a port nothing is synthesized.
func (f *Fetcher) synthesizeDocker(repo string, desc manifest.ServiceDescriptor) (manifest.Service, bool) {
	if desc.Server == nil || desc.Server.Port == 0 {
		return manifest.Service{}, false
	}

	name := repo
	if desc.Service.Name != "" {
		name = desc.Service.Name
	}

	docker := config.DefaultDockerService(name)
	if f.dockerDefaults != nil {
		copied, err := cloneService(*f.dockerDefaults)
		if err != nil {
			logging.Warn(fetcherSubsystem, "Ignoring docker:defaults: %v", err)
		} else {
			docker = copied
			docker.Name = name
		}
	}

	if docker.Docker == nil {
		docker.Docker = &manifest.DockerSpec{}
	}
	hc := &docker.Docker.HostConfig
	if hc.ExposedPorts == nil {
		hc.ExposedPorts = map[string]struct{}{}
	}
	if hc.PortBindings == nil {
		hc.PortBindings = map[string][]manifest.PortBinding{}
	}

	port := strconv.Itoa(desc.Server.Port)
	exposed := port + "/tcp"
	hc.ExposedPorts[exposed] = struct{}{}
	hc.PortBindings[exposed] = []manifest.PortBinding{{HostIP: "0.0.0.0", HostPort: port}}

	return docker, true
}

func cloneService(s manifest.Service) (manifest.Service, error) {
	var out manifest.Service
	raw, err := json.Marshal(s)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func isNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
