package runlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"sync"

	"bosco/internal/dependency"
	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const subsystem = "RunList"

// ErrNoRepositories is returned when there is nothing to resolve.
var ErrNoRepositories = errors.New("no repositories to resolve: run 'bosco config set teams:<org>/<team>:repos' or work inside a repository")

var infraPattern = regexp.MustCompile(`^infra-`)

// Workspace maps repository names to local paths and knows the GitHub
// organisation of the workspace.
type Workspace interface {
	RepoPath(repo string) string
	Org() string
}

// RemoteConfigSource provides descriptors of repositories that are not
// cloned locally.
type RemoteConfigSource interface {
	ServiceConfig(ctx context.Context, org, repo string) (*manifest.ServiceDescriptor, error)
	// Cached returns a previously fetched descriptor without network access.
	Cached(org, repo string) (*manifest.ServiceDescriptor, bool)
}

// Options configures a Resolver.
type Options struct {
	Workspace Workspace
	Probe     manifest.Probe
	Remote    RemoteConfigSource

	// DepsOnly drops InServiceRepo from the result.
	DepsOnly      bool
	InServiceRepo string
	// DockerOnly keeps only docker services.
	DockerOnly bool
	// InfraOnly keeps only infra- repositories.
	InfraOnly bool
	// Exclude drops repositories whose name matches.
	Exclude *regexp.Regexp
	// TeamOnly marks repositories that would need a remote fetch as skip,
	// except infra- repositories.
	TeamOnly bool
	// CDNMode marks every repository that would need a remote fetch as skip.
	CDNMode bool

	// Output receives the dependency tree of Display. Defaults to stdout.
	Output io.Writer
	// Colors enables colours in the dependency tree.
	Colors bool
}

// Resolver turns repository names into an ordered run list.
type Resolver struct {
	opts Options

	mu        sync.Mutex
	orgWarned bool
}

// New creates a resolver. One resolver is meant to live for the whole process
// so that the missing organisation warning is printed once.
func New(opts Options) *Resolver {
	if opts.Probe == nil {
		opts.Probe = manifest.OSProbe{}
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Resolver{opts: opts}
}

// ResetWarnings re-arms the warn-once messages.
func (r *Resolver) ResetWarnings() {
	r.mu.Lock()
	r.orgWarned = false
	r.mu.Unlock()
}

// Resolve returns the descriptors of the repositories selected by match and
// everything they depend on, filtered by the resolver options and sorted by
// startup order. Repositories whose remote configuration could not be fetched
// are logged and left out.
func (r *Resolver) Resolve(ctx context.Context, knownRepos []string, match MatchMode, watch *regexp.Regexp) ([]manifest.ServiceDescriptor, error) {
	if len(knownRepos) == 0 {
		return nil, ErrNoRepositories
	}

	res := r.newResolution(ctx, watch)
	roots := res.matching(dedupe(knownRepos), match)
	names := res.resolveDependencies(roots, map[string]bool{})

	list := make([]manifest.ServiceDescriptor, 0, len(names))
	for _, name := range names {
		desc := res.configs[name]
		if !r.keep(*desc) {
			continue
		}
		list = append(list, *desc)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].EffectiveOrder() < list[j].EffectiveOrder()
	})

	logging.Debug(subsystem, "Resolved %d of %d services matching %s", len(list), len(names), match)
	return list, nil
}

// Display renders the dependency tree of every known repository instead of
// returning a run list.
func (r *Resolver) Display(ctx context.Context, knownRepos []string, match MatchMode, watch *regexp.Regexp) error {
	if len(knownRepos) == 0 {
		return ErrNoRepositories
	}

	repos := dedupe(knownRepos)
	res := r.newResolution(ctx, watch)
	res.resolveDependencies(res.matching(repos, match), map[string]bool{})

	g := res.graph(repos)
	roots := make([]dependency.NodeID, 0, len(repos))
	for _, repo := range repos {
		roots = append(roots, dependency.NodeID(repo))
	}
	for _, edge := range g.Cycles(roots) {
		logging.Debug(subsystem, "Dependency cycle: %s depends on %s", edge[0], edge[1])
	}

	tree := dependency.RenderTree(g, roots, dependency.TreeOptions{TeamOnly: r.opts.TeamOnly, Colors: r.opts.Colors})
	if _, err := fmt.Fprintln(r.opts.Output, tree); err != nil {
		return fmt.Errorf("failed to write dependency tree: %w", err)
	}
	return nil
}

// RepoType is a name and resolved type pair.
type RepoType struct {
	Name string               `json:"name"`
	Type manifest.ServiceType `json:"type"`
}

// RepoRunList is Resolve reduced to names and types.
func (r *Resolver) RepoRunList(ctx context.Context, knownRepos []string, match MatchMode, watch *regexp.Regexp) ([]RepoType, error) {
	list, err := r.Resolve(ctx, knownRepos, match, watch)
	if err != nil {
		return nil, err
	}
	out := make([]RepoType, 0, len(list))
	for _, desc := range list {
		out = append(out, RepoType{Name: desc.Name, Type: desc.Service.Type})
	}
	return out, nil
}

// RunConfig builds the descriptor of one repository: from local files when
// the repository is cloned, otherwise from the remote source.
func (r *Resolver) RunConfig(ctx context.Context, name string, watch *regexp.Regexp) (*manifest.ServiceDescriptor, error) {
	watching := watch != nil && watch.MatchString(name)
	repoPath := r.opts.Workspace.RepoPath(name)

	local, err := manifest.LoadLocal(r.opts.Probe, name, repoPath, watching)
	if err != nil {
		return nil, fmt.Errorf("failed to read local config of %s: %w", name, err)
	}

	desc := local.Descriptor
	if local.Exists {
		fillType(&desc)
		return &desc, nil
	}
	desc.Cwd = ""

	org := r.opts.Workspace.Org()
	if org == "" || r.opts.Remote == nil {
		if org == "" {
			r.warnOrganisationMissing()
		}
		unknown := manifest.Unknown(name)
		unknown.Watch = watching
		return &unknown, nil
	}

	if r.skipRemote(name) {
		desc.Service.Type = manifest.TypeSkip
		return &desc, nil
	}

	remote, err := r.opts.Remote.ServiceConfig(ctx, org, name)
	if err != nil {
		return nil, err
	}
	out := *remote
	out.Watch = watching
	fillType(&out)
	return &out, nil
}

// cachedRunConfig is RunConfig without network access, for tree display.
func (r *Resolver) cachedRunConfig(name string) manifest.ServiceDescriptor {
	repoPath := r.opts.Workspace.RepoPath(name)
	local, err := manifest.LoadLocal(r.opts.Probe, name, repoPath, false)
	if err == nil && local.Exists {
		desc := local.Descriptor
		fillType(&desc)
		return desc
	}
	if org := r.opts.Workspace.Org(); org != "" && r.opts.Remote != nil {
		if cached, ok := r.opts.Remote.Cached(org, name); ok {
			desc := *cached
			fillType(&desc)
			return desc
		}
	}
	return manifest.Unknown(name)
}

func (r *Resolver) skipRemote(name string) bool {
	return (r.opts.TeamOnly && !manifest.IsInfra(name)) || r.opts.CDNMode
}

func (r *Resolver) keep(desc manifest.ServiceDescriptor) bool {
	if r.opts.DepsOnly && r.opts.InServiceRepo != "" && desc.Name == r.opts.InServiceRepo {
		return false
	}
	if r.opts.DockerOnly && desc.Service.Type != manifest.TypeDocker {
		return false
	}
	if r.opts.InfraOnly && !infraPattern.MatchString(desc.Name) {
		return false
	}
	if r.opts.Exclude != nil && r.opts.Exclude.MatchString(desc.Name) {
		return false
	}
	return true
}

func (r *Resolver) warnOrganisationMissing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.orgWarned {
		return
	}
	r.orgWarned = true
	logging.Warn(subsystem, "Ensure you configured your github organisation: bosco config set github:org <organisation>")
	logging.Warn(subsystem, "Ensure you configured your team: bosco config set teams:<organisation>/<team>:path <workspace>")
}

func fillType(desc *manifest.ServiceDescriptor) {
	if desc.Service.Type == "" {
		desc.Service.Type = manifest.TypeUnknown
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
