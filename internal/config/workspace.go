package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bosco/internal/manifest"
)

// WorkspaceMarker is the directory that marks the root of a workspace.
const WorkspaceMarker = ".bosco"

// Workspace is the directory tree holding a team's cloned repositories.
type Workspace struct {
	Root        string
	Cwd         string
	Environment string

	store         *Store
	inServiceRepo string
}

// NewWorkspace discovers the workspace containing cwd.
func NewWorkspace(store *Store, cwd, environment string) *Workspace {
	return &Workspace{
		Root:        FindWorkspace(cwd),
		Cwd:         cwd,
		Environment: environment,
		store:       store,
	}
}

// FindWorkspace walks up from dir looking for a .bosco directory. When none
// is found dir itself is the workspace.
func FindWorkspace(dir string) string {
	dir = filepath.Clean(dir)
	for p := dir; ; p = filepath.Dir(p) {
		if info, err := os.Stat(filepath.Join(p, WorkspaceMarker)); err == nil && info.IsDir() {
			return p
		}
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	return dir
}

// ConfigDir is <root>/.bosco.
func (w *Workspace) ConfigDir() string {
	return filepath.Join(w.Root, WorkspaceMarker)
}

// EnvConfigFile is the environment overlay, <root>/.bosco/<environment>.yaml.
func (w *Workspace) EnvConfigFile() string {
	return filepath.Join(w.ConfigDir(), w.Environment+".yaml")
}

// Team returns the configured team whose path contains the workspace, or "".
func (w *Workspace) Team() string {
	var teams map[string]TeamConfig
	if _, err := w.store.Decode("teams", &teams); err != nil || len(teams) == 0 {
		return ""
	}

	names := make([]string, 0, len(teams))
	for name := range teams {
		names = append(names, name)
	}
	sort.Strings(names)

	current := ""
	for _, name := range names {
		path := teams[name].Path
		if path != "" && strings.Contains(w.Root, path) {
			current = name
		}
	}
	return current
}

// Org is the GitHub organisation: the team's organisation when the workspace
// belongs to a team, otherwise github:org.
func (w *Workspace) Org() string {
	if team := w.Team(); team != "" {
		org, _, _ := strings.Cut(team, "/")
		return org
	}
	return w.store.GetString("github:org")
}

// Repos lists the repositories of the workspace. Outside a team it is the
// current directory name; inside a repository in service mode it is that
// repository only.
func (w *Workspace) Repos() []string {
	if w.inServiceRepo != "" {
		return []string{w.inServiceRepo}
	}
	team := w.Team()
	if team == "" {
		return []string{filepath.Base(w.Cwd)}
	}
	var repos []string
	if _, err := w.store.Decode("teams:"+team+":repos", &repos); err != nil {
		return nil
	}
	return repos
}

// RepoPath maps a repository name (optionally org/repo) to its local path.
func (w *Workspace) RepoPath(repo string) string {
	if w.inServiceRepo != "" && repo == w.inServiceRepo {
		return w.Cwd
	}
	name := repo
	if _, after, found := strings.Cut(repo, "/"); found {
		name = after
	}
	return filepath.Join(w.Root, name)
}

// EnterService switches the workspace into service mode when cwd holds a
// bosco-service.json: only that repository is considered, at cwd. It returns
// the repository name, or "" when cwd is not a service.
func (w *Workspace) EnterService() string {
	if _, err := os.Stat(filepath.Join(w.Cwd, manifest.ServiceFile)); err != nil {
		return ""
	}
	w.inServiceRepo = w.repoName()
	return w.inServiceRepo
}

// InServiceRepo returns the repository selected by EnterService.
func (w *Workspace) InServiceRepo() string {
	return w.inServiceRepo
}

// repoName prefers service.name from bosco-service.json, then the package
// name, then the directory name.
func (w *Workspace) repoName() string {
	name := filepath.Base(w.Cwd)

	var pkg struct {
		Name string `json:"name"`
	}
	if readJSONFile(filepath.Join(w.Cwd, manifest.PackageFile), &pkg) == nil && pkg.Name != "" {
		name = pkg.Name
	}

	var svc struct {
		Service struct {
			Name string `json:"name"`
		} `json:"service"`
	}
	if readJSONFile(filepath.Join(w.Cwd, manifest.ServiceFile), &svc) == nil && svc.Service.Name != "" {
		name = svc.Service.Name
	}
	return name
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
