package manifest

import (
	"encoding/json"
	"path/filepath"
)

const (
	// PackageFile is the npm package manifest.
	PackageFile = "package.json"
	// ServiceFile is the per-repository service descriptor.
	ServiceFile = "bosco-service.json"
)

type packageFile struct {
	Name    string            `json:"name"`
	Scripts map[string]string `json:"scripts"`
	Engines map[string]string `json:"engines"`
}

// serviceFile keeps the service block raw so it can be overlaid key by key.
type serviceFile struct {
	Name    string          `json:"name"`
	Tags    []string        `json:"tags"`
	Order   int             `json:"order"`
	Service json.RawMessage `json:"service"`
}

// Local is the result of probing a repository on disk.
type Local struct {
	Descriptor ServiceDescriptor
	// Exists is false when the repository directory is not present.
	Exists bool
	// HasServiceFile is true when bosco-service.json was found.
	HasServiceFile bool
}

// LoadLocal builds a descriptor for repo from the files under repoPath.
//
// Precedence, lowest first: defaults (order 50, empty service), fields derived
// from package.json, fields from bosco-service.json. A repository that exists
// but has no bosco-service.json is typed skip.
func LoadLocal(probe Probe, repo, repoPath string, watch bool) (Local, error) {
	desc := ServiceDescriptor{
		Name:  repo,
		Cwd:   repoPath,
		Watch: watch,
		Order: DefaultLocalOrder,
	}

	result := Local{
		Exists:         probe.Exists(repoPath),
		HasServiceFile: probe.Exists(filepath.Join(repoPath, ServiceFile)),
	}

	pkgPath := filepath.Join(repoPath, PackageFile)
	if probe.Exists(pkgPath) {
		var pkg packageFile
		if err := probe.ReadJSON(pkgPath, &pkg); err != nil {
			return result, err
		}
		var svc Service
		if start := pkg.Scripts["start"]; start != "" {
			svc.Type = TypeNode
			svc.Start = start
		}
		if node := pkg.Engines["node"]; node != "" {
			svc.NodeVersion = node
		}
		desc.Service = svc
	}

	if result.HasServiceFile {
		var file serviceFile
		if err := probe.ReadJSON(filepath.Join(repoPath, ServiceFile), &file); err != nil {
			return result, err
		}
		desc.Tags = file.Tags
		desc.Order = file.Order
		merged, err := OverlayService(desc.Service, file.Service)
		if err != nil {
			return result, err
		}
		desc.Service = merged
	}

	if result.Exists && !result.HasServiceFile {
		desc.Service.Type = TypeSkip
	}

	result.Descriptor = desc
	return result, nil
}

// ReadServiceFile decodes a bosco-service.json document, as found in a remote
// repository, into a descriptor. The name defaults to repo.
func ReadServiceFile(data []byte, repo string) (ServiceDescriptor, error) {
	var desc ServiceDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return desc, err
	}
	if desc.Name == "" {
		desc.Name = repo
	}
	return desc, nil
}
