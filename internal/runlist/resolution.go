package runlist

import (
	"context"
	"regexp"

	"bosco/internal/dependency"
	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

// resolution holds the per-call memo. It is discarded when the call returns.
type resolution struct {
	r     *Resolver
	ctx   context.Context
	watch *regexp.Regexp

	configs map[string]*manifest.ServiceDescriptor
	failed  map[string]error
}

func (r *Resolver) newResolution(ctx context.Context, watch *regexp.Regexp) *resolution {
	return &resolution{
		r:       r,
		ctx:     ctx,
		watch:   watch,
		configs: map[string]*manifest.ServiceDescriptor{},
		failed:  map[string]error{},
	}
}

// describe returns the memoized descriptor of name, building it on first use.
// Failures are memoized too so a broken repository is only tried once.
func (res *resolution) describe(name string) (*manifest.ServiceDescriptor, error) {
	if desc, ok := res.configs[name]; ok {
		return desc, nil
	}
	if err, ok := res.failed[name]; ok {
		return nil, err
	}

	desc, err := res.r.RunConfig(res.ctx, name, res.watch)
	if err != nil {
		res.failed[name] = err
		logging.Error(subsystem, err, "Unable to retrieve config for: %s", name)
		return nil, err
	}
	res.configs[name] = desc
	return desc, nil
}

// matching selects the roots of the resolution. Name patterns are checked
// without building descriptors; tags need the descriptor.
func (res *resolution) matching(repos []string, match MatchMode) []string {
	var roots []string
	for _, repo := range repos {
		if !match.needsDescriptor() {
			if match.matchesName(repo) {
				roots = append(roots, repo)
			}
			continue
		}
		desc, err := res.describe(repo)
		if err != nil {
			continue
		}
		if match.Matches(*desc) {
			roots = append(roots, repo)
		}
	}
	return roots
}

type frame struct {
	name string
	deps []string
	next int
}

// resolveDependencies expands names depth first with an explicit stack. A
// name is added to visited before its dependencies are looked at, so a name
// reached again (including through a cycle) is not expanded twice. Names are
// returned after their dependencies; names whose descriptor could not be built
// are left out.
func (res *resolution) resolveDependencies(names []string, visited map[string]bool) []string {
	var order []string

	enter := func(name string) *frame {
		visited[name] = true
		desc, err := res.describe(name)
		if err != nil {
			return nil
		}
		return &frame{name: name, deps: desc.Service.DependsOn}
	}

	for _, name := range names {
		if visited[name] {
			continue
		}
		root := enter(name)
		if root == nil {
			continue
		}

		stack := []*frame{root}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next < len(top.deps) {
				dep := top.deps[top.next]
				top.next++
				if visited[dep] {
					logging.Debug(subsystem, "%s: dependency %s already resolved", top.name, dep)
					continue
				}
				if f := enter(dep); f != nil {
					stack = append(stack, f)
				}
				continue
			}
			order = append(order, top.name)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}

// graph builds the dependency graph reachable from repos. Descriptors not
// built during the resolution are read from disk or the cache only.
func (res *resolution) graph(repos []string) *dependency.Graph {
	g := dependency.New()
	queue := append([]string(nil), repos...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if g.Get(dependency.NodeID(name)) != nil {
			continue
		}

		var desc manifest.ServiceDescriptor
		if memo, ok := res.configs[name]; ok {
			desc = *memo
		} else {
			desc = res.r.cachedRunConfig(name)
		}
		g.AddNode(dependency.NodeFor(desc))
		queue = append(queue, desc.Service.DependsOn...)
	}
	return g
}
