package dependency

import (
	"sort"

	"bosco/internal/manifest"
)

// NodeID is the repository name of a service.
type NodeID string

// NodeKind categorises nodes by the repository naming convention.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindInfra
	KindService
	KindApp
)

// KindOf derives the kind from the infra-/service-/app- naming convention.
func KindOf(name string) NodeKind {
	switch {
	case manifest.IsApp(name):
		return KindApp
	case manifest.IsServiceRepo(name):
		return KindService
	case manifest.IsInfra(name):
		return KindInfra
	default:
		return KindUnknown
	}
}

// Node is a service together with its dependency list.
//
// Unlike a DAG, the graph built from dependsOn may contain cycles; walkers
// must track the current path.
type Node struct {
	ID        NodeID
	Kind      NodeKind
	Type      manifest.ServiceType
	DependsOn []NodeID
}

// NodeFor builds the node of a resolved descriptor.
func NodeFor(desc manifest.ServiceDescriptor) Node {
	deps := make([]NodeID, 0, len(desc.Service.DependsOn))
	for _, dep := range desc.Service.DependsOn {
		deps = append(deps, NodeID(dep))
	}
	return Node{
		ID:        NodeID(desc.Name),
		Kind:      KindOf(desc.Name),
		Type:      desc.Service.Type,
		DependsOn: deps,
	}
}

// Graph answers dependency queries. It is not thread-safe by itself.
type Graph struct {
	nodes map[NodeID]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds (or replaces) a node in the graph.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	// Copy to avoid external mutations
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Len is the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node, sorted.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if dep == id {
				res = append(res, n.ID)
				break
			}
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Cycles returns every dependency edge that closes a cycle when walking from
// roots, as [from, to] pairs in discovery order.
func (g *Graph) Cycles(roots []NodeID) [][2]NodeID {
	var cycles [][2]NodeID
	seen := map[[2]NodeID]bool{}

	var walk func(id NodeID, path []NodeID)
	walk = func(id NodeID, path []NodeID) {
		path = append(path, id)
		for _, dep := range g.Dependencies(id) {
			if containsID(path, dep) {
				edge := [2]NodeID{id, dep}
				if !seen[edge] {
					seen[edge] = true
					cycles = append(cycles, edge)
				}
				continue
			}
			walk(dep, path)
		}
	}

	for _, root := range roots {
		walk(root, nil)
	}
	return cycles
}

func containsID(path []NodeID, id NodeID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
