package dependency

import (
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/text"

	"bosco/internal/manifest"
)

// CircularSuffix marks a dependency that is already on the current path.
const CircularSuffix = " (circular)"

// TreeOptions controls RenderTree.
type TreeOptions struct {
	// TeamOnly omits docker services and apps that are not run from the workspace.
	TeamOnly bool
	// Colors enables terminal colours.
	Colors bool
}

// RenderTree renders one tree per root with dependencies as children. A
// dependency already on the path from the root is rendered as a leaf with a
// (circular) marker instead of being expanded again. Nodes missing from the
// graph render as leaves.
func RenderTree(g *Graph, roots []NodeID, opts TreeOptions) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)

	var walk func(id NodeID, path []NodeID)
	walk = func(id NodeID, path []NodeID) {
		node := g.Get(id)
		if node == nil {
			node = &Node{ID: id, Kind: KindOf(string(id))}
		}
		external := isExternal(node)
		if opts.TeamOnly && external {
			return
		}

		lw.AppendItem(label(node, string(id), external, opts.Colors))

		path = append(path, id)
		var fresh, circular []NodeID
		for _, dep := range node.DependsOn {
			if containsID(path, dep) {
				circular = append(circular, dep)
			} else {
				fresh = append(fresh, dep)
			}
		}

		lw.Indent()
		for _, dep := range fresh {
			walk(dep, path)
		}
		for _, dep := range circular {
			depNode := g.Get(dep)
			if depNode == nil {
				depNode = &Node{ID: dep, Kind: KindOf(string(dep))}
			}
			lw.AppendItem(label(depNode, string(dep)+CircularSuffix, isExternal(depNode), opts.Colors))
		}
		lw.UnIndent()
	}

	for _, root := range roots {
		walk(root, nil)
	}
	return lw.Render()
}

// isExternal is true for docker-typed service- and app- repositories, which
// are pulled as images rather than developed in the workspace.
func isExternal(n *Node) bool {
	return n.Type == manifest.TypeDocker && (n.Kind == KindService || n.Kind == KindApp)
}

func label(n *Node, name string, external, colors bool) string {
	if external {
		name += "*"
	}
	if !colors {
		return name
	}
	switch {
	case external:
		return text.FgHiBlack.Sprint(name)
	case n.Kind == KindApp:
		return text.FgGreen.Sprint(name)
	case n.Kind == KindService:
		return text.FgCyan.Sprint(name)
	case n.Kind == KindInfra:
		return text.FgBlue.Sprint(name)
	default:
		return name
	}
}
