package dependency

import (
	"strings"
	"testing"

	"bosco/internal/manifest"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want NodeKind
	}{
		{"infra-redis", KindInfra},
		{"service-users", KindService},
		{"app-web", KindApp},
		{"tools", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.name))
		})
	}
}

func TestAddNodeCopies(t *testing.T) {
	g := New()
	deps := []NodeID{"infra-redis"}
	g.AddNode(Node{ID: "service-users", DependsOn: deps})

	deps[0] = "mutated"
	assert.Equal(t, []NodeID{"infra-redis"}, g.Dependencies("service-users"))

	returned := g.Dependencies("service-users")
	returned[0] = "mutated"
	assert.Equal(t, []NodeID{"infra-redis"}, g.Dependencies("service-users"))
}

func TestAddNodeReplaces(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Type: manifest.TypeUnknown})
	g.AddNode(Node{ID: "a", Type: manifest.TypeNode})

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, manifest.TypeNode, g.Get("a").Type)
}

func TestGetMissing(t *testing.T) {
	assert.Nil(t, New().Get("missing"))
	assert.Nil(t, New().Dependencies("missing"))
}

func TestNodeFor(t *testing.T) {
	node := NodeFor(manifest.ServiceDescriptor{
		Name:    "app-web",
		Service: manifest.Service{Type: manifest.TypeNode, DependsOn: []string{"service-users"}},
	})

	assert.Equal(t, NodeID("app-web"), node.ID)
	assert.Equal(t, KindApp, node.Kind)
	assert.Equal(t, manifest.TypeNode, node.Type)
	assert.Equal(t, []NodeID{"service-users"}, node.DependsOn)
}

func TestDependents(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "infra-redis"})
	g.AddNode(Node{ID: "service-users", DependsOn: []NodeID{"infra-redis"}})
	g.AddNode(Node{ID: "service-catalog", DependsOn: []NodeID{"infra-redis"}})
	g.AddNode(Node{ID: "app-web", DependsOn: []NodeID{"service-users"}})

	assert.Equal(t, []NodeID{"service-catalog", "service-users"}, g.Dependents("infra-redis"))
	assert.Equal(t, []NodeID{"app-web"}, g.Dependents("service-users"))
	assert.Empty(t, g.Dependents("app-web"))
}

func TestCycles(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", DependsOn: []NodeID{"b"}})
	g.AddNode(Node{ID: "b", DependsOn: []NodeID{"a", "c"}})
	g.AddNode(Node{ID: "c"})

	assert.Equal(t, [][2]NodeID{{"b", "a"}}, g.Cycles([]NodeID{"a"}))
	assert.Empty(t, g.Cycles([]NodeID{"c"}))
}

func TestCycles_SelfDependency(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", DependsOn: []NodeID{"a"}})

	assert.Equal(t, [][2]NodeID{{"a", "a"}}, g.Cycles([]NodeID{"a"}))
}

func TestRenderTree(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "app-web", Kind: KindApp, Type: manifest.TypeNode, DependsOn: []NodeID{"service-users", "service-catalog"}})
	g.AddNode(Node{ID: "service-users", Kind: KindService, Type: manifest.TypeNode, DependsOn: []NodeID{"infra-redis"}})
	g.AddNode(Node{ID: "service-catalog", Kind: KindService, Type: manifest.TypeDocker})
	g.AddNode(Node{ID: "infra-redis", Kind: KindInfra, Type: manifest.TypeDocker})

	out := RenderTree(g, []NodeID{"app-web"}, TreeOptions{})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "app-web")
	assert.Contains(t, lines[1], "service-users")
	assert.Contains(t, lines[2], "infra-redis")
	assert.Contains(t, lines[3], "service-catalog*")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderTree_TeamOnlyHidesExternal(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "app-web", Kind: KindApp, Type: manifest.TypeNode, DependsOn: []NodeID{"service-catalog", "infra-redis"}})
	g.AddNode(Node{ID: "service-catalog", Kind: KindService, Type: manifest.TypeDocker})
	g.AddNode(Node{ID: "infra-redis", Kind: KindInfra, Type: manifest.TypeDocker})

	out := RenderTree(g, []NodeID{"app-web"}, TreeOptions{TeamOnly: true})

	assert.NotContains(t, out, "service-catalog")
	assert.Contains(t, out, "infra-redis")
}

func TestRenderTree_Circular(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "service-a", Kind: KindService, Type: manifest.TypeNode, DependsOn: []NodeID{"service-b"}})
	g.AddNode(Node{ID: "service-b", Kind: KindService, Type: manifest.TypeNode, DependsOn: []NodeID{"service-a"}})

	out := RenderTree(g, []NodeID{"service-a"}, TreeOptions{})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "service-a")
	assert.Contains(t, lines[1], "service-b")
	assert.Contains(t, lines[2], "service-a (circular)")
}

func TestRenderTree_MissingNodeIsLeaf(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "app-web", Kind: KindApp, DependsOn: []NodeID{"infra-gone"}})

	out := RenderTree(g, []NodeID{"app-web"}, TreeOptions{})
	assert.Contains(t, out, "infra-gone")
}

func TestRenderTree_Colors(t *testing.T) {
	text.EnableColors()
	g := New()
	g.AddNode(Node{ID: "app-web", Kind: KindApp, Type: manifest.TypeNode})

	out := RenderTree(g, []NodeID{"app-web"}, TreeOptions{Colors: true})
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "app-web")
}
