package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name string, content any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func TestLoadLocal_PackageOnlyIsSkipped(t *testing.T) {
	repoPath := filepath.Join(t.TempDir(), "service-b")
	writeJSON(t, repoPath, PackageFile, map[string]any{
		"scripts": map[string]string{"start": "node index.js"},
	})

	local, err := LoadLocal(OSProbe{}, "service-b", repoPath, false)
	require.NoError(t, err)

	assert.True(t, local.Exists)
	assert.False(t, local.HasServiceFile)
	assert.Equal(t, TypeSkip, local.Descriptor.Service.Type)
	assert.Equal(t, "node index.js", local.Descriptor.Service.Start)
	assert.Equal(t, DefaultLocalOrder, local.Descriptor.Order)
}

func TestLoadLocal_ServiceFileOverlaysPackage(t *testing.T) {
	repoPath := filepath.Join(t.TempDir(), "service-a")
	writeJSON(t, repoPath, PackageFile, map[string]any{
		"scripts": map[string]string{"start": "node server.js"},
		"engines": map[string]string{"node": ">=18"},
	})
	writeJSON(t, repoPath, ServiceFile, map[string]any{
		"tags":  []string{"canary"},
		"order": 10,
		"service": map[string]any{
			"dependsOn": []string{"service-b"},
		},
	})

	local, err := LoadLocal(OSProbe{}, "service-a", repoPath, true)
	require.NoError(t, err)

	desc := local.Descriptor
	assert.Equal(t, "service-a", desc.Name)
	assert.Equal(t, repoPath, desc.Cwd)
	assert.True(t, desc.Watch)
	assert.Equal(t, 10, desc.Order)
	assert.Equal(t, []string{"canary"}, desc.Tags)
	assert.Equal(t, TypeNode, desc.Service.Type, "type from package.json survives a partial service block")
	assert.Equal(t, "node server.js", desc.Service.Start)
	assert.Equal(t, ">=18", desc.Service.NodeVersion)
	assert.Equal(t, []string{"service-b"}, desc.Service.DependsOn)
}

func TestLoadLocal_ServiceFileWinsOverPackage(t *testing.T) {
	repoPath := filepath.Join(t.TempDir(), "infra-redis")
	writeJSON(t, repoPath, PackageFile, map[string]any{
		"scripts": map[string]string{"start": "node index.js"},
	})
	writeJSON(t, repoPath, ServiceFile, map[string]any{
		"service": map[string]any{
			"type":   "docker",
			"docker": map[string]any{"image": "redis"},
		},
	})

	local, err := LoadLocal(OSProbe{}, "infra-redis", repoPath, false)
	require.NoError(t, err)

	desc := local.Descriptor
	assert.Equal(t, TypeDocker, desc.Service.Type)
	require.NotNil(t, desc.Service.Docker)
	assert.Equal(t, "redis", desc.Service.Docker.Image)
	assert.Equal(t, 0, desc.Order, "a service file without order clears the local default")
	assert.Equal(t, ContainerOrder, desc.EffectiveOrder())
}

func TestLoadLocal_MissingRepository(t *testing.T) {
	repoPath := filepath.Join(t.TempDir(), "app-x")

	local, err := LoadLocal(OSProbe{}, "app-x", repoPath, false)
	require.NoError(t, err)

	assert.False(t, local.Exists)
	assert.Equal(t, ServiceType(""), local.Descriptor.Service.Type)
}

func TestLoadLocal_MalformedFile(t *testing.T) {
	repoPath := filepath.Join(t.TempDir(), "service-broken")
	require.NoError(t, os.MkdirAll(repoPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, ServiceFile), []byte("{nope"), 0644))

	_, err := LoadLocal(OSProbe{}, "service-broken", repoPath, false)
	assert.Error(t, err)
}

func TestEffectiveOrder(t *testing.T) {
	tests := []struct {
		name string
		desc ServiceDescriptor
		want int
	}{
		{"explicit", ServiceDescriptor{Order: 10, Service: Service{Type: TypeDocker}}, 10},
		{"docker default", ServiceDescriptor{Service: Service{Type: TypeDocker}}, ContainerOrder},
		{"compose default", ServiceDescriptor{Service: Service{Type: TypeDockerCompose}}, ContainerOrder},
		{"node default", ServiceDescriptor{Service: Service{Type: TypeNode}}, ProcessOrder},
		{"unknown default", Unknown("x"), ProcessOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.desc.EffectiveOrder())
		})
	}
}

func TestDefaultService(t *testing.T) {
	base := Service{Name: "app-x", Type: TypeNode}
	defaults := Service{Name: "ignored", Type: TypeDocker, Registry: "registry.local", Version: "latest"}

	merged, err := DefaultService(base, defaults)
	require.NoError(t, err)

	assert.Equal(t, "app-x", merged.Name)
	assert.Equal(t, TypeNode, merged.Type)
	assert.Equal(t, "registry.local", merged.Registry)
	assert.Equal(t, "latest", merged.Version)
}

func TestReadServiceFile(t *testing.T) {
	desc, err := ReadServiceFile([]byte(`{"service":{"type":"docker","name":"app-x"}}`), "app-x")
	require.NoError(t, err)
	assert.Equal(t, "app-x", desc.Name)
	assert.Equal(t, TypeDocker, desc.Service.Type)

	_, err = ReadServiceFile([]byte(`[`), "app-x")
	assert.Error(t, err)
}
