package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupWorkspace creates a team workspace with a node service depending on a
// docker service and returns the configuration directory.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	text.DisableColors()
	t.Cleanup(text.EnableColors)

	ws, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	configDir := t.TempDir()

	files := map[string]string{
		"service-a/package.json":       `{"scripts":{"start":"node app"}}`,
		"service-a/bosco-service.json": `{"tags":["upload"],"service":{"dependsOn":["infra-db"]}}`,
		"infra-db/bosco-service.json":  `{"service":{"type":"docker","name":"db","docker":{"image":"mongo"}}}`,
		"service-b/bosco-service.json": `{"service":{"type":"node","start":"node index"}}`,
	}
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".bosco"), 0755))
	for name, content := range files {
		path := filepath.Join(ws, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	config := "teams:\n  tes/resources:\n    path: " + ws + "\n    repos:\n    - service-a\n    - service-b\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "bosco.yaml"), []byte(config), 0600))

	t.Chdir(ws)
	return configDir
}

func TestDepsRunList(t *testing.T) {
	configDir := setupWorkspace(t)

	out, err := executeCommand(t, "deps", "--run-list", "-o", "plain", "--config-path", configDir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"SERVICE", "TYPE", "ORDER", "WATCH"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"infra-db", "docker", "100", "false"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"service-a", "node", "500", "false"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"service-b", "node", "500", "false"}, strings.Fields(lines[3]))
}

func TestDepsRunListByTag(t *testing.T) {
	configDir := setupWorkspace(t)

	out, err := executeCommand(t, "deps", "-t", "upload", "-w", "service-a", "-o", "json", "--config-path", configDir)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"infra-db","type":"docker"},{"name":"service-a","type":"node"}]`, out)
}

func TestDepsTree(t *testing.T) {
	configDir := setupWorkspace(t)

	out, err := executeCommand(t, "deps", "--config-path", configDir)
	require.NoError(t, err)
	assert.Contains(t, out, "service-a")
	assert.Contains(t, out, "infra-db")
	assert.Contains(t, out, "service-b")
}

func TestDepsInvalidPattern(t *testing.T) {
	configDir := setupWorkspace(t)

	_, err := executeCommand(t, "deps", "-r", "(", "--config-path", configDir)
	assert.Equal(t, ExitCodeError, getExitCode(err))
	assert.ErrorContains(t, err, "invalid --repo expression")
}
