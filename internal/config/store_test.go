package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", configFileName)
	store := NewStore(path)

	require.NoError(t, store.Set("github:org", "tes"))
	require.NoError(t, store.Set("teams:tes/platform:repos", []string{"service-a", "app-x"}))

	cached := struct {
		Name       string    `json:"name"`
		CachedTime time.Time `json:"cachedTime"`
	}{Name: "app-x", CachedTime: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Set("cache:github:tes/app-x", cached))

	require.NoError(t, store.Save())

	loaded, err := LoadStore(path)
	require.NoError(t, err)

	assert.Equal(t, "tes", loaded.GetString("github:org"))

	var repos []string
	found, err := loaded.Decode("teams:tes/platform:repos", &repos)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"service-a", "app-x"}, repos)

	var roundTripped struct {
		Name       string    `json:"name"`
		CachedTime time.Time `json:"cachedTime"`
	}
	found, err = loaded.Decode("cache:github:tes/app-x", &roundTripped)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cached.Name, roundTripped.Name)
	assert.True(t, cached.CachedTime.Equal(roundTripped.CachedTime))
}

func TestLoadStore_MissingFile(t *testing.T) {
	store, err := LoadStore(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	_, ok := store.Get("github:org")
	assert.False(t, ok)
}

func TestLoadStore_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte("github: [unterminated"), 0644))

	_, err := LoadStore(path)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.ErrorType)
}

func TestStore_OverridePrecedence(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, configFileName))
	require.NoError(t, store.Set("github:org", "from-user"))
	require.NoError(t, store.Set("cdn:port", 7334))

	envFile := filepath.Join(dir, "local.yaml")
	require.NoError(t, os.WriteFile(envFile, []byte("github:\n  org: from-env-file\ncdn:\n  hostname: cdn.local\n"), 0644))
	require.NoError(t, store.AddOverrideFile(envFile))
	assert.Equal(t, "from-env-file", store.GetString("github:org"))

	store.AddEnvOverrides([]string{"BOSCO_github__org=from-env-var", "PATH=/usr/bin", "BOSCO_github__authToken=secret"})
	assert.Equal(t, "from-env-var", store.GetString("github:org"))
	assert.Equal(t, "secret", store.GetString("github:authToken"))
	assert.Equal(t, "cdn.local", store.GetString("cdn:hostname"))

	port, ok := store.Get("cdn:port")
	require.True(t, ok)
	assert.Equal(t, float64(7334), port)
}

func TestStore_AddOverrideFileMissingIsIgnored(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), configFileName))
	assert.NoError(t, store.AddOverrideFile(filepath.Join(t.TempDir(), "none.yaml")))
}

func TestStore_DeleteAndKeys(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), configFileName))
	require.NoError(t, store.Set("cache:github:tes/a", map[string]any{"name": "a"}))
	require.NoError(t, store.Set("cache:github:tes/b", map[string]any{"name": "b"}))

	assert.Equal(t, []string{"tes/a", "tes/b"}, store.Keys("cache:github"))

	store.Delete("cache:github:tes/a")
	assert.Equal(t, []string{"tes/b"}, store.Keys("cache:github"))

	store.Delete("does:not:exist")
}

func TestStore_SetEmptyKey(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), configFileName))
	assert.Error(t, store.Set("", "x"))
}

func TestConcurrencyFor(t *testing.T) {
	assert.Equal(t, Concurrency{Network: 32, CPU: 7}, concurrencyFor(8))
	assert.Equal(t, Concurrency{Network: 4, CPU: 1}, concurrencyFor(1))
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("cache:github:tes/app-x"))
	assert.Error(t, ValidateKey(""))
	assert.Error(t, ValidateKey("github::org"))
	assert.Error(t, ValidateKey("github:o rg"))
}

func TestSettingsValidate(t *testing.T) {
	valid := Settings{Teams: map[string]TeamConfig{"tes/platform": {Path: "/ws"}}}
	assert.NoError(t, valid.Validate())

	invalid := Settings{
		Teams:  map[string]TeamConfig{"platform": {}},
		GitHub: GitHubConfig{APIHostname: "https://github.example.com"},
	}
	err := invalid.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}
