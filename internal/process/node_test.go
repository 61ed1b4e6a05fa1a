package process

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bosco/internal/manifest"
)

func TestRequirement(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".nvmrc"), []byte("v18.19.0\n"), 0o644))

	assert.Equal(t, ">=16", Requirement(manifest.ServiceDescriptor{
		Cwd:     dir,
		Service: manifest.Service{NodeVersion: ">=16"},
	}))
	assert.Equal(t, "18.19.0", Requirement(manifest.ServiceDescriptor{Cwd: dir}))
	assert.Empty(t, Requirement(manifest.ServiceDescriptor{Cwd: t.TempDir()}))
	assert.Empty(t, Requirement(manifest.ServiceDescriptor{}))
}

func TestNodeCheckerCheck(t *testing.T) {
	tests := []struct {
		name        string
		requirement string
		want        bool
	}{
		{name: "no requirement", requirement: "", want: true},
		{name: "satisfied", requirement: ">=18", want: true},
		{name: "caret satisfied", requirement: "^20.0.0", want: true},
		{name: "mismatch", requirement: "^16.0.0", want: false},
		{name: "exact mismatch", requirement: "18.19.0", want: false},
		{name: "not a semver constraint", requirement: "lts/iron", want: true},
	}

	checker := NewNodeChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := manifest.ServiceDescriptor{
				Name:    "service-a",
				Service: manifest.Service{NodeVersion: tt.requirement},
			}
			assert.Equal(t, tt.want, checker.Check(context.Background(), desc))
		})
	}
}
