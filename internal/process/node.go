package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"bosco/internal/manifest"
	"bosco/pkg/logging"
)

const nodeSubsystem = "Node"

// NodeChecker compares a service's node requirement with the installed node.
type NodeChecker struct {
	once    sync.Once
	version *semver.Version
	err     error
}

// NewNodeChecker returns a checker. node --version runs on first use.
func NewNodeChecker() *NodeChecker {
	return &NodeChecker{}
}

func (c *NodeChecker) installed(ctx context.Context) (*semver.Version, error) {
	c.once.Do(func() {
		output, err := execCommandContext(ctx, "node", "--version").Output()
		if err != nil {
			c.err = err
			return
		}
		c.version, c.err = semver.NewVersion(strings.TrimSpace(string(output)))
	})
	return c.version, c.err
}

// Requirement is the node constraint a service asks for: engines.node from
// package.json, else the contents of .nvmrc. It is empty when neither exists.
func Requirement(desc manifest.ServiceDescriptor) string {
	if desc.Service.NodeVersion != "" {
		return desc.Service.NodeVersion
	}
	if desc.Cwd == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(desc.Cwd, ".nvmrc"))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(string(data)), "v")
}

// Check warns when the installed node does not satisfy the service's
// requirement. It returns false only for a definite mismatch.
func (c *NodeChecker) Check(ctx context.Context, desc manifest.ServiceDescriptor) bool {
	requirement := Requirement(desc)
	if requirement == "" {
		return true
	}

	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		logging.Debug(nodeSubsystem, "Ignoring node requirement %q of %s: %v", requirement, desc.Name, err)
		return true
	}

	version, err := c.installed(ctx)
	if err != nil {
		logging.Warn(nodeSubsystem, "Unable to determine the installed node version: %v", err)
		return true
	}

	if !constraint.Check(version) {
		logging.Warn(nodeSubsystem, "%s requires node %s but %s is installed", desc.Name, requirement, version.Original())
		return false
	}
	return true
}
