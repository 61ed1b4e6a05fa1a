package containerizer

import (
	"context"
	"fmt"
	"strings"
)

// RuntimeType selects how bosco talks to Docker.
type RuntimeType string

const (
	// RuntimeTypeEngine uses the Docker Engine API.
	RuntimeTypeEngine RuntimeType = "engine"
	// RuntimeTypeCLI shells out to the docker command.
	RuntimeTypeCLI RuntimeType = "cli"
)

// NewContainerRuntime creates the runtime named by runtimeType. The Engine
// API is used when runtimeType is empty.
func NewContainerRuntime(ctx context.Context, runtimeType string) (ContainerRuntime, error) {
	switch RuntimeType(strings.ToLower(runtimeType)) {
	case RuntimeTypeEngine, "":
		return NewEngineRuntime()
	case RuntimeTypeCLI:
		return NewCLIRuntime(ctx)
	default:
		return nil, fmt.Errorf("unsupported docker runtime: %s", runtimeType)
	}
}
