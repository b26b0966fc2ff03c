package app

import (
	"fmt"

	"shardci/internal/runtime"
	pkgruntime "shardci/pkg/runtime"
)

// Runtime identifiers accepted by the factory.
const (
	RuntimeDocker = "docker"
)

// RuntimeFactory creates container runtimes by name, decoupling the
// orchestrator from concrete runtime implementations.
type RuntimeFactory struct{}

// NewRuntimeFactory creates a new instance of RuntimeFactory.
func NewRuntimeFactory() *RuntimeFactory {
	return &RuntimeFactory{}
}

// GetRuntime returns the container runtime implementation for the given name.
func (f *RuntimeFactory) GetRuntime(name string) (pkgruntime.ContainerRuntime, error) {
	switch name {
	case RuntimeDocker:
		dockerRuntime, err := runtime.NewDockerRuntime()
		if err != nil {
			return nil, fmt.Errorf("failed to create Docker runtime: %w", err)
		}
		return dockerRuntime, nil
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", name)
	}
}
