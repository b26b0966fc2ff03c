// Located in pkg/runtime/runtime.go
package runtime

import "context"

// RunOptions defines the parameters for launching one test-group container.
type RunOptions struct {
	Image            string
	Script           string
	WorkingDirectory string
	ShmSizeBytes     int64
	EnvVars          map[string]string
	AutoRemove       bool
}

// BuildOptions defines the parameters for building the test environment image.
type BuildOptions struct {
	ContextDir string
	Dockerfile string
	Tag        string
	BuildArgs  map[string]string
}

// Handle is a live reference to a spawned container. It must be waited upon
// exactly once; dropping a handle without waiting leaks the container.
type Handle interface {
	// Wait blocks until the container exits and returns its exit code.
	Wait(ctx context.Context) (int, error)

	// Stop terminates the container and releases its resources.
	Stop(ctx context.Context) error
}

// ContainerRuntime defines the contract for container operations.
type ContainerRuntime interface {
	PullImage(ctx context.Context, image string) error
	BuildImage(ctx context.Context, opts BuildOptions) error
	StartContainer(ctx context.Context, opts RunOptions) (Handle, error)
	Login(ctx context.Context, registry, username, password string) error
}
