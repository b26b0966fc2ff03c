// Package runner launches one container per test-target partition.
package runner

import (
	"context"
	"fmt"
	"strings"

	apperrors "shardci/internal/errors"
	"shardci/pkg/runtime"
)

// RunSpec is the command configuration for one container invocation.
type RunSpec struct {
	// Targets is this partition's slice of test targets, in input order.
	Targets []string
	// PreRunCommands run before the test invocation, one per line. Their
	// contents are opaque and passed through verbatim.
	PreRunCommands []string
	// Image is the pinned test environment image reference.
	Image string
	// BazelConfig names the bazel --config profile for the invocation.
	BazelConfig string
	// Workdir is the fixed working directory inside the container.
	Workdir string
	// ShmSizeBytes overrides the container's shared memory allocation.
	ShmSizeBytes int64
}

// GroupRunner launches test-group containers through a container runtime.
type GroupRunner struct {
	containerRuntime runtime.ContainerRuntime
}

// NewGroupRunner creates a new GroupRunner.
func NewGroupRunner(containerRuntime runtime.ContainerRuntime) *GroupRunner {
	return &GroupRunner{
		containerRuntime: containerRuntime,
	}
}

// Run launches a container executing the spec's test group and returns
// immediately with its handle. The caller owns the handle and must wait on
// it exactly once. A launch failure returns before any handle exists and
// must be folded into the run verdict as a failed partition.
func (r *GroupRunner) Run(ctx context.Context, spec RunSpec) (runtime.Handle, error) {
	opts := runtime.RunOptions{
		Image:            spec.Image,
		Script:           Script(spec),
		WorkingDirectory: spec.Workdir,
		ShmSizeBytes:     spec.ShmSizeBytes,
		AutoRemove:       true,
	}

	handle, err := r.containerRuntime.StartContainer(ctx, opts)
	if err != nil {
		return nil, apperrors.NewLaunchError(
			"Failed to launch test group container",
			fmt.Sprintf("image %s: %v", spec.Image, err),
			"Verify the image reference exists and the Docker daemon is healthy",
			err,
		)
	}

	return handle, nil
}

// Script builds the single shell command executed inside the container: the
// pre-run commands in order, then one bazel invocation listing every target
// in the partition.
func Script(spec RunSpec) string {
	lines := make([]string, 0, len(spec.PreRunCommands)+1)
	lines = append(lines, spec.PreRunCommands...)
	lines = append(lines, bazelCommand(spec))
	return strings.Join(lines, "\n")
}

func bazelCommand(spec RunSpec) string {
	parts := append([]string{"bazel", "test", fmt.Sprintf("--config=%s", spec.BazelConfig)}, spec.Targets...)
	return strings.Join(parts, " ")
}
