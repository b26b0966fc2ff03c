// Package prepare builds the per-team test environment image that every
// group container in a run executes against.
package prepare

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"shardci/internal/buildctx"
	apperrors "shardci/internal/errors"
	"shardci/pkg/manifest"
	"shardci/pkg/runtime"
)

// Preparer defines the interface for the environment preparation stage.
type Preparer interface {
	Prepare(ctx context.Context, m *manifest.Manifest) error
}

// ImagePreparer implements Preparer by building the test environment image
// through a container runtime.
type ImagePreparer struct {
	containerRuntime runtime.ContainerRuntime
}

// NewImagePreparer creates a new ImagePreparer.
func NewImagePreparer(containerRuntime runtime.ContainerRuntime) *ImagePreparer {
	return &ImagePreparer{
		containerRuntime: containerRuntime,
	}
}

// Prepare builds the test environment image tagged for this run's build
// identifier. The base image and the team's environment script are passed as
// build arguments; the daemon's layer cache makes repeat builds for the same
// build ID a no-op. A build failure is fatal to the whole run.
func (p *ImagePreparer) Prepare(ctx context.Context, m *manifest.Manifest) error {
	imageRef := m.Spec.Image.Ref()
	team := m.Metadata.Team

	slog.Info("Preparing test environment image", "image", imageRef, "team", team)

	stagingDir, err := buildctx.Stage(m.Spec.Prepare.ContextDir, m.Spec.Prepare.Dockerfile, team)
	if err != nil {
		return apperrors.NewPrepareError(
			"Failed to assemble the image build context",
			err.Error(),
			"Check that spec.prepare.contextDir contains the Dockerfile and the team's environment script",
			err,
		)
	}
	defer os.RemoveAll(stagingDir)

	buildArgs := map[string]string{
		"BASE_IMAGE":              baseImage(m),
		"TEST_ENVIRONMENT_SCRIPT": buildctx.EnvScriptName(team),
	}

	opts := runtime.BuildOptions{
		ContextDir: stagingDir,
		Dockerfile: m.Spec.Prepare.Dockerfile,
		Tag:        imageRef,
		BuildArgs:  buildArgs,
	}

	if err := p.containerRuntime.BuildImage(ctx, opts); err != nil {
		return apperrors.NewPrepareError(
			"Test environment image build failed",
			fmt.Sprintf("building %s: %v", imageRef, err),
			"Inspect the Docker build output and verify the base image is reachable",
			err,
		)
	}

	slog.Info("Test environment image ready", "image", imageRef)
	return nil
}

// baseImage returns the build's FROM argument. When the manifest names no
// explicit base, the run image itself is used, refreshing the environment
// layers on top of the previous build.
func baseImage(m *manifest.Manifest) string {
	if m.Spec.Image.BaseImage != "" {
		return m.Spec.Image.BaseImage
	}
	return m.Spec.Image.Ref()
}
