package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"

	"shardci/pkg/runtime"
)

// stopTimeoutSeconds is how long a container gets to shut down cleanly
// before it is killed.
const stopTimeoutSeconds = 10

// DockerRuntime implements the ContainerRuntime interface using the Docker client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	_, err = dockerClient.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// PullImage pulls a Docker image.
func (d *DockerRuntime) PullImage(ctx context.Context, imageName string) error {
	slog.Info("Pulling Docker image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Stream the pull output (but don't print it to avoid clutter)
	_, err = io.Copy(io.Discard, reader)
	if err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled Docker image", "image", imageName)
	return nil
}

// BuildImage builds and tags an image from the given build context. The
// daemon's layer cache makes a rebuild with the same inputs a no-op.
func (d *DockerRuntime) BuildImage(ctx context.Context, opts runtime.BuildOptions) error {
	slog.Info("Building Docker image", "tag", opts.Tag, "context", opts.ContextDir)

	buildContext, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to create build context from %s: %w", opts.ContextDir, err)
	}
	defer buildContext.Close()

	buildArgs := make(map[string]*string, len(opts.BuildArgs))
	for key, value := range opts.BuildArgs {
		v := value
		buildArgs[key] = &v
	}

	resp, err := d.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:       []string{opts.Tag},
		Dockerfile: opts.Dockerfile,
		BuildArgs:  buildArgs,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w", opts.Tag, err)
	}
	defer resp.Body.Close()

	// The build stream reports failures as in-band JSON messages; a build
	// error surfaces here, not from ImageBuild itself.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("image build failed for %s: %w", opts.Tag, err)
	}

	slog.Info("Successfully built Docker image", "tag", opts.Tag)
	return nil
}

// Login authenticates the daemon against a registry so subsequent pulls
// and pushes are authorized.
func (d *DockerRuntime) Login(ctx context.Context, registryHost, username, password string) error {
	slog.Info("Logging in to registry", "registry", registryHost, "username", username)

	_, err := d.client.RegistryLogin(ctx, registry.AuthConfig{
		Username:      username,
		Password:      password,
		ServerAddress: registryHost,
	})
	if err != nil {
		return fmt.Errorf("failed to authenticate against registry %s: %w", registryHost, err)
	}

	return nil
}

// StartContainer launches a container running the given script through an
// interactive non-login shell and returns immediately with a handle. The
// caller owns the container's lifetime and must wait on the handle exactly once.
func (d *DockerRuntime) StartContainer(ctx context.Context, opts runtime.RunOptions) (runtime.Handle, error) {
	slog.Info("Starting container", "image", opts.Image, "workdir", opts.WorkingDirectory)

	var envVars []string
	for key, value := range opts.EnvVars {
		envVars = append(envVars, fmt.Sprintf("%s=%s", key, value))
	}

	containerConfig := &container.Config{
		Image: opts.Image,
		// -i without -l: interactive so ~/.bashrc is sourced, non-login so
		// profile scripts are not.
		Cmd:        []string{"/bin/bash", "-ic", opts.Script},
		Env:        envVars,
		WorkingDir: opts.WorkingDirectory,
		OpenStdin:  true,
	}

	hostConfig := &container.HostConfig{
		AutoRemove: opts.AutoRemove,
		ShmSize:    opts.ShmSizeBytes,
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container for image %s: %w", opts.Image, err)
	}

	containerID := resp.ID

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		// Clean up on start failure
		if removeErr := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); removeErr != nil {
			slog.Error("Failed to remove container after start failure", "containerID", containerID, "error", removeErr)
		}
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	return &dockerHandle{
		client:      d.client,
		containerID: containerID,
		autoRemove:  opts.AutoRemove,
	}, nil
}

// dockerHandle is a live reference to one spawned container.
type dockerHandle struct {
	client      *client.Client
	containerID string
	autoRemove  bool
}

// Wait blocks until the container exits and returns its exit code.
func (h *dockerHandle) Wait(ctx context.Context) (int, error) {
	// Auto-removed containers must be waited on through removal, otherwise
	// the status read races the daemon's cleanup.
	condition := container.WaitConditionNotRunning
	if h.autoRemove {
		condition = container.WaitConditionRemoved
	}

	statusCh, errCh := h.client.ContainerWait(ctx, h.containerID, condition)

	select {
	case err := <-errCh:
		return -1, fmt.Errorf("failed to wait for container %s: %w", h.containerID, err)
	case status := <-statusCh:
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("container %s terminated abnormally: %s", h.containerID, status.Error.Message)
		}
		return int(status.StatusCode), nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Stop terminates the container. Removal errors are ignored for auto-removed
// containers, which the daemon may already have reaped.
func (h *dockerHandle) Stop(ctx context.Context) error {
	timeout := stopTimeoutSeconds
	if err := h.client.ContainerStop(ctx, h.containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", h.containerID, err)
	}

	if !h.autoRemove {
		if err := h.client.ContainerRemove(ctx, h.containerID, container.RemoveOptions{Force: true}); err != nil {
			slog.Error("Failed to remove container", "containerID", h.containerID, "error", err)
			return err
		}
	}

	return nil
}
