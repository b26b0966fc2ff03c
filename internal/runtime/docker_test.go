package runtime

import (
	"strings"
	"testing"
)

func TestNewDockerRuntime_RequiresDockerDaemon(t *testing.T) {
	// This test will fail to connect if the Docker daemon is not running,
	// but that's expected. We're testing the error handling path.
	_, err := NewDockerRuntime()

	// We expect either success (if Docker is running) or a specific error format
	if err != nil {
		errorMsg := err.Error()
		if errorMsg == "" {
			t.Error("Error message should not be empty")
		}

		if !strings.HasPrefix(errorMsg, "failed to create Docker client") &&
			!strings.HasPrefix(errorMsg, "failed to connect to Docker daemon") {
			t.Errorf("Unexpected error format: %s", errorMsg)
		}
	}
}
