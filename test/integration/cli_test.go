package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const dryRunManifest = `apiVersion: v1
kind: TestRun
metadata:
  name: integration-tests
  team: core
spec:
  targets:
    - //a:t1
    - //a:t2
    - //a:t3
    - //a:t4
    - //a:t5
  parallelism: 2
  image:
    registry: registry.example.com
    repository: ci-base-images
    tagPrefix: oss-ci-build
    buildId: abc123
`

func buildCLI(t *testing.T, dir string) string {
	t.Helper()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	binaryPath := filepath.Join(dir, "shardci")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/shardci")
	buildCmd.Dir = originalDir
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI binary: %v\n%s", err, output)
	}
	return binaryPath
}

func TestCLI_RunRequiresFileFlag(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	cmd := exec.Command(binaryPath, "run")
	cmd.Env = append(os.Environ(), "SHARDCI_LOG_DIR="+tempDir)
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("Expected command to fail without --file")
	}
	if !strings.Contains(string(output), "file") {
		t.Errorf("Error output should mention the file flag, got: %s", output)
	}
}

func TestCLI_RunManifestNotFound(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	cmd := exec.Command(binaryPath, "run", "--file", filepath.Join(tempDir, "missing.yaml"), "--dry-run")
	cmd.Env = append(os.Environ(), "SHARDCI_LOG_DIR="+tempDir)
	cmd.Dir = tempDir
	output, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("Expected command to fail for a missing manifest")
	}
	if !strings.Contains(string(output), "manifest") {
		t.Errorf("Error output should mention the manifest, got: %s", output)
	}
}

func TestCLI_DryRunSucceedsWithoutDocker(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	manifestPath := filepath.Join(tempDir, "shardci.yaml")
	if err := os.WriteFile(manifestPath, []byte(dryRunManifest), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(binaryPath, "run", "--file", manifestPath, "--dry-run")
	cmd.Env = append(os.Environ(), "SHARDCI_LOG_DIR="+tempDir)
	cmd.Dir = tempDir
	output, err := cmd.CombinedOutput()

	if err != nil {
		t.Fatalf("Dry run should succeed without a Docker daemon: %v\n%s", err, output)
	}
	if !strings.Contains(string(output), "DRY RUN COMPLETED") {
		t.Errorf("Expected dry run completion banner, got: %s", output)
	}
}

func TestCLI_PartitionPrintsGroups(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	manifestPath := filepath.Join(tempDir, "shardci.yaml")
	if err := os.WriteFile(manifestPath, []byte(dryRunManifest), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(binaryPath, "partition", "--file", manifestPath)
	cmd.Env = append(os.Environ(), "SHARDCI_LOG_DIR="+tempDir)
	output, err := cmd.CombinedOutput()

	if err != nil {
		t.Fatalf("partition command failed: %v\n%s", err, output)
	}

	// 5 targets over parallelism 2: groups of 3 and 2.
	outputStr := string(output)
	if !strings.Contains(outputStr, "group 0 (3 targets)") {
		t.Errorf("Expected group 0 with 3 targets, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "group 1 (2 targets)") {
		t.Errorf("Expected group 1 with 2 targets, got: %s", outputStr)
	}
}
