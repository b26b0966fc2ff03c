package app

import (
	"errors"
	"os"
	"testing"

	"shardci/internal/supervisor"
	"shardci/pkg/manifest"
)

func chdirTemp(t *testing.T) {
	t.Helper()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})
}

func reportManifest() *manifest.Manifest {
	return &manifest.Manifest{
		APIVersion: "v1",
		Kind:       "TestRun",
		Metadata: manifest.Metadata{
			Name: "core-tests",
			Team: "core",
		},
		Spec: manifest.Spec{
			Targets:     []string{"//a:t1", "//a:t2", "//a:t3"},
			Parallelism: 2,
			Image: manifest.Image{
				Registry:   "registry.example.com",
				Repository: "ci-base-images",
				TagPrefix:  "oss-ci-build",
				BuildID:    "abc123",
			},
		},
	}
}

func TestRunReport_RoundTrip(t *testing.T) {
	chdirTemp(t)

	m := reportManifest()
	report := newReport("run-42", "shardci.yaml", m)

	results := []supervisor.RunResult{
		{Partition: 0, ExitCode: 0},
		{Partition: 1, ExitCode: 1, Err: errors.New("tests failed")},
	}
	report.finish(results, false)
	report.attachTargets([][]string{{"//a:t1", "//a:t2"}, {"//a:t3"}})

	if err := saveReport(report); err != nil {
		t.Fatalf("saveReport returned error: %v", err)
	}

	loaded, err := LoadReport()
	if err != nil {
		t.Fatalf("LoadReport returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadReport returned nil for an existing report")
	}

	if loaded.RunID != "run-42" {
		t.Errorf("Expected run ID 'run-42', got %q", loaded.RunID)
	}
	if loaded.Image != "registry.example.com/ci-base-images:oss-ci-build_abc123" {
		t.Errorf("Unexpected image reference: %q", loaded.Image)
	}
	if loaded.OverallSuccess {
		t.Error("Report should record the failed verdict")
	}
	if len(loaded.Groups) != 2 {
		t.Fatalf("Expected 2 group reports, got %d", len(loaded.Groups))
	}
	if loaded.Groups[0].Success != true || loaded.Groups[1].Success != false {
		t.Error("Group success flags do not match the results")
	}
	if loaded.Groups[1].Error == "" {
		t.Error("Failing group should retain its error text")
	}
	if len(loaded.Groups[0].Targets) != 2 || len(loaded.Groups[1].Targets) != 1 {
		t.Error("Per-group targets were not attached")
	}
}

func TestLoadReport_NoReport(t *testing.T) {
	chdirTemp(t)

	report, err := LoadReport()
	if err != nil {
		t.Fatalf("LoadReport returned error: %v", err)
	}
	if report != nil {
		t.Error("LoadReport should return nil when no report exists")
	}
}

func TestRunReport_FinishWithoutResults(t *testing.T) {
	report := newReport("run-1", "shardci.yaml", reportManifest())
	report.finish(nil, false)

	if report.OverallSuccess {
		t.Error("A run aborted before any launch must read as failure")
	}
	if len(report.Groups) != 0 {
		t.Errorf("Expected no group reports, got %d", len(report.Groups))
	}
	if report.FinishedAt.IsZero() {
		t.Error("finish should stamp the completion time")
	}
}
