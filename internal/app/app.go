package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	apperrors "shardci/internal/errors"
	"shardci/internal/parser"
	"shardci/internal/partition"
	"shardci/internal/prepare"
	"shardci/internal/runner"
	"shardci/internal/supervisor"
	"shardci/pkg/manifest"
)

const (
	// Color codes for console output
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// RunOptions carries per-invocation knobs from the CLI.
type RunOptions struct {
	// Parallelism overrides spec.parallelism when positive.
	Parallelism int
	// DryRun prints the execution plan without touching Docker.
	DryRun bool
	// SkipPrepare bypasses the environment preparation stage even when the
	// manifest enables it.
	SkipPrepare bool
}

// Run orchestrates one complete test run: parse the manifest, partition the
// targets, prepare the environment image, fan out one container per
// partition, and reduce the exit codes into a single verdict. A non-nil
// error means the run failed, including the case where every container ran
// but at least one test group exited non-zero.
func Run(ctx context.Context, manifestPath string, opts RunOptions) error {
	runID := uuid.New().String()
	slog.Info("Starting shardci test run", "runId", runID, "manifestPath", manifestPath, "dryRun", opts.DryRun)

	m, err := parser.Parse(manifestPath)
	if err != nil {
		return apperrors.NewParseError(
			"Failed to load test run manifest",
			err.Error(),
			"Check the manifest path and its YAML structure",
			err,
		)
	}
	slog.Info("Manifest parsed successfully", "name", m.Metadata.Name, "team", m.Metadata.Team, "targets", len(m.Spec.Targets))

	parallelism := m.Spec.Parallelism
	if opts.Parallelism > 0 {
		parallelism = opts.Parallelism
	}

	partitions, err := partition.Split(m.Spec.Targets, parallelism)
	if err != nil {
		return err
	}

	fmt.Printf("%s🧩 Partitioned %d targets into %d groups%s\n", ColorCyan, len(m.Spec.Targets), len(partitions), ColorReset)

	specs := buildRunSpecs(m, partitions)

	if opts.DryRun {
		printPlan(m, specs)
		fmt.Printf("%s🎉 DRY RUN COMPLETED - no containers were started%s\n", ColorGreen, ColorReset)
		return nil
	}

	containerRuntime, err := NewRuntimeFactory().GetRuntime(RuntimeDocker)
	if err != nil {
		return apperrors.NewRuntimeError(
			"Container runtime initialization failed",
			err.Error(),
			"Verify the Docker daemon is running and reachable",
			err,
		)
	}

	report := newReport(runID, manifestPath, m)

	// Stage 1: environment preparation (optional, fatal on failure)
	if m.Spec.Prepare.Enabled && !opts.SkipPrepare {
		fmt.Printf("%s🔧 Stage 1: Building test environment image %s%s\n", ColorCyan, m.Spec.Image.Ref(), ColorReset)
		preparer := prepare.NewImagePreparer(containerRuntime)
		if err := preparer.Prepare(ctx, m); err != nil {
			report.finish(nil, false)
			if saveErr := saveReport(report); saveErr != nil {
				slog.Warn("Failed to save run report", "error", saveErr)
			}
			return err
		}
		fmt.Printf("%s✅ Test environment image ready%s\n", ColorGreen, ColorReset)
	} else {
		fmt.Printf("%s⏭️  Stage 1: Environment preparation skipped%s\n", ColorYellow, ColorReset)
	}

	// Stage 2: fan-out, fan-in
	fmt.Printf("%s🚀 Stage 2: Running %d test groups against %s%s\n", ColorCyan, len(specs), m.Spec.Image.Ref(), ColorReset)
	groupRunner := runner.NewGroupRunner(containerRuntime)
	results := supervisor.Supervise(ctx, groupRunner, specs)

	// Stage 3: reduction
	overall := supervisor.Reduce(results)
	report.finish(results, overall)
	report.attachTargets(partitions)
	if err := saveReport(report); err != nil {
		slog.Warn("Failed to save run report", "error", err)
	}

	printResults(results)

	if !overall {
		failed := failedPartitions(results)
		return apperrors.NewTestFailureError(
			"Test run failed",
			fmt.Sprintf("%d of %d test groups exited non-zero", len(failed), len(results)),
			fmt.Sprintf("Inspect the run report (%s) for the failing partitions: %v", ReportFileName, failed),
			apperrors.ErrTestsFailed,
		)
	}

	fmt.Printf("%s🎉 ALL %d TEST GROUPS PASSED%s\n", ColorGreen, len(results), ColorReset)
	slog.Info("Test run completed successfully", "runId", runID, "groups", len(results))
	return nil
}

// buildRunSpecs derives one container invocation per partition. Every spec
// shares the same deterministic image reference the preparer builds.
func buildRunSpecs(m *manifest.Manifest, partitions [][]string) []runner.RunSpec {
	specs := make([]runner.RunSpec, 0, len(partitions))
	for _, targets := range partitions {
		specs = append(specs, runner.RunSpec{
			Targets:        targets,
			PreRunCommands: m.Spec.Execution.PreRunCommands,
			Image:          m.Spec.Image.Ref(),
			BazelConfig:    m.Spec.Execution.BazelConfig,
			Workdir:        m.Spec.Execution.Workdir,
			ShmSizeBytes:   shmSizeBytes(m.Spec.Execution.ShmSizeGB),
		})
	}
	return specs
}

func shmSizeBytes(gb float64) int64 {
	return int64(gb * 1024 * 1024 * 1024)
}

func printPlan(m *manifest.Manifest, specs []runner.RunSpec) {
	fmt.Printf("%s🔍 DRY RUN MODE - no containers will be started%s\n", ColorYellow, ColorReset)
	fmt.Printf("%s🔍 DRY RUN: Image: %s%s\n", ColorYellow, m.Spec.Image.Ref(), ColorReset)
	if m.Spec.Prepare.Enabled {
		fmt.Printf("%s🔍 DRY RUN: Would build environment image from %s%s\n", ColorYellow, m.Spec.Prepare.ContextDir, ColorReset)
	}
	for i, spec := range specs {
		fmt.Printf("%s🔍 DRY RUN: Group %d: %d targets%s\n", ColorYellow, i, len(spec.Targets), ColorReset)
	}
	if len(specs) > 0 {
		fmt.Printf("%s🔍 DRY RUN: Group 0 script:%s\n%s\n", ColorYellow, ColorReset, runner.Script(specs[0]))
	}
}

func printResults(results []supervisor.RunResult) {
	for _, result := range results {
		if result.Success() {
			fmt.Printf("%s✅ Group %d passed%s\n", ColorGreen, result.Partition, ColorReset)
		} else {
			fmt.Printf("%s❌ Group %d failed (exit code %d)%s\n", ColorRed, result.Partition, result.ExitCode, ColorReset)
		}
	}
}

func failedPartitions(results []supervisor.RunResult) []int {
	var failed []int
	for _, result := range results {
		if !result.Success() {
			failed = append(failed, result.Partition)
		}
	}
	return failed
}

// ValidatePrerequisites checks that all required external dependencies are available.
func ValidatePrerequisites() error {
	slog.Info("Validating shardci prerequisites")

	if _, err := NewRuntimeFactory().GetRuntime(RuntimeDocker); err != nil {
		return fmt.Errorf("Docker prerequisite check failed: %w", err)
	}

	slog.Info("All prerequisites validated successfully")
	return nil
}
