// Package supervisor fans out one container per run spec, waits for every
// container to finish, and reduces the exit codes into a run verdict.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shardci/internal/runner"
	"shardci/pkg/runtime"
)

// stopGracePeriod bounds how long reaping a cancelled container may take.
const stopGracePeriod = 30 * time.Second

// Launcher starts one test-group container. Satisfied by *runner.GroupRunner.
type Launcher interface {
	Run(ctx context.Context, spec runner.RunSpec) (runtime.Handle, error)
}

// Supervise launches every spec before waiting on any of them, then waits on
// every obtained handle to completion. Parallelism is bounded only by the
// number of specs. A launch failure is recorded as a failed result for that
// partition without aborting the others; no handle is ever dropped, so the
// returned slice always holds one result per spec.
func Supervise(ctx context.Context, launcher Launcher, specs []runner.RunSpec) []RunResult {
	handles := make([]runtime.Handle, len(specs))
	results := make([]RunResult, len(specs))

	// Fan-out: collect all handles before waiting on any.
	for i, spec := range specs {
		handle, err := launcher.Run(ctx, spec)
		if err != nil {
			slog.Error("Test group failed to launch", "partition", i, "error", err)
			results[i] = RunResult{Partition: i, ExitCode: LaunchFailureExitCode, Err: err}
			continue
		}
		handles[i] = handle
		slog.Info("Test group launched", "partition", i, "targets", len(spec.Targets))
	}

	// Fan-in: the only synchronization point is this join.
	var wg sync.WaitGroup
	for i, handle := range handles {
		if handle == nil {
			continue
		}
		wg.Add(1)
		go func(partition int, handle runtime.Handle) {
			defer wg.Done()
			results[partition] = waitOne(ctx, partition, handle)
		}(i, handle)
	}
	wg.Wait()

	return results
}

// waitOne blocks for one container's exit code. On cancellation the
// container is stopped and reaped under a fresh context so the supervisor
// never orphans a process, and the partition reads as failed.
func waitOne(ctx context.Context, partition int, handle runtime.Handle) RunResult {
	exitCode, err := handle.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopGracePeriod)
			defer cancel()
			if stopErr := handle.Stop(stopCtx); stopErr != nil {
				slog.Error("Failed to stop container after cancellation", "partition", partition, "error", stopErr)
			}
		}
		slog.Error("Test group wait failed", "partition", partition, "error", err)
		if exitCode == 0 {
			exitCode = WaitFailureExitCode
		}
		return RunResult{Partition: partition, ExitCode: exitCode, Err: err}
	}

	slog.Info("Test group finished", "partition", partition, "exitCode", exitCode)
	return RunResult{Partition: partition, ExitCode: exitCode}
}
