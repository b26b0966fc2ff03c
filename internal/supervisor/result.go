package supervisor

// Sentinel exit codes for partitions whose container never produced one.
const (
	// LaunchFailureExitCode marks a partition whose container failed to launch.
	LaunchFailureExitCode = -1
	// WaitFailureExitCode marks a partition whose container could not be
	// waited to completion (cancellation, daemon loss).
	WaitFailureExitCode = -2
)

// RunResult is the terminal state of one test-group container.
type RunResult struct {
	Partition int   `json:"partition"`
	ExitCode  int   `json:"exit_code"`
	Err       error `json:"-"`
}

// Success reports whether this partition's container exited cleanly.
func (r RunResult) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Reduce combines per-group results into the overall run verdict: true iff
// every group succeeded. An empty result set is vacuously true; callers must
// not reach that state for a non-empty target set. Order-independent.
func Reduce(results []RunResult) bool {
	for _, result := range results {
		if !result.Success() {
			return false
		}
	}
	return true
}
