// Package partition splits an ordered list of test targets into balanced,
// contiguous groups, one per container invocation.
package partition

import (
	"fmt"

	apperrors "shardci/internal/errors"
)

// Split divides targets into at most n contiguous partitions whose sizes
// differ by at most one. With len(targets) = q*n + r, the first r partitions
// receive q+1 targets and the rest receive q. Input order is preserved and
// empty partitions are never emitted, so n larger than len(targets) degrades
// to one singleton partition per target.
func Split(targets []string, n int) ([][]string, error) {
	if n <= 0 {
		return nil, apperrors.NewConfigError(
			"Invalid parallelism setting",
			fmt.Sprintf("parallelism must be a positive integer, got %d", n),
			"Set spec.parallelism to a value of 1 or greater",
			fmt.Errorf("invalid parallelism: %d", n),
		)
	}

	if len(targets) == 0 {
		return nil, nil
	}

	if n > len(targets) {
		n = len(targets)
	}

	q := len(targets) / n
	r := len(targets) % n

	partitions := make([][]string, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := q
		if i < r {
			size++
		}
		partitions = append(partitions, targets[start:start+size])
		start += size
	}

	return partitions, nil
}
