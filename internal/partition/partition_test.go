package partition

import (
	"errors"
	"fmt"
	"testing"

	apperrors "shardci/internal/errors"
)

func makeTargets(n int) []string {
	targets := make([]string, n)
	for i := range targets {
		targets[i] = fmt.Sprintf("//test:target_%d", i)
	}
	return targets
}

func TestSplit_BalancedSizes(t *testing.T) {
	tests := []struct {
		name        string
		numTargets  int
		parallelism int
		wantSizes   []int
	}{
		{
			name:        "ten targets into three groups",
			numTargets:  10,
			parallelism: 3,
			wantSizes:   []int{4, 3, 3},
		},
		{
			name:        "even split",
			numTargets:  9,
			parallelism: 3,
			wantSizes:   []int{3, 3, 3},
		},
		{
			name:        "single group",
			numTargets:  5,
			parallelism: 1,
			wantSizes:   []int{5},
		},
		{
			name:        "more groups than targets degrades to singletons",
			numTargets:  3,
			parallelism: 10,
			wantSizes:   []int{1, 1, 1},
		},
		{
			name:        "remainder spread over leading groups",
			numTargets:  7,
			parallelism: 4,
			wantSizes:   []int{2, 2, 2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets := makeTargets(tt.numTargets)
			partitions, err := Split(targets, tt.parallelism)
			if err != nil {
				t.Fatalf("Split returned unexpected error: %v", err)
			}

			if len(partitions) != len(tt.wantSizes) {
				t.Fatalf("Expected %d partitions, got %d", len(tt.wantSizes), len(partitions))
			}

			for i, p := range partitions {
				if len(p) != tt.wantSizes[i] {
					t.Errorf("Partition %d: expected size %d, got %d", i, tt.wantSizes[i], len(p))
				}
				if len(p) == 0 {
					t.Errorf("Partition %d is empty", i)
				}
			}
		})
	}
}

func TestSplit_FlattenedConcatenationEqualsInput(t *testing.T) {
	for _, parallelism := range []int{1, 2, 3, 5, 7, 16, 100} {
		targets := makeTargets(23)
		partitions, err := Split(targets, parallelism)
		if err != nil {
			t.Fatalf("Split(23 targets, %d) returned error: %v", parallelism, err)
		}

		var flattened []string
		for _, p := range partitions {
			flattened = append(flattened, p...)
		}

		if len(flattened) != len(targets) {
			t.Fatalf("parallelism %d: flattened length %d, want %d", parallelism, len(flattened), len(targets))
		}
		for i := range targets {
			if flattened[i] != targets[i] {
				t.Errorf("parallelism %d: flattened[%d] = %q, want %q", parallelism, i, flattened[i], targets[i])
			}
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	partitions, err := Split(nil, 4)
	if err != nil {
		t.Fatalf("Split with empty input returned error: %v", err)
	}
	if len(partitions) != 0 {
		t.Errorf("Expected zero partitions for empty input, got %d", len(partitions))
	}
}

func TestSplit_InvalidParallelism(t *testing.T) {
	for _, parallelism := range []int{0, -1, -100} {
		_, err := Split(makeTargets(5), parallelism)
		if err == nil {
			t.Fatalf("Split with parallelism %d should fail", parallelism)
		}
		if !errors.Is(err, apperrors.ErrConfigInvalid) {
			t.Errorf("Split with parallelism %d: expected configuration error, got %v", parallelism, err)
		}
	}
}
