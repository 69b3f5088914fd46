package deletion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wal-g/s3rm/internal/deletion"
)

func TestComputeChunkSize(t *testing.T) {
	testCases := []struct {
		workers  int
		keys     int
		maxBatch int
		expected int
	}{
		{8, 799, 1000, 99},
		{8, 800, 1000, 100},
		{8, 10000, 1000, 1000},
		{8, 1, 1000, 1},
		{8, 0, 1000, 0},
		{1, 1000, 1000, 1000},
		{0, 10, 1000, 10},
		{4, 5000, 0, 1000},
		{3, 10, 2, 2},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, deletion.ComputeChunkSize(tc.workers, tc.keys, tc.maxBatch),
			"workers=%d keys=%d maxBatch=%d", tc.workers, tc.keys, tc.maxBatch)
	}
}

func TestComputeChunkSizeNeverExceedsMaxBatch(t *testing.T) {
	for workers := 1; workers <= 16; workers++ {
		for keys := 1; keys <= 20000; keys += 997 {
			size := deletion.ComputeChunkSize(workers, keys, deletion.MaxBatchSize)
			assert.GreaterOrEqual(t, size, 1)
			assert.LessOrEqual(t, size, deletion.MaxBatchSize)
		}
	}
}
