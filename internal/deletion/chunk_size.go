package deletion

// ComputeChunkSize spreads keys evenly across workers without exceeding maxBatch keys per batch.
// It returns 0 for an empty key set and at least 1 otherwise.
func ComputeChunkSize(workers, keys, maxBatch int) int {
	if keys <= 0 {
		return 0
	}
	if workers <= 0 {
		workers = 1
	}
	if maxBatch <= 0 {
		maxBatch = MaxBatchSize
	}

	size := keys / workers
	if size < 1 {
		return 1
	}
	if size > maxBatch {
		return maxBatch
	}
	return size
}
