package deletion

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/wal-g/s3rm/internal/statistics"
	"github.com/wal-g/tracelog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultThrottleBackoff    = 5 * time.Second
	DefaultThrottleMaxBackoff = 2 * time.Minute
	DefaultThrottleMaxRetries = 10
)

// ProgressFunc is invoked exactly once per batch. Calls are serialized by the pool.
type ProgressFunc func(result DeletionResult)

type PoolConfig struct {
	Workers            int
	ThrottleBackoff    time.Duration
	ThrottleMaxBackoff time.Duration
	ThrottleMaxRetries uint64
}

func NewPoolConfig(workers int) PoolConfig {
	return PoolConfig{
		Workers:            workers,
		ThrottleBackoff:    DefaultThrottleBackoff,
		ThrottleMaxBackoff: DefaultThrottleMaxBackoff,
		ThrottleMaxRetries: DefaultThrottleMaxRetries,
	}
}

// WorkerPool deletes batches in parallel with a fixed number of workers.
// Every worker owns a deleter built by the factory when the pool starts.
type WorkerPool struct {
	factory StoreFactory
	config  PoolConfig
}

func NewWorkerPool(factory StoreFactory, config PoolConfig) *WorkerPool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &WorkerPool{factory: factory, config: config}
}

func (pool *WorkerPool) Workers() int {
	return pool.config.Workers
}

type deletionTask struct {
	position int
	batch    DeletionBatch
}

// Run deletes the batches and returns one result per batch, in the order of the input.
// An error is returned only when the workers could not be started.
func (pool *WorkerPool) Run(ctx context.Context, batches []DeletionBatch, progress ProgressFunc) ([]DeletionResult, error) {
	results := make([]DeletionResult, len(batches))
	if len(batches) == 0 {
		return results, nil
	}

	workers := pool.config.Workers
	if workers > len(batches) {
		workers = len(batches)
	}
	deleters := make([]BatchDeleter, 0, workers)
	for i := 0; i < workers; i++ {
		deleter, err := pool.factory.NewDeleter()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create store session for worker %d", i)
		}
		deleters = append(deleters, deleter)
	}

	var resultsMutex sync.Mutex
	record := func(position int, result DeletionResult) {
		resultsMutex.Lock()
		defer resultsMutex.Unlock()
		results[position] = result
		pool.writeMetrics(result)
		if progress != nil {
			progress(result)
		}
	}

	tasks := make(chan deletionTask)
	group, groupCtx := errgroup.WithContext(ctx)
	for _, deleter := range deleters {
		deleter := deleter
		group.Go(func() error {
			for task := range tasks {
				record(task.position, pool.deleteBatch(groupCtx, deleter, task.batch))
			}
			return nil
		})
	}

	dispatched := 0
dispatch:
	for position, batch := range batches {
		select {
		case tasks <- deletionTask{position: position, batch: batch}:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(tasks)
	_ = group.Wait()

	for position := dispatched; position < len(batches); position++ {
		record(position, DeletionResult{BatchIndex: batches[position].Index, Err: ctx.Err()})
	}
	return results, nil
}

func (pool *WorkerPool) newBackOff(ctx context.Context) backoff.BackOff {
	if pool.config.ThrottleMaxRetries == 0 {
		return &backoff.StopBackOff{}
	}
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = pool.config.ThrottleBackoff
	if pool.config.ThrottleMaxBackoff > 0 {
		exponential.MaxInterval = pool.config.ThrottleMaxBackoff
	}
	// the number of retries bounds the loop, not the elapsed time
	exponential.MaxElapsedTime = 0
	exponential.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exponential, pool.config.ThrottleMaxRetries), ctx)
}

// deleteBatch retries the batch while the store answers with throttling
// and gives up on any other failure.
func (pool *WorkerPool) deleteBatch(ctx context.Context, deleter BatchDeleter, batch DeletionBatch) DeletionResult {
	policy := pool.newBackOff(ctx)
	attempts, throttled := 0, 0
	for {
		attempts++
		result, err := deleter.DeleteBatch(ctx, batch)
		if err == nil {
			result.BatchIndex = batch.Index
			result.Attempts = attempts
			result.Throttled = throttled
			return result
		}

		failed := DeletionResult{BatchIndex: batch.Index, Attempts: attempts, Throttled: throttled}
		if !IsThrottling(err) {
			if ctx.Err() != nil {
				failed.Err = ctx.Err()
			} else {
				failed.Err = NewBatchDeletionFailedError(err, batch.Index, len(batch.Keys))
			}
			return failed
		}

		throttled++
		failed.Throttled = throttled
		statistics.Metrics.ThrottledBatchTotal.Inc()
		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			if ctx.Err() != nil {
				failed.Err = ctx.Err()
			} else {
				failed.Err = NewThrottlingExhaustedError(err, batch.Index, attempts)
			}
			return failed
		}

		tracelog.WarningLogger.Printf("Batch %d was throttled (attempt %d), retrying in %v", batch.Index, attempts, wait)
		if err := sleepWithContext(ctx, wait); err != nil {
			failed.Err = err
			return failed
		}
	}
}

func (pool *WorkerPool) writeMetrics(result DeletionResult) {
	statistics.Metrics.BatchesTotal.Inc()
	statistics.Metrics.DeletedKeysTotal.Add(float64(result.Deleted))
	statistics.Metrics.FailedKeysTotal.Add(float64(len(result.Failed)))
	if result.Err != nil {
		statistics.Metrics.FailedBatchesTotal.Inc()
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
