package limited

import (
	"context"

	"github.com/wal-g/s3rm/internal/deletion"
	"golang.org/x/time/rate"
)

// Deleter waits for the limiter before every delete request, retries included.
type Deleter struct {
	deletion.BatchDeleter
	limiter *rate.Limiter
}

func NewDeleter(deleter deletion.BatchDeleter, limiter *rate.Limiter) *Deleter {
	return &Deleter{BatchDeleter: deleter, limiter: limiter}
}

func (deleter *Deleter) DeleteBatch(ctx context.Context, batch deletion.DeletionBatch) (deletion.DeletionResult, error) {
	if err := deleter.limiter.Wait(ctx); err != nil {
		return deletion.DeletionResult{}, err
	}
	return deleter.BatchDeleter.DeleteBatch(ctx, batch)
}

// StoreFactory shares one limiter between the deleters of every worker.
type StoreFactory struct {
	deletion.StoreFactory
	limiter *rate.Limiter
}

func NewStoreFactory(factory deletion.StoreFactory, limiter *rate.Limiter) *StoreFactory {
	return &StoreFactory{StoreFactory: factory, limiter: limiter}
}

func (factory *StoreFactory) NewDeleter() (deletion.BatchDeleter, error) {
	deleter, err := factory.StoreFactory.NewDeleter()
	if err != nil {
		return nil, err
	}
	return NewDeleter(deleter, factory.limiter), nil
}

// NewRequestLimiter allows requestsPerSecond requests with bursts of one per worker.
// A non positive rate disables the limit.
func NewRequestLimiter(requestsPerSecond float64, workers int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), workers)
}

// WrapFactory applies the limiter when one is configured.
func WrapFactory(factory deletion.StoreFactory, limiter *rate.Limiter) deletion.StoreFactory {
	if limiter == nil {
		return factory
	}
	return NewStoreFactory(factory, limiter)
}
