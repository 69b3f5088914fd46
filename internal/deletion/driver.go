package deletion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/wal-g/s3rm/internal/statistics"
	"github.com/wal-g/tracelog"
)

type State int

const (
	StateIdle State = iota
	StateListing
	StateConfirming
	StateDeleting
	StateDone
	// StateAborted follows a refused confirmation.
	StateAborted
	// StateFailed follows a listing, confirmation or session error.
	StateFailed
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "Idle"
	case StateListing:
		return "Listing"
	case StateConfirming:
		return "Confirming"
	case StateDeleting:
		return "Deleting"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

type DriverConfig struct {
	// Prefixes are listed one after another, each until no key remains.
	Prefixes []string
	// ChunkSize overrides the computed batch size when positive.
	ChunkSize int
	// FixedChunkSize forces every batch to the maximum size, ChunkSize is then ignored.
	FixedChunkSize bool
	// Force skips the confirmation.
	Force bool
	// MaxPasses bounds the listing passes per prefix, 0 means unlimited.
	MaxPasses int
}

// Driver lists every target prefix, asks for one confirmation covering all of them,
// then alternates deletion passes and listing passes until the prefixes are empty.
type Driver struct {
	lister       KeyLister
	pool         *WorkerPool
	confirmer    Confirmer
	config       DriverConfig
	state        State
	requests     int
	onTransition func(from, to State)
}

func NewDriver(lister KeyLister, pool *WorkerPool, confirmer Confirmer, config DriverConfig) *Driver {
	if confirmer == nil {
		confirmer = ForcedConfirmer{}
	}
	return &Driver{
		lister:    lister,
		pool:      pool,
		confirmer: confirmer,
		config:    config,
		state:     StateIdle,
	}
}

// SetTransitionHook registers a function called on every state change.
func (driver *Driver) SetTransitionHook(hook func(from, to State)) {
	driver.onTransition = hook
}

func (driver *Driver) State() State {
	return driver.state
}

func (driver *Driver) transition(to State) {
	from := driver.state
	driver.state = to
	tracelog.DebugLogger.Printf("Deletion state: %s -> %s", from, to)
	if driver.onTransition != nil {
		driver.onTransition(from, to)
	}
}

// Run deletes every key under the configured prefixes.
// A refused confirmation is not an error: the report is marked as aborted.
func (driver *Driver) Run(ctx context.Context) (*RunReport, error) {
	report := NewRunReport()
	defer report.Finish()

	keySets, err := driver.listTargets(ctx, report)
	if err != nil {
		driver.transition(StateFailed)
		return report, err
	}
	if len(keySets) == 0 {
		driver.transition(StateDone)
		return report, nil
	}

	if !driver.config.Force {
		driver.transition(StateConfirming)
		ok, err := driver.confirmer.Confirm(Summarize(keySets))
		if err != nil {
			driver.transition(StateFailed)
			return report, errors.Wrap(err, "confirmation failed")
		}
		if !ok {
			driver.transition(StateAborted)
			report.Aborted = true
			return report, nil
		}
	}

	for _, keySet := range keySets {
		if err := driver.deletePrefix(ctx, keySet, report); err != nil {
			driver.transition(StateFailed)
			return report, err
		}
	}
	return report, nil
}

// listTargets runs the first listing pass of every prefix and chunks the non-empty ones.
func (driver *Driver) listTargets(ctx context.Context, report *RunReport) ([]*KeySet, error) {
	var keySets []*KeySet
	for _, prefix := range driver.config.Prefixes {
		report.prefixReport(prefix)
		keySet, err := driver.list(ctx, prefix)
		if err != nil {
			return nil, err
		}
		if keySet.Size() == 0 {
			tracelog.InfoLogger.Printf("Nothing to delete under prefix '%s' of bucket '%s'", prefix, keySet.Bucket())
			report.AddEmptyPass(prefix)
			continue
		}
		if err := keySet.Chunk(driver.chunkSize(keySet.Size())); err != nil {
			return nil, err
		}
		keySets = append(keySets, keySet)
	}
	return keySets, nil
}

func (driver *Driver) list(ctx context.Context, prefix string) (*KeySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	driver.transition(StateListing)
	keySet, err := ListKeySet(ctx, driver.lister, prefix)
	if err != nil {
		return nil, err
	}
	statistics.Metrics.ListingPassesTotal.Inc()
	statistics.Metrics.ListedKeysTotal.Add(float64(keySet.Size()))
	return keySet, nil
}

// deletePrefix deletes the first pass of a prefix and keeps listing it while pages come back full.
// Later passes reuse the chunk size of the first one.
func (driver *Driver) deletePrefix(ctx context.Context, keySet *KeySet, report *RunReport) error {
	prefix := keySet.Prefix()
	chunkSize := keySet.ChunkSize()
	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if driver.config.MaxPasses > 0 && pass > driver.config.MaxPasses {
			return NewNoProgressError(prefix, pass, "maximum number of listing passes reached")
		}

		if pass > 1 {
			var err error
			keySet, err = driver.list(ctx, prefix)
			if err != nil {
				return err
			}
			if keySet.Size() == 0 {
				report.AddEmptyPass(prefix)
				driver.transition(StateDone)
				return nil
			}
			if err := keySet.Chunk(chunkSize); err != nil {
				return err
			}
		}

		driver.transition(StateDeleting)
		tracelog.InfoLogger.Printf("Pass %d: deleting %d keys under '%s' in batches of %d with %d workers",
			pass, keySet.Size(), prefix, chunkSize, driver.pool.Workers())
		batches, err := keySet.Batches().All()
		if err != nil {
			return err
		}
		results, err := driver.pool.Run(ctx, batches, driver.logProgress)
		if err != nil {
			return err
		}
		deleted := report.AddPass(keySet, results)

		if !keySet.Capped() {
			driver.transition(StateDone)
			return nil
		}
		if deleted == 0 {
			failures := describeFailures(results)
			tracelog.WarningLogger.Printf("Pass %d under '%s' deleted no key: %s", pass, prefix, failures)
			return NewNoProgressError(prefix, pass,
				"a full listing page was returned but no key was deleted, failures: "+failures)
		}
	}
}

func (driver *Driver) chunkSize(keyCount int) int {
	if driver.config.FixedChunkSize {
		return MaxBatchSize
	}
	if driver.config.ChunkSize > 0 {
		return driver.config.ChunkSize
	}
	return ComputeChunkSize(driver.pool.Workers(), keyCount, MaxBatchSize)
}

func (driver *Driver) logProgress(result DeletionResult) {
	driver.requests++
	switch {
	case result.Err != nil:
		tracelog.ErrorLogger.Printf("Batch %d failed: %v", result.BatchIndex, result.Err)
	case result.Partial():
		tracelog.WarningLogger.Printf("Batch %d: %d keys deleted, %d keys failed", result.BatchIndex,
			result.Deleted, len(result.Failed))
		for _, keyError := range result.Failed {
			tracelog.DebugLogger.Printf("Failed to delete '%s': %s %s", keyError.Key, keyError.Code, keyError.Message)
		}
	default:
		tracelog.InfoLogger.Printf("Number of requests: %d, batch %d deleted %d keys", driver.requests,
			result.BatchIndex, result.Deleted)
	}
}

// describeFailures counts the failed keys of a pass by error code, plus the failed batches.
func describeFailures(results []DeletionResult) string {
	counts := map[string]int{}
	failedBatches := 0
	for _, result := range results {
		if result.Err != nil {
			failedBatches++
		}
		for _, keyError := range result.Failed {
			counts[keyError.Code]++
		}
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	parts := make([]string, 0, len(codes)+1)
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s on %d keys", code, counts[code]))
	}
	if failedBatches > 0 {
		parts = append(parts, fmt.Sprintf("%d failed requests", failedBatches))
	}
	if len(parts) == 0 {
		return "none reported"
	}
	return strings.Join(parts, ", ")
}
