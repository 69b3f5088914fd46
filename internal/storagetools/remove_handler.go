package storagetools

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/wal-g/s3rm/internal/config"
	"github.com/wal-g/s3rm/internal/deletion"
	"github.com/wal-g/s3rm/internal/limited"
	"github.com/wal-g/tracelog"
)

// HandleRemove deletes every key under the prefixes of options and renders the run report to out.
// The confirmation is read from in unless options.Force is set.
func HandleRemove(ctx context.Context, options *config.Options, lister deletion.KeyLister,
	factory deletion.StoreFactory, in io.Reader, out io.Writer) (*deletion.RunReport, error) {
	if options.Filter != nil {
		tracelog.InfoLogger.Printf("Restricting the deletion with %s", options.Filter)
	}

	limiter := limited.NewRequestLimiter(options.MaxRPS, options.Threads)
	pool := deletion.NewWorkerPool(limited.WrapFactory(factory, limiter), options.PoolConfig())

	var confirmer deletion.Confirmer = deletion.ForcedConfirmer{}
	if !options.Force {
		confirmer = deletion.NewPromptConfirmer(in, out)
	}

	driver := deletion.NewDriver(lister, pool, confirmer, options.DriverConfig())
	report, err := driver.Run(ctx)
	if report != nil {
		report.Render(out)
	}
	if err != nil {
		return report, errors.Wrapf(err, "failed to delete prefix '%s' in bucket '%s'",
			options.Prefix, lister.Bucket())
	}
	if report.Aborted {
		tracelog.InfoLogger.Println("Deletion aborted, no key was deleted")
		return report, nil
	}
	tracelog.InfoLogger.Printf("Run %s deleted %d keys with %d workers in %v",
		report.ID, report.Deleted(), pool.Workers(), report.Duration)
	if report.HasFailures() {
		tracelog.WarningLogger.Printf("%d keys could not be deleted", len(report.KeyErrors))
		for _, keyError := range report.KeyErrors {
			tracelog.DebugLogger.Printf("%s: %s %s", keyError.Key, keyError.Code, keyError.Message)
		}
	}
	return report, nil
}
