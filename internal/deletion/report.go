package deletion

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/table"
)

// PrefixReport aggregates the passes made over one target prefix.
type PrefixReport struct {
	Prefix        string
	Passes        int
	ChunkSize     int
	Listed        int
	Deleted       int
	FailedKeys    int
	FailedBatches int
	Throttled     int
}

// RunReport aggregates the outcome of a whole run.
type RunReport struct {
	// ID tells runs apart in logs and metrics.
	ID        string
	Prefixes  []*PrefixReport
	Aborted   bool
	Errors    []error
	KeyErrors []KeyError
	StartTime time.Time
	Duration  time.Duration
}

func NewRunReport() *RunReport {
	return &RunReport{ID: uuid.New().String(), StartTime: time.Now()}
}

func (report *RunReport) prefixReport(prefix string) *PrefixReport {
	for _, prefixReport := range report.Prefixes {
		if prefixReport.Prefix == prefix {
			return prefixReport
		}
	}
	prefixReport := &PrefixReport{Prefix: prefix}
	report.Prefixes = append(report.Prefixes, prefixReport)
	return prefixReport
}

// AddPass folds the results of one pass into the report and returns the number of deleted keys.
func (report *RunReport) AddPass(keySet *KeySet, results []DeletionResult) int {
	prefixReport := report.prefixReport(keySet.Prefix())
	prefixReport.Passes++
	prefixReport.ChunkSize = keySet.ChunkSize()
	prefixReport.Listed += keySet.Size()

	deleted := 0
	for _, result := range results {
		deleted += result.Deleted
		prefixReport.FailedKeys += len(result.Failed)
		prefixReport.Throttled += result.Throttled
		report.KeyErrors = append(report.KeyErrors, result.Failed...)
		if result.Err != nil {
			prefixReport.FailedBatches++
			report.Errors = append(report.Errors, result.Err)
		}
	}
	prefixReport.Deleted += deleted
	return deleted
}

// AddEmptyPass records a listing pass that found no keys.
func (report *RunReport) AddEmptyPass(prefix string) {
	report.prefixReport(prefix).Passes++
}

func (report *RunReport) Finish() {
	report.Duration = time.Since(report.StartTime)
}

func (report *RunReport) Deleted() int {
	deleted := 0
	for _, prefixReport := range report.Prefixes {
		deleted += prefixReport.Deleted
	}
	return deleted
}

// HasFailures reports whether any batch or key could not be deleted.
func (report *RunReport) HasFailures() bool {
	return len(report.Errors) > 0 || len(report.KeyErrors) > 0
}

func (report *RunReport) Render(output io.Writer) {
	writer := table.NewWriter()
	writer.SetOutputMirror(output)
	writer.SetTitle("Run " + report.ID)
	defer writer.Render()
	writer.AppendHeader(table.Row{"Prefix", "Passes", "Chunk size", "Listed", "Deleted", "Failed keys",
		"Failed batches", "Throttled"})
	for _, prefixReport := range report.Prefixes {
		writer.AppendRow(table.Row{prefixReport.Prefix, prefixReport.Passes, prefixReport.ChunkSize,
			prefixReport.Listed, prefixReport.Deleted, prefixReport.FailedKeys, prefixReport.FailedBatches,
			prefixReport.Throttled})
	}
	throttled := 0
	for _, prefixReport := range report.Prefixes {
		throttled += prefixReport.Throttled
	}
	writer.AppendFooter(table.Row{"Total", "", "", "", report.Deleted(), len(report.KeyErrors), len(report.Errors),
		throttled})
}
