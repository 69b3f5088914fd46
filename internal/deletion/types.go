package deletion

//go:generate mockgen -source=types.go -destination=mocks/mock_deletion.go -package=mocks

import "context"

const (
	// MaxBatchSize is the maximum number of keys accepted by one DeleteObjects call.
	MaxBatchSize = 1000
	// DefaultPageCap is the maximum number of keys returned by one listing call.
	DefaultPageCap = 1000
)

// DeletionBatch is a contiguous slice of a key set handed to one delete call.
type DeletionBatch struct {
	Index int
	Keys  []string
	Quiet bool
}

// KeyError describes a key the store refused to delete while accepting the call.
type KeyError struct {
	Key     string
	Code    string
	Message string
}

// DeletionResult is the outcome of one batch.
// Err is set when the whole call failed, Failed holds per-key failures of a valid call.
type DeletionResult struct {
	BatchIndex int
	Deleted    int
	Failed     []KeyError
	Err        error
	Attempts   int
	Throttled  int
}

func (result DeletionResult) Partial() bool {
	return result.Err == nil && len(result.Failed) > 0
}

func (result DeletionResult) Succeeded() bool {
	return result.Err == nil && len(result.Failed) == 0
}

// KeyLister performs one listing pass under a prefix.
// It returns at most one page of keys and reports whether the page was full.
type KeyLister interface {
	List(ctx context.Context, prefix string) (keys []string, capped bool, err error)
	Bucket() string
}

// BatchDeleter issues one bulk delete request per batch.
// A returned error means the whole call failed; per-key failures live in the result.
type BatchDeleter interface {
	DeleteBatch(ctx context.Context, batch DeletionBatch) (DeletionResult, error)
}

// StoreFactory builds a new deleter with its own store session.
type StoreFactory interface {
	NewDeleter() (BatchDeleter, error)
}
