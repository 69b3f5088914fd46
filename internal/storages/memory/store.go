package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/wal-g/s3rm/internal/deletion"
)

var (
	_ deletion.KeyLister    = &Store{}
	_ deletion.BatchDeleter = &Store{}
	_ deletion.StoreFactory = &Store{}
)

const AccessDeniedCode = "AccessDenied"

// Store is an in-memory bucket. Listing is lexicographic and capped like S3 ListObjectsV2.
// Throttling and refused keys can be injected to exercise the deletion engine.
type Store struct {
	bucket  string
	pageCap int
	kvs     *KVS

	mutex       sync.Mutex
	throttles   int
	denied      map[string]string
	listErr     error
	sessions    int32
	deleteCalls int32
}

func NewStore(bucket string, pageCap int, kvs *KVS) *Store {
	if pageCap <= 0 {
		pageCap = deletion.DefaultPageCap
	}
	return &Store{bucket: bucket, pageCap: pageCap, kvs: kvs, denied: map[string]string{}}
}

func (store *Store) Put(keys ...string) {
	for _, key := range keys {
		store.kvs.Store(key)
	}
}

func (store *Store) Exists(key string) bool {
	return store.kvs.Exists(key)
}

func (store *Store) Len() int {
	count := 0
	store.kvs.Range(func(string) bool {
		count++
		return true
	})
	return count
}

// ThrottleNext makes the following count delete calls fail with a slow down error.
func (store *Store) ThrottleNext(count int) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.throttles = count
}

// Deny makes every delete of key fail with the given error code.
func (store *Store) Deny(key, code string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.denied[key] = code
}

// FailListing makes every following listing fail with err.
func (store *Store) FailListing(err error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.listErr = err
}

// Sessions returns the number of deleters built by NewDeleter.
func (store *Store) Sessions() int {
	return int(atomic.LoadInt32(&store.sessions))
}

func (store *Store) DeleteCalls() int {
	return int(atomic.LoadInt32(&store.deleteCalls))
}

func (store *Store) Bucket() string {
	return store.bucket
}

func (store *Store) List(ctx context.Context, prefix string) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	store.mutex.Lock()
	listErr := store.listErr
	store.mutex.Unlock()
	if listErr != nil {
		return nil, false, listErr
	}

	var keys []string
	store.kvs.Range(func(key string) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)
	if len(keys) > store.pageCap {
		keys = keys[:store.pageCap]
	}
	return keys, len(keys) == store.pageCap, nil
}

func (store *Store) NewDeleter() (deletion.BatchDeleter, error) {
	atomic.AddInt32(&store.sessions, 1)
	return store, nil
}

func (store *Store) DeleteBatch(ctx context.Context, batch deletion.DeletionBatch) (deletion.DeletionResult, error) {
	atomic.AddInt32(&store.deleteCalls, 1)
	if err := ctx.Err(); err != nil {
		return deletion.DeletionResult{}, err
	}
	if len(batch.Keys) > deletion.MaxBatchSize {
		return deletion.DeletionResult{}, errors.Errorf("MalformedXML: %d keys exceed the limit of %d",
			len(batch.Keys), deletion.MaxBatchSize)
	}

	store.mutex.Lock()
	if store.throttles > 0 {
		store.throttles--
		store.mutex.Unlock()
		return deletion.DeletionResult{}, deletion.NewThrottlingError(errors.New("SlowDown: please reduce your request rate"))
	}
	denied := make(map[string]string, len(store.denied))
	for key, code := range store.denied {
		denied[key] = code
	}
	store.mutex.Unlock()

	result := deletion.DeletionResult{BatchIndex: batch.Index}
	for _, key := range batch.Keys {
		if code, ok := denied[key]; ok {
			result.Failed = append(result.Failed, deletion.KeyError{Key: key, Code: code, Message: "Access Denied"})
			continue
		}
		// deleting a missing key succeeds, as on S3
		store.kvs.Delete(key)
		result.Deleted++
	}
	return result, nil
}
