package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wal-g/s3rm/internal/deletion"
)

func TestKVSDelete(t *testing.T) {
	kvs := NewKVS()
	kvs.Store("a")

	assert.True(t, kvs.Exists("a"))
	kvs.Delete("a")
	assert.False(t, kvs.Exists("a"))
	kvs.Delete("a")
	assert.False(t, kvs.Exists("a"))
}

func TestStoreListIsSortedAndCapped(t *testing.T) {
	store := NewStore("bucket", 3, NewKVS())
	store.Put("p/c", "p/a", "p/d", "p/b", "q/a")

	keys, capped, err := store.List(context.Background(), "p/")
	require.NoError(t, err)
	assert.Equal(t, []string{"p/a", "p/b", "p/c"}, keys)
	assert.True(t, capped)

	keys, capped, err = store.List(context.Background(), "q/")
	require.NoError(t, err)
	assert.Equal(t, []string{"q/a"}, keys)
	assert.False(t, capped)
}

func TestStoreDefaultPageCap(t *testing.T) {
	store := NewStore("bucket", 0, NewKVS())
	for i := 0; i < deletion.DefaultPageCap+5; i++ {
		store.Put(fmt.Sprintf("k/%04d", i))
	}
	keys, capped, err := store.List(context.Background(), "k/")
	require.NoError(t, err)
	assert.Len(t, keys, deletion.DefaultPageCap)
	assert.True(t, capped)
}

func TestStoreListFailure(t *testing.T) {
	store := NewStore("bucket", 10, NewKVS())
	store.FailListing(errors.New("AccessDenied"))
	_, _, err := store.List(context.Background(), "")
	assert.Error(t, err)
}

func TestStoreDeleteBatch(t *testing.T) {
	store := NewStore("bucket", 10, NewKVS())
	store.Put("a", "b", "c")
	store.Deny("b", AccessDeniedCode)

	result, err := store.DeleteBatch(context.Background(), deletion.DeletionBatch{Index: 7, Keys: []string{"a", "b", "missing"}})
	require.NoError(t, err)
	assert.Equal(t, 7, result.BatchIndex)
	assert.Equal(t, 2, result.Deleted)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, deletion.KeyError{Key: "b", Code: AccessDeniedCode, Message: "Access Denied"}, result.Failed[0])
	assert.False(t, store.Exists("a"))
	assert.True(t, store.Exists("b"))
	assert.True(t, store.Exists("c"))
}

func TestStoreDeleteBatchThrottled(t *testing.T) {
	store := NewStore("bucket", 10, NewKVS())
	store.Put("a")
	store.ThrottleNext(1)

	_, err := store.DeleteBatch(context.Background(), deletion.DeletionBatch{Keys: []string{"a"}})
	assert.True(t, deletion.IsThrottling(err))
	assert.True(t, store.Exists("a"))

	result, err := store.DeleteBatch(context.Background(), deletion.DeletionBatch{Keys: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 2, store.DeleteCalls())
}

func TestStoreDeleteBatchTooLarge(t *testing.T) {
	store := NewStore("bucket", 10, NewKVS())
	keys := make([]string, deletion.MaxBatchSize+1)
	for i := range keys {
		keys[i] = fmt.Sprintf("k/%04d", i)
	}
	_, err := store.DeleteBatch(context.Background(), deletion.DeletionBatch{Keys: keys})
	assert.Error(t, err)
	assert.False(t, deletion.IsThrottling(err))
}

func TestStoreSessions(t *testing.T) {
	store := NewStore("bucket", 10, NewKVS())
	for i := 0; i < 3; i++ {
		_, err := store.NewDeleter()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Sessions())
}
