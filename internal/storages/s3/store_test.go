package s3

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wal-g/s3rm/internal/deletion"
)

// Mock out S3 client. Includes these methods:
// ListObjectsV2WithContext(*ListObjectsV2Input)
// DeleteObjectsWithContext(*DeleteObjectsInput)
type mockS3Client struct {
	s3iface.S3API

	mutex      sync.Mutex
	objects    map[string]bool
	listErr    error
	deleteErr  error
	keyErrors  map[string]string
	lastList   *s3.ListObjectsV2Input
	lastDelete *s3.DeleteObjectsInput
}

func newMockS3Client(keys ...string) *mockS3Client {
	client := &mockS3Client{objects: map[string]bool{}, keyErrors: map[string]string{}}
	for _, key := range keys {
		client.objects[key] = true
	}
	return client
}

func (client *mockS3Client) ListObjectsV2WithContext(_ aws.Context, input *s3.ListObjectsV2Input,
	_ ...request.Option) (*s3.ListObjectsV2Output, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.lastList = input
	if client.listErr != nil {
		return nil, client.listErr
	}

	var keys []string
	for key := range client.objects {
		if strings.HasPrefix(key, aws.StringValue(input.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if int64(len(keys)) > aws.Int64Value(input.MaxKeys) {
		keys = keys[:aws.Int64Value(input.MaxKeys)]
	}
	output := &s3.ListObjectsV2Output{Name: input.Bucket, KeyCount: aws.Int64(int64(len(keys)))}
	for _, key := range keys {
		output.Contents = append(output.Contents, &s3.Object{Key: aws.String(key)})
	}
	return output, nil
}

func (client *mockS3Client) DeleteObjectsWithContext(_ aws.Context, input *s3.DeleteObjectsInput,
	_ ...request.Option) (*s3.DeleteObjectsOutput, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	client.lastDelete = input
	if client.deleteErr != nil {
		return nil, client.deleteErr
	}

	output := &s3.DeleteObjectsOutput{}
	for _, object := range input.Delete.Objects {
		key := aws.StringValue(object.Key)
		if code, ok := client.keyErrors[key]; ok {
			output.Errors = append(output.Errors, &s3.Error{Key: object.Key, Code: aws.String(code),
				Message: aws.String(code)})
			continue
		}
		delete(client.objects, key)
		if !aws.BoolValue(input.Delete.Quiet) {
			output.Deleted = append(output.Deleted, &s3.DeletedObject{Key: object.Key})
		}
	}
	return output, nil
}

func TestStoreList(t *testing.T) {
	t.Run("list at most one page", func(t *testing.T) {
		client := newMockS3Client("a/1", "a/2", "a/3", "b/1")
		store := NewStore(client, "bucket", 2)

		keys, capped, err := store.List(context.Background(), "a/")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/1", "a/2"}, keys)
		assert.True(t, capped)
		assert.Equal(t, "bucket", aws.StringValue(client.lastList.Bucket))
		assert.Equal(t, int64(2), aws.Int64Value(client.lastList.MaxKeys))
	})

	t.Run("partial page is not capped", func(t *testing.T) {
		client := newMockS3Client("a/1")
		store := NewStore(client, "bucket", 0)

		keys, capped, err := store.List(context.Background(), "a/")
		require.NoError(t, err)
		assert.Len(t, keys, 1)
		assert.False(t, capped)
		assert.Equal(t, int64(deletion.DefaultPageCap), aws.Int64Value(client.lastList.MaxKeys))
	})

	t.Run("wrap listing errors", func(t *testing.T) {
		client := newMockS3Client()
		client.listErr = awserr.New(s3.ErrCodeNoSuchBucket, "The specified bucket does not exist", nil)
		store := NewStore(client, "bucket", 0)

		_, _, err := store.List(context.Background(), "a/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), s3.ErrCodeNoSuchBucket)
	})
}

func TestStoreDeleteBatch(t *testing.T) {
	t.Run("quiet delete counts every key without error", func(t *testing.T) {
		client := newMockS3Client("a/1", "a/2", "a/3")
		client.keyErrors["a/2"] = "AccessDenied"
		store := NewStore(client, "bucket", 0)

		result, err := store.DeleteBatch(context.Background(),
			deletion.DeletionBatch{Index: 4, Keys: []string{"a/1", "a/2", "a/3"}, Quiet: true})
		require.NoError(t, err)
		assert.Equal(t, 4, result.BatchIndex)
		assert.Equal(t, 2, result.Deleted)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, deletion.KeyError{Key: "a/2", Code: "AccessDenied", Message: "AccessDenied"}, result.Failed[0])
		assert.True(t, aws.BoolValue(client.lastDelete.Delete.Quiet))
		assert.Len(t, client.lastDelete.Delete.Objects, 3)
	})

	t.Run("verbose delete counts deleted objects", func(t *testing.T) {
		client := newMockS3Client("a/1", "a/2")
		store := NewStore(client, "bucket", 0)

		result, err := store.DeleteBatch(context.Background(),
			deletion.DeletionBatch{Keys: []string{"a/1", "a/2"}})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Deleted)
		assert.Empty(t, client.objects)
	})

	t.Run("slow down is a throttling error", func(t *testing.T) {
		client := newMockS3Client("a/1")
		client.deleteErr = awserr.NewRequestFailure(
			awserr.New("SlowDown", "Please reduce your request rate.", nil), http.StatusServiceUnavailable, "id")
		store := NewStore(client, "bucket", 0)

		_, err := store.DeleteBatch(context.Background(), deletion.DeletionBatch{Keys: []string{"a/1"}, Quiet: true})
		require.Error(t, err)
		assert.True(t, deletion.IsThrottling(err))
	})

	t.Run("slow down for every key is a throttling error", func(t *testing.T) {
		client := newMockS3Client("a/1", "a/2")
		client.keyErrors["a/1"] = "SlowDown"
		client.keyErrors["a/2"] = "SlowDown"
		store := NewStore(client, "bucket", 0)

		_, err := store.DeleteBatch(context.Background(),
			deletion.DeletionBatch{Keys: []string{"a/1", "a/2"}, Quiet: true})
		require.Error(t, err)
		assert.True(t, deletion.IsThrottling(err))
	})

	t.Run("access denied is not a throttling error", func(t *testing.T) {
		client := newMockS3Client("a/1")
		client.deleteErr = awserr.NewRequestFailure(
			awserr.New("AccessDenied", "Access Denied", nil), http.StatusForbidden, "id")
		store := NewStore(client, "bucket", 0)

		_, err := store.DeleteBatch(context.Background(), deletion.DeletionBatch{Keys: []string{"a/1"}, Quiet: true})
		require.Error(t, err)
		assert.False(t, deletion.IsThrottling(err))
		assert.Contains(t, err.Error(), "AccessDenied")
	})
}

func TestIsThrottlingError(t *testing.T) {
	assert.True(t, isThrottlingError(awserr.New("SlowDown", "slow down", nil)))
	assert.True(t, isThrottlingError(awserr.New("RequestLimitExceeded", "limit", nil)))
	assert.True(t, isThrottlingError(errors.Wrap(awserr.New("Throttling", "throttled", nil), "wrapped")))
	assert.True(t, isThrottlingError(awserr.NewRequestFailure(awserr.New("ServiceUnavailable", "", nil),
		http.StatusServiceUnavailable, "id")))
	assert.False(t, isThrottlingError(awserr.New("NoSuchKey", "missing", nil)))
	assert.False(t, isThrottlingError(nil))
}
