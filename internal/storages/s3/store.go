package s3

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/wal-g/s3rm/internal/deletion"
)

var errAllKeysThrottled = errors.New("SlowDown returned for every key of the batch")

var (
	_ deletion.KeyLister    = &Store{}
	_ deletion.BatchDeleter = &Store{}
	_ deletion.StoreFactory = &StoreFactory{}
)

// Store lists and deletes keys of one bucket through its own session.
type Store struct {
	S3API   s3iface.S3API
	bucket  string
	pageCap int
}

func NewStore(s3API s3iface.S3API, bucket string, pageCap int) *Store {
	if pageCap <= 0 {
		pageCap = deletion.DefaultPageCap
	}
	return &Store{S3API: s3API, bucket: bucket, pageCap: pageCap}
}

func newStoreFromSession(sess *session.Session, config Config) *Store {
	return NewStore(s3.New(sess), config.Bucket, config.PageCap)
}

// Configure builds the listing store and a factory of deletion stores sharing its resolved region.
func Configure(config Config) (*Store, *StoreFactory, error) {
	sess, err := createSession(config)
	if err != nil {
		return nil, nil, err
	}
	config.Region = aws.StringValue(sess.Config.Region)
	return newStoreFromSession(sess, config), NewStoreFactory(config), nil
}

func (store *Store) Bucket() string {
	return store.bucket
}

// List returns the first page of keys under prefix. Deleting them makes the next page come first.
func (store *Store) List(ctx context.Context, prefix string) ([]string, bool, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(store.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(int64(store.pageCap)),
	}
	output, err := store.S3API.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, false, NewError(err, "failed to list objects under '%s'", prefix)
	}

	keys := make([]string, 0, len(output.Contents))
	for _, object := range output.Contents {
		keys = append(keys, aws.StringValue(object.Key))
	}
	return keys, len(keys) >= store.pageCap, nil
}

func (store *Store) DeleteBatch(ctx context.Context, batch deletion.DeletionBatch) (deletion.DeletionResult, error) {
	objects := make([]*s3.ObjectIdentifier, len(batch.Keys))
	for i, key := range batch.Keys {
		objects[i] = &s3.ObjectIdentifier{Key: aws.String(key)}
	}
	input := &s3.DeleteObjectsInput{
		Bucket: aws.String(store.bucket),
		Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(batch.Quiet)},
	}

	output, err := store.S3API.DeleteObjectsWithContext(ctx, input)
	if err != nil {
		wrapped := NewError(err, "failed to delete %d objects", len(batch.Keys))
		if isThrottlingError(err) {
			return deletion.DeletionResult{}, deletion.NewThrottlingError(wrapped)
		}
		return deletion.DeletionResult{}, wrapped
	}

	result := deletion.DeletionResult{BatchIndex: batch.Index}
	throttledKeys := 0
	for _, objectError := range output.Errors {
		code := aws.StringValue(objectError.Code)
		if isThrottlingCode(code) {
			throttledKeys++
		}
		result.Failed = append(result.Failed, deletion.KeyError{
			Key:     aws.StringValue(objectError.Key),
			Code:    code,
			Message: aws.StringValue(objectError.Message),
		})
	}
	if batch.Quiet {
		// quiet responses only list the failed keys
		result.Deleted = len(batch.Keys) - len(result.Failed)
	} else {
		result.Deleted = len(output.Deleted)
	}

	if throttledKeys > 0 && throttledKeys == len(batch.Keys) {
		return deletion.DeletionResult{}, deletion.NewThrottlingError(
			NewError(errAllKeysThrottled, "%d objects", len(batch.Keys)))
	}
	return result, nil
}

// StoreFactory builds a new session for every deleter.
type StoreFactory struct {
	config Config
}

func NewStoreFactory(config Config) *StoreFactory {
	return &StoreFactory{config: config}
}

func (factory *StoreFactory) NewDeleter() (deletion.BatchDeleter, error) {
	sess, err := createSession(factory.config)
	if err != nil {
		return nil, err
	}
	return newStoreFromSession(sess, factory.config), nil
}
