package deletion

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

// ErrStaleBatches is returned by a BatchIterator obtained before the key set was re-chunked.
var ErrStaleBatches = errors.New("key set was re-chunked after the batch sequence was obtained")

type ListingFailedError struct {
	error
}

func NewListingFailedError(err error, bucket, prefix string) ListingFailedError {
	return ListingFailedError{errors.Wrapf(err, "failed to list keys of bucket '%s' under prefix '%s'", bucket, prefix)}
}

func (err ListingFailedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func (err ListingFailedError) Unwrap() error {
	return err.error
}

// ThrottlingError marks a store error as a request to slow down.
// Stores return it so that the pool can retry the batch with a backoff.
type ThrottlingError struct {
	error
}

func NewThrottlingError(err error) ThrottlingError {
	return ThrottlingError{err}
}

func (err ThrottlingError) Unwrap() error {
	return err.error
}

func IsThrottling(err error) bool {
	var throttlingError ThrottlingError
	return errors.As(err, &throttlingError)
}

type ThrottlingExhaustedError struct {
	error
}

func NewThrottlingExhaustedError(err error, batchIndex, attempts int) ThrottlingExhaustedError {
	return ThrottlingExhaustedError{
		errors.Wrapf(err, "batch %d is still throttled after %d attempts", batchIndex, attempts)}
}

func (err ThrottlingExhaustedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func (err ThrottlingExhaustedError) Unwrap() error {
	return err.error
}

type BatchDeletionFailedError struct {
	error
}

func NewBatchDeletionFailedError(err error, batchIndex, keyCount int) BatchDeletionFailedError {
	return BatchDeletionFailedError{
		errors.Wrapf(err, "failed to delete batch %d of %d keys", batchIndex, keyCount)}
}

func (err BatchDeletionFailedError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func (err BatchDeletionFailedError) Unwrap() error {
	return err.error
}

type NoProgressError struct {
	error
}

func NewNoProgressError(prefix string, pass int, reason string) NoProgressError {
	return NoProgressError{
		errors.Errorf("deletion under prefix '%s' stopped making progress at pass %d: %s", prefix, pass, reason)}
}

func (err NoProgressError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}
