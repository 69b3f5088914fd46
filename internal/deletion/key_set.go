package deletion

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// KeySet holds the keys returned by exactly one listing pass.
type KeySet struct {
	prefix     string
	bucket     string
	capped     bool
	keys       []string
	chunkSize  int
	generation int
}

// NewKeySet wraps one listing page. capped tells whether the lister filled the whole page.
func NewKeySet(prefix, bucket string, keys []string, capped bool) *KeySet {
	return &KeySet{
		prefix:    prefix,
		bucket:    bucket,
		capped:    capped,
		keys:      keys,
		chunkSize: 1,
	}
}

// ListKeySet runs one listing pass and wraps its outcome into a KeySet.
func ListKeySet(ctx context.Context, lister KeyLister, prefix string) (*KeySet, error) {
	keys, capped, err := lister.List(ctx, prefix)
	if err != nil {
		return nil, NewListingFailedError(err, lister.Bucket(), prefix)
	}
	return NewKeySet(prefix, lister.Bucket(), keys, capped), nil
}

func (keySet *KeySet) Size() int {
	return len(keySet.keys)
}

func (keySet *KeySet) Prefix() string {
	return keySet.prefix
}

func (keySet *KeySet) Bucket() string {
	return keySet.bucket
}

func (keySet *KeySet) ChunkSize() int {
	return keySet.chunkSize
}

// Capped reports whether the listing filled a whole page, so more keys may remain in the store.
func (keySet *KeySet) Capped() bool {
	return keySet.capped
}

// Chunk sets the batch size. Iterators obtained before the call become stale.
func (keySet *KeySet) Chunk(size int) error {
	if size < 1 {
		return errors.Errorf("chunk size must be a positive integer, got %d", size)
	}
	keySet.chunkSize = size
	keySet.generation++
	return nil
}

func (keySet *KeySet) Batches() *BatchIterator {
	return &BatchIterator{
		keySet:     keySet,
		generation: keySet.generation,
		chunkSize:  keySet.chunkSize,
	}
}

func (keySet *KeySet) String() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Number of keys: %d\n", keySet.Size())
	fmt.Fprintf(&builder, "Chunk size: %d\n", keySet.chunkSize)
	fmt.Fprintf(&builder, "Prefix: %s\n", keySet.prefix)
	fmt.Fprintf(&builder, "Bucket name: %s", keySet.bucket)
	return builder.String()
}

// Summarize describes the first listing pass of every target prefix, for the confirmation.
func Summarize(keySets []*KeySet) string {
	var builder strings.Builder
	total := 0
	for i, keySet := range keySets {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(keySet.String())
		if keySet.Capped() {
			builder.WriteString("\nMore keys may remain under this prefix")
		}
		total += keySet.Size()
	}
	if len(keySets) > 1 {
		fmt.Fprintf(&builder, "\n\nTotal number of listed keys: %d under %d prefixes", total, len(keySets))
	}
	return builder.String()
}

// BatchIterator yields the batches of a key set lazily, in listing order.
type BatchIterator struct {
	keySet     *KeySet
	generation int
	chunkSize  int
	offset     int
	index      int
}

// Next returns the following batch. The boolean is false once the key set is exhausted.
func (iterator *BatchIterator) Next() (DeletionBatch, bool, error) {
	if iterator.generation != iterator.keySet.generation {
		return DeletionBatch{}, false, ErrStaleBatches
	}
	keys := iterator.keySet.keys
	if iterator.offset >= len(keys) {
		return DeletionBatch{}, false, nil
	}

	end := iterator.offset + iterator.chunkSize
	if end > len(keys) {
		end = len(keys)
	}
	batchKeys := make([]string, end-iterator.offset)
	copy(batchKeys, keys[iterator.offset:end])

	batch := DeletionBatch{Index: iterator.index, Keys: batchKeys, Quiet: true}
	iterator.offset = end
	iterator.index++
	return batch, true, nil
}

// All drains the iterator.
func (iterator *BatchIterator) All() ([]DeletionBatch, error) {
	var batches []DeletionBatch
	for {
		batch, ok, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return batches, nil
		}
		batches = append(batches, batch)
	}
}
