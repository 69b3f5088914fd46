package memory

import (
	"sync"
)

// KVS is supposed to be used for tests. It keeps key names only, never contents.
type KVS struct {
	underlying *sync.Map
}

func NewKVS() *KVS {
	return &KVS{underlying: &sync.Map{}}
}

func (storage *KVS) Exists(key string) bool {
	_, exists := storage.underlying.Load(key)
	return exists
}

func (storage *KVS) Store(key string) {
	storage.underlying.Store(key, struct{}{})
}

func (storage *KVS) Delete(key string) {
	storage.underlying.Delete(key)
}

func (storage *KVS) Range(callback func(key string) bool) {
	storage.underlying.Range(func(iKey, _ interface{}) bool {
		return callback(iKey.(string))
	})
}
