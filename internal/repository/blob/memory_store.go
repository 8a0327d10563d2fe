package blob

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in process memory. It honors generation
// preconditions the same way the bucket does.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	next    int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

// Get returns a copy of the stored object.
func (s *MemoryStore) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, &StorageError{Op: "get", Key: key, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{Data: append([]byte(nil), obj.Data...), Generation: obj.Generation}, nil
}

// Put stores a copy of data under key.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte, opts ...PutOption) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	o := buildPutOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if o.Conditional && s.objects[key].Generation != o.IfGenerationMatch {
		return ErrPreconditionFailed
	}

	s.next++
	s.objects[key] = Object{Data: append([]byte(nil), data...), Generation: s.next}
	return nil
}

// Keys lists the stored keys.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
