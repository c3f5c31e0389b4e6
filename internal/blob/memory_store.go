package blob

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in memory under memory:// URLs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, objectPath string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = append([]byte(nil), data...)
	return "memory://" + objectPath, nil
}

func (s *MemoryStore) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectPath]; !ok {
		return ErrNotFound
	}
	delete(s.objects, objectPath)
	return nil
}

// Get returns a stored object.
func (s *MemoryStore) Get(objectPath string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectPath]
	return data, ok
}
