package blob

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/raphco/materia/core"
)

// InmemStore is the test double; it keeps blobs in memory.
type InmemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ core.BlobStore = (*InmemStore)(nil)

func NewInmemStore() *InmemStore {
	return &InmemStore{blobs: make(map[string][]byte)}
}

func (s *InmemStore) Upload(ctx context.Context, content []byte, mediaType, suggestedName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := fmt.Sprintf("mem://%s/%s", uuid.New().String(), sanitizeName(suggestedName))
	s.blobs[url] = append([]byte(nil), content...)
	return url, nil
}

// Len returns the number of stored blobs for test assertions.
func (s *InmemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Get returns a stored blob for test assertions.
func (s *InmemStore) Get(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[url]
	return b, ok
}
