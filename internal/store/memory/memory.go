// Package memory is the in-memory store backend. It backs unit tests
// and is the fallback when no persistent backend can be opened: the
// engine keeps working for the rest of the process, the data just does
// not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/readmark/readmark/internal/domain"
)

// Store keeps every collection in a mutex-guarded map.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte // "<collection>/<userID>" -> blob
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

func key(collection, userID string) string {
	return collection + "/" + userID
}

// Get returns the blob for (collection, userID), or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, collection, userID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key(collection, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Copy so callers cannot mutate the stored blob.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores the blob for (collection, userID).
func (s *Store) Put(_ context.Context, collection, userID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[key(collection, userID)] = stored
	return nil
}

// Remove deletes the blob for (collection, userID). Removing a missing
// key is not an error.
func (s *Store) Remove(_ context.Context, collection, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key(collection, userID))
	return nil
}

// Close is a no-op for the memory backend.
func (s *Store) Close() error { return nil }

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
