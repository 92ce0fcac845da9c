package memory

import (
	"context"
	"sync"

	"github.com/jamiepg18/atinternet-android-sdk/pkg/storage"
)

// Store keeps values in memory. Data is lost on restart.
// Useful for testing and development.
type Store struct {
	values map[string]storage.Value
	closed bool
	mu     sync.RWMutex
}

// New creates an in-memory store
func New() *Store {
	return &Store{
		values: make(map[string]storage.Value),
	}
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) (storage.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Value{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.Value{}, false, storage.ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Commit applies every put of the batch under one lock
func (s *Store) Commit(ctx context.Context, batch *storage.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	for _, e := range batch.Entries() {
		s.values[e.Key] = e.Value
	}
	return nil
}

// Clear removes every value
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	s.values = make(map[string]storage.Value)
	return nil
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Close marks the store closed; later calls return storage.ErrClosed
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
