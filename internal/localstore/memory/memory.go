package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/naochaLuwang/daciana-cart/internal/localstore"
)

// Ensure Storage implements the interface.
var _ localstore.Storage = (*Storage)(nil)

// Storage is an in-memory implementation of localstore.Storage, used in tests
// and for ephemeral sessions where nothing should outlive the process.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{values: make(map[string][]byte)}
}

// Get returns the value stored under key, or localstore.ErrNotFound.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, localstore.ErrNotFound)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value under key.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	return nil
}

// Remove deletes the value stored under key.
func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Has reports whether a value exists for key. Test helper.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}
