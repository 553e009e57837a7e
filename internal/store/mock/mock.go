// Package mock provides an in-memory store.Store for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/facegate/internal/identity"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu      sync.Mutex
	records []identity.Record

	// Error injection
	LoadError   error
	AppendError error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{}
}

// Seed replaces the stored records. Intended for test setup.
func (s *Store) Seed(records ...identity.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]identity.Record{}, records...)
}

// Load returns a copy of the stored records in insertion order.
func (s *Store) Load(ctx context.Context) ([]identity.Record, error) {
	if s.LoadError != nil {
		return nil, s.LoadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]identity.Record{}, s.records...), nil
}

// Append adds one record to the end of the sequence.
func (s *Store) Append(ctx context.Context, rec identity.Record) error {
	if s.AppendError != nil {
		return s.AppendError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.LoadError != nil {
		return 0, s.LoadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}
