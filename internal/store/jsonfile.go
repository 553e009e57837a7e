package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/kozaktomas/facegate/internal/identity"
)

// JSONStore persists identity records as a single pretty-printed JSON array.
// Append rewrites the whole file (read-all, add-one, write-all); the format
// is compatible with store files produced by earlier versions.
//
// The mutex serializes calls through one JSONStore value. Concurrent
// processes writing the same file can still lose updates (last full rewrite
// wins) - known limitation of the single-file design.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a store backed by the given file path.
func NewJSONStore(path string) *JSONStore {
	if path == "" {
		path = DefaultPath
	}
	return &JSONStore{path: path}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and parses the backing file. A missing file yields an empty
// sequence. Unparsable content also yields an empty sequence, loudly: the
// corrupt data would be discarded by the next append, so the recovery is
// logged rather than silent.
func (s *JSONStore) Load(ctx context.Context) ([]identity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load is the lock-free implementation shared by Load and Append.
func (s *JSONStore) load() ([]identity.Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []identity.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, s.path, err)
	}

	var records []identity.Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("Warning: identity store %s is corrupt, starting empty: %v", s.path, err)
		return []identity.Record{}, nil
	}
	return records, nil
}

// Append loads the current sequence, pushes rec onto the end, and rewrites
// the entire file. Load failures abort before anything is written so an
// unreadable store is never clobbered.
func (s *JSONStore) Append(ctx context.Context, rec identity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing identity store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing identity store %s: %w", s.path, err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *JSONStore) Count(ctx context.Context) (int, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
