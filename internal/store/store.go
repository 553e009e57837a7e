// Package store provides durable, append-only persistence for enrolled
// identity records.
package store

import (
	"context"
	"errors"

	"github.com/kozaktomas/facegate/internal/identity"
)

// DefaultPath is the identity store file used when no path is configured.
// The name matches the file written by earlier versions so existing
// enrollments keep working.
const DefaultPath = "./face_data.json"

var (
	// ErrUnreadable means the backing file exists but could not be opened or
	// read. Treating this as an empty store would risk wiping real data on
	// the next append, so it is fatal to the operation that triggered it.
	ErrUnreadable = errors.New("identity store unreadable")
)

// Store is a durable, append-only collection of identity records.
// Records are never modified or deleted once appended.
type Store interface {
	// Load reads the full record sequence in enrollment order. A missing
	// backing store is not an error and yields an empty sequence.
	Load(ctx context.Context) ([]identity.Record, error)
	// Append persists one new record at the end of the sequence. On error
	// the record must be considered not committed.
	Append(ctx context.Context, rec identity.Record) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
