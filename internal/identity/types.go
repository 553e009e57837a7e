// Package identity defines enrolled identity records and the similarity
// matching used to recognize a returning person from a face embedding.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Record represents one enrolled identity: a face embedding and the access
// decision made when the person was first seen.
//
// The JSON field names form the on-disk contract of the store file and must
// not change: existing face_data.json files from prior runs use them.
type Record struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"features"`
	Allowed   bool      `json:"allowed"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// NewRecord creates a record with a fresh unique ID. Records are immutable
// after creation; there is no update or revocation path.
func NewRecord(embedding []float32, allowed bool) Record {
	return Record{
		ID:        uuid.NewString(),
		Embedding: embedding,
		Allowed:   allowed,
		CreatedAt: time.Now().UTC(),
	}
}

// Dim returns the dimensionality of the record's embedding.
func (r *Record) Dim() int {
	return len(r.Embedding)
}
