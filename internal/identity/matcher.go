package identity

import (
	"errors"
	"fmt"
	"log"
)

// DefaultThreshold is the cosine similarity a query must strictly exceed
// to be treated as a known identity.
const DefaultThreshold = 0.9

// Matcher decides whether a query embedding corresponds to an already
// enrolled identity using a linear scan in stored order.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher with the given similarity threshold.
// A threshold <= 0 falls back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

// FindMatch scans records in stored order and returns the first record whose
// similarity to query strictly exceeds the threshold. This is a first-match
// policy, not best-match: when several records exceed the threshold, the
// earliest-enrolled one wins.
//
// Stored records that cannot be compared against the query (dimension
// mismatch, zero magnitude) are skipped and logged once per call. An invalid
// query vector rejects the whole lookup.
func (m *Matcher) FindMatch(query []float32, records []Record) (*Record, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	skipped := 0
	for i := range records {
		sim, err := CosineSimilarity(query, records[i].Embedding)
		if err != nil {
			skipped++
			continue
		}
		if sim > m.Threshold {
			return &records[i], nil
		}
	}
	if skipped > 0 {
		log.Printf("Warning: skipped %d stored record(s) incomparable with query (dim %d)", skipped, len(query))
	}
	return nil, nil
}

// ValidateQuery rejects embeddings for which similarity is undefined.
func ValidateQuery(query []float32) error {
	if len(query) == 0 {
		return fmt.Errorf("invalid query embedding: %w", ErrZeroVector)
	}
	for _, v := range query {
		if v != 0 {
			return nil
		}
	}
	return fmt.Errorf("invalid query embedding: %w", ErrZeroVector)
}

// IsInvalidInput reports whether err stems from an embedding that cannot be
// compared (wrong length or zero magnitude).
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) || errors.Is(err, ErrZeroVector)
}
