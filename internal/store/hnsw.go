package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/facegate/internal/identity"
)

// HNSWMaxNeighbors is the M parameter for the HNSW graph.
const HNSWMaxNeighbors = 16

const hnswMetadataVersion = 1

// IndexMetadata is written next to a saved index file (<path>.meta) and
// identifies the record set the index was built from. A saved index whose
// metadata does not match the current store is stale and must be discarded.
type IndexMetadata struct {
	RecordCount int       `json:"record_count"`
	Dim         int       `json:"dim"`
	BuildTime   time.Time `json:"build_time"`
	Version     int       `json:"version"` // For future compatibility
}

// HNSWIndex wraps an HNSW graph over enrolled records for fast candidate
// lookup on the serve path. Nodes are keyed by the record's insertion
// sequence (its index in the store's Load order) so a search result can be
// resolved back to the earliest-enrolled match.
type HNSWIndex struct {
	graph      *hnsw.Graph[int64]
	savedGraph *hnsw.SavedGraph[int64] // For persistence
	seqToRec   map[int64]*identity.Record
	dim        int // embedding dimension of indexed nodes, 0 while empty
	source     int // record count the index was last synced against
	mu         sync.RWMutex
	path       string
}

// NewHNSWIndex creates a new empty index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{seqToRec: make(map[int64]*identity.Record)}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// BuildFromRecords rebuilds the index from records in store order.
func (h *HNSWIndex) BuildFromRecords(records []identity.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.build(records)
}

// build is the lock-free implementation shared by BuildFromRecords and Sync.
func (h *HNSWIndex) build(records []identity.Record) error {
	h.graph = nil
	h.savedGraph = nil
	h.seqToRec = make(map[int64]*identity.Record, len(records))
	h.dim = 0
	h.source = len(records)

	if len(records) == 0 {
		return nil
	}

	g := newGraph()
	skipped := 0
	for i := range records {
		rec := &records[i]
		if len(rec.Embedding) == 0 {
			continue
		}
		if h.dim == 0 {
			h.dim = len(rec.Embedding)
		}
		if len(rec.Embedding) != h.dim {
			// Off-dimension records would poison the graph's distance
			// function; they stay reachable through the linear fallback.
			skipped++
			continue
		}
		g.Add(hnsw.MakeNode(int64(i), rec.Embedding))
		h.seqToRec[int64(i)] = rec
	}
	if skipped > 0 {
		log.Printf("Warning: %d record(s) not indexed, embedding dimension differs from %d", skipped, h.dim)
	}

	h.graph = g
	return nil
}

// Sync brings the index in line with the current record sequence: a no-op
// when nothing changed, an incremental append for a single new enrollment,
// a full rebuild otherwise.
func (h *HNSWIndex) Sync(records []identity.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.source == len(records):
		return nil
	case h.source > 0 && len(records) == h.source+1:
		h.add(&records[len(records)-1])
		return nil
	default:
		return h.build(records)
	}
}

// add appends one record under the next sequence number. Lock must be held.
func (h *HNSWIndex) add(rec *identity.Record) {
	seq := int64(h.source)
	h.source++

	if len(rec.Embedding) == 0 {
		return
	}
	if h.dim != 0 && len(rec.Embedding) != h.dim {
		log.Printf("Warning: record %s not indexed, embedding dimension %d differs from %d", rec.ID, len(rec.Embedding), h.dim)
		return
	}
	if h.dim == 0 {
		h.dim = len(rec.Embedding)
	}

	node := hnsw.MakeNode(seq, rec.Embedding)
	switch {
	case h.savedGraph != nil:
		h.savedGraph.Add(node)
	case h.graph != nil:
		h.graph.Add(node)
	default:
		h.graph = newGraph()
		h.graph.Add(node)
	}
	h.seqToRec[seq] = rec
}

// Candidate is one search result: a record and its insertion sequence.
type Candidate struct {
	Seq    int64
	Record *identity.Record
}

// Search returns up to k nearest records to the query. Candidates are
// approximate nearest neighbors; callers re-check exact similarity. A query
// whose dimension differs from the indexed embeddings is rejected before it
// reaches the graph's distance function.
func (h *HNSWIndex) Search(query []float32, k int) ([]Candidate, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		return nil, errors.New("index not initialized")
	}
	if h.dim != 0 && len(query) != h.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d: %w", len(query), h.dim, identity.ErrDimensionMismatch)
	}

	var neighbors []hnsw.Node[int64]
	if h.savedGraph != nil {
		neighbors = h.savedGraph.Search(query, k)
	} else {
		neighbors = h.graph.Search(query, k)
	}

	candidates := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		if rec, ok := h.seqToRec[n.Key]; ok {
			candidates = append(candidates, Candidate{Seq: n.Key, Record: rec})
		}
	}
	return candidates, nil
}

// Count returns the number of indexed records.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.seqToRec)
}

// SetPath sets the path for saving the index.
func (h *HNSWIndex) SetPath(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = path
}

// Save persists the graph and its metadata sidecar to disk. An empty index
// removes any stale files.
func (h *HNSWIndex) Save() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.path == "" {
		return nil // No path set
	}
	if h.graph == nil && h.savedGraph == nil {
		_ = os.Remove(h.path)
		_ = os.Remove(h.path + ".meta")
		return nil
	}

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("creating HNSW index file: %w", err)
	}
	defer f.Close()

	if h.savedGraph != nil {
		err = h.savedGraph.Export(f)
	} else {
		err = h.graph.Export(f)
	}
	if err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}

	meta := IndexMetadata{
		RecordCount: h.source,
		Dim:         h.dim,
		BuildTime:   time.Now().UTC(),
		Version:     hnswMetadataVersion,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling index metadata: %w", err)
	}
	if err := os.WriteFile(h.path+".meta", data, 0o600); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	return nil
}

// Load loads a previously saved graph, provided its metadata sidecar still
// matches the current record sequence. A missing file, a missing sidecar,
// or a record-count mismatch leaves the index empty so the caller rebuilds
// from records instead of serving a stale graph.
func (h *HNSWIndex) Load(path string, records []identity.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.path = path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	meta, err := loadIndexMetadata(path)
	if err != nil {
		log.Printf("Warning: HNSW index at %s has no usable metadata, rebuilding: %v", path, err)
		return nil
	}
	if meta.Version != hnswMetadataVersion || meta.RecordCount != len(records) {
		log.Printf("Warning: HNSW index at %s is stale (indexed %d of %d records), rebuilding", path, meta.RecordCount, len(records))
		return nil
	}

	saved, err := hnsw.LoadSavedGraph[int64](path)
	if err != nil {
		return fmt.Errorf("loading HNSW index: %w", err)
	}

	h.savedGraph = saved
	h.dim = meta.Dim
	h.source = len(records)
	h.seqToRec = make(map[int64]*identity.Record, len(records))
	for i := range records {
		h.seqToRec[int64(i)] = &records[i]
	}
	return nil
}

// loadIndexMetadata reads the sidecar written by Save.
func loadIndexMetadata(path string) (IndexMetadata, error) {
	var meta IndexMetadata
	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		return meta, fmt.Errorf("reading metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return meta, nil
}

// IndexedMatcher resolves queries through an HNSWIndex while keeping the
// linear matcher's exact semantics: candidates are re-scored with exact
// cosine similarity, only those strictly above the threshold count, and the
// earliest-enrolled candidate wins. Anything the index cannot answer falls
// back to the linear scan.
type IndexedMatcher struct {
	Index     *HNSWIndex
	Threshold float64
	K         int // candidates per search, defaults to 8
}

// FindMatch implements the matching contract over the index.
func (m *IndexedMatcher) FindMatch(query []float32, records []identity.Record) (*identity.Record, error) {
	if err := identity.ValidateQuery(query); err != nil {
		return nil, err
	}
	linear := identity.NewMatcher(m.Threshold)

	// Tiny stores are cheaper to scan than to index.
	if len(records) < 2 {
		return linear.FindMatch(query, records)
	}

	if err := m.Index.Sync(records); err != nil {
		return linear.FindMatch(query, records)
	}

	k := m.K
	if k <= 0 {
		k = 8
	}
	candidates, err := m.Index.Search(query, k)
	if err != nil {
		return linear.FindMatch(query, records)
	}

	threshold := linear.Threshold
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		sim, err := identity.CosineSimilarity(query, c.Record.Embedding)
		if err != nil {
			// Incomparable stored record, same skip policy as the linear scan.
			continue
		}
		if sim > threshold && (best == nil || c.Seq < best.Seq) {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Record, nil
}
