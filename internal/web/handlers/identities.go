package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facegate/internal/identity"
	"github.com/kozaktomas/facegate/internal/store"
)

// IdentitiesHandler serves read-only access to enrolled identities.
// Embeddings are omitted from listings; they are large and only useful to
// debugging clients that ask for them explicitly.
type IdentitiesHandler struct {
	store store.Store
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(s store.Store) *IdentitiesHandler {
	return &IdentitiesHandler{store: s}
}

// identitySummary is the listing shape of one enrolled identity.
type identitySummary struct {
	ID        string    `json:"id"`
	Allowed   bool      `json:"allowed"`
	Dim       int       `json:"dim"`
	CreatedAt string    `json:"created_at,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

func summarize(rec *identity.Record, includeEmbedding bool) identitySummary {
	s := identitySummary{
		ID:      rec.ID,
		Allowed: rec.Allowed,
		Dim:     rec.Dim(),
	}
	if !rec.CreatedAt.IsZero() {
		s.CreatedAt = rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if includeEmbedding {
		s.Embedding = rec.Embedding
	}
	return s
}

// List handles GET /api/v1/identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.Load(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	summaries := make([]identitySummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, summarize(&records[i], false))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":      len(summaries),
		"identities": summaries,
	})
}

// Get handles GET /api/v1/identities/{id}.
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	includeEmbedding := r.URL.Query().Get("embedding") == "true"

	records, err := h.store.Load(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	for i := range records {
		if records[i].ID == id {
			respondJSON(w, http.StatusOK, summarize(&records[i], includeEmbedding))
			return
		}
	}
	respondError(w, http.StatusNotFound, "identity not found")
}
