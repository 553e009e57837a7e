package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/identity"
	"github.com/kozaktomas/facegate/internal/store"
)

// AccessHandler serves access checks against the identity store.
type AccessHandler struct {
	store    store.Store
	matcher  access.Matcher
	recorder access.Recorder
}

// NewAccessHandler creates a new access handler. The recorder may be nil.
func NewAccessHandler(s store.Store, m access.Matcher, rec access.Recorder) *AccessHandler {
	return &AccessHandler{store: s, matcher: m, recorder: rec}
}

// checkRequest is the body of POST /api/v1/access/check.
//
// OnUnknown selects what happens when no enrolled identity matches:
// "none" (default) reports the miss without enrolling, "allow" and "deny"
// enroll the embedding with that decision.
type checkRequest struct {
	Embedding []float32 `json:"embedding"`
	OnUnknown string    `json:"on_unknown"`
}

// checkResponse is the result of an access check.
type checkResponse struct {
	Matched     bool   `json:"matched"`
	Allowed     bool   `json:"allowed,omitempty"`
	NewIdentity bool   `json:"new_identity,omitempty"`
	ID          string `json:"id,omitempty"`
}

// Check handles POST /api/v1/access/check.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	switch req.OnUnknown {
	case "", "none", "allow", "deny":
	default:
		respondError(w, http.StatusBadRequest, "on_unknown must be one of none, allow, deny")
		return
	}

	var provider access.DecisionProvider
	if req.OnUnknown == "allow" || req.OnUnknown == "deny" {
		provider = access.StaticDecision(req.OnUnknown == "allow")
	}
	ctrl := access.NewController(h.store, h.matcher, provider).WithRecorder(h.recorder)

	if provider == nil {
		match, err := ctrl.Match(r.Context(), req.Embedding)
		if err != nil {
			h.respondCheckError(w, err)
			return
		}
		if match == nil {
			respondJSON(w, http.StatusOK, checkResponse{Matched: false})
			return
		}
		respondJSON(w, http.StatusOK, checkResponse{
			Matched: true,
			Allowed: match.Allowed,
			ID:      match.ID,
		})
		return
	}

	result, err := ctrl.Check(r.Context(), req.Embedding)
	if err != nil {
		h.respondCheckError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, checkResponse{
		Matched:     !result.NewIdentity,
		Allowed:     result.Allowed,
		NewIdentity: result.NewIdentity,
		ID:          result.Record.ID,
	})
}

// respondCheckError maps engine errors onto HTTP statuses: invalid
// embeddings are the client's fault, store failures are ours.
func (h *AccessHandler) respondCheckError(w http.ResponseWriter, err error) {
	if identity.IsInvalidInput(err) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, store.ErrUnreadable) {
		respondError(w, http.StatusServiceUnavailable, "identity store unreadable")
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
