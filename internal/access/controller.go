// Package access orchestrates the decide-or-enroll flow: match an incoming
// face embedding against enrolled identities, or enroll it with a decision
// obtained from a DecisionProvider.
package access

import (
	"context"
	"fmt"

	"github.com/kozaktomas/facegate/internal/identity"
	"github.com/kozaktomas/facegate/internal/store"
)

// Matcher finds the enrolled record a query embedding corresponds to, or
// nil when the person is unknown. Implemented by identity.Matcher (linear
// scan) and store.IndexedMatcher (HNSW-accelerated).
type Matcher interface {
	FindMatch(query []float32, records []identity.Record) (*identity.Record, error)
}

// Recorder receives every emitted decision. Optional; see the audit package.
type Recorder interface {
	Record(ctx context.Context, rec identity.Record, newIdentity bool) error
}

// Result is the outcome of processing one embedding.
type Result struct {
	Allowed     bool
	NewIdentity bool
	Record      identity.Record
}

// Controller runs the per-embedding state machine: match against the store,
// on a hit return the stored decision, on a miss obtain a decision, enroll,
// and persist. One embedding is processed to completion per call.
type Controller struct {
	store     store.Store
	matcher   Matcher
	decisions DecisionProvider
	recorder  Recorder
}

// NewController wires a controller. The decision provider may be nil when
// only Match is used; the recorder is optional.
func NewController(s store.Store, m Matcher, d DecisionProvider) *Controller {
	return &Controller{store: s, matcher: m, decisions: d}
}

// WithRecorder attaches a decision recorder and returns the controller.
func (c *Controller) WithRecorder(r Recorder) *Controller {
	c.recorder = r
	return c
}

// Match resolves an embedding against the current store contents without
// side effects. Returns nil when no enrolled identity matches.
func (c *Controller) Match(ctx context.Context, embedding []float32) (*identity.Record, error) {
	records, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.matcher.FindMatch(embedding, records)
}

// Check processes one embedding to completion. Matched: the stored decision
// is returned unchanged, nothing is persisted. Unmatched: a decision is
// obtained from the provider, exactly one new record is enrolled, and the
// obtained decision is returned.
func (c *Controller) Check(ctx context.Context, embedding []float32) (Result, error) {
	match, err := c.Match(ctx, embedding)
	if err != nil {
		return Result{}, err
	}
	if match != nil {
		res := Result{Allowed: match.Allowed, NewIdentity: false, Record: *match}
		c.record(ctx, res)
		return res, nil
	}

	if c.decisions == nil {
		return Result{}, fmt.Errorf("unknown identity and no decision provider configured")
	}
	allowed, err := c.decisions.Decide(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("obtaining access decision: %w", err)
	}

	rec := identity.NewRecord(embedding, allowed)
	if err := c.store.Append(ctx, rec); err != nil {
		// Not committed: the caller must not treat the identity as enrolled.
		return Result{}, fmt.Errorf("enrolling identity: %w", err)
	}

	res := Result{Allowed: allowed, NewIdentity: true, Record: rec}
	c.record(ctx, res)
	return res, nil
}

// record forwards the outcome to the recorder, if any. Recording is
// best-effort and never fails the access decision itself.
func (c *Controller) record(ctx context.Context, res Result) {
	if c.recorder == nil {
		return
	}
	_ = c.recorder.Record(ctx, res.Record, res.NewIdentity)
}
