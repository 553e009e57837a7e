package access

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/facegate/internal/identity"
	"github.com/kozaktomas/facegate/internal/store/mock"
)

// failingProvider fails the test if it is ever consulted.
type failingProvider struct {
	t *testing.T
}

func (p *failingProvider) Decide(ctx context.Context) (bool, error) {
	p.t.Fatal("decision provider consulted for a matched identity")
	return false, nil
}

func newTestController(s *mock.Store, d DecisionProvider) *Controller {
	return NewController(s, identity.NewMatcher(0.9), d)
}

func TestCheck_MatchedReturnsStoredDecision(t *testing.T) {
	s := mock.NewStore()
	s.Seed(identity.Record{ID: "a1", Embedding: []float32{1, 0, 0}, Allowed: true})

	ctrl := newTestController(s, &failingProvider{t: t})

	result, err := ctrl.Check(context.Background(), []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Allowed {
		t.Error("expected stored decision true")
	}
	if result.NewIdentity {
		t.Error("matched identity must not be reported as new")
	}
	if result.Record.ID != "a1" {
		t.Errorf("expected record a1, got %s", result.Record.ID)
	}

	// Matched path has no side effects.
	if n, _ := s.Count(context.Background()); n != 1 {
		t.Errorf("expected store unchanged, got %d records", n)
	}
}

func TestCheck_IdempotentLookup(t *testing.T) {
	s := mock.NewStore()
	s.Seed(identity.Record{ID: "a1", Embedding: []float32{1, 0, 0}, Allowed: false})

	ctrl := newTestController(s, &failingProvider{t: t})

	for i := 0; i < 2; i++ {
		result, err := ctrl.Check(context.Background(), []float32{1, 0, 0})
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if result.Allowed {
			t.Errorf("check %d: expected stored decision false", i)
		}
	}
}

func TestCheck_UnmatchedEnrolls(t *testing.T) {
	s := mock.NewStore()
	ctrl := newTestController(s, StaticDecision(false))
	ctx := context.Background()

	// Empty store, external decision = deny.
	result, err := ctrl.Check(ctx, []float32{1, 1, 1})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Allowed {
		t.Error("expected denial")
	}
	if !result.NewIdentity {
		t.Error("expected a new identity")
	}
	if result.Record.ID == "" {
		t.Error("expected a generated id")
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("expected exactly one enrolled record, got %d", n)
	}

	// Re-querying the same embedding now matches with the same decision.
	again, err := ctrl.Check(ctx, []float32{1, 1, 1})
	if err != nil {
		t.Fatalf("recheck: %v", err)
	}
	if again.NewIdentity {
		t.Error("expected a match on the second check")
	}
	if again.Allowed {
		t.Error("expected the persisted denial")
	}
	if again.Record.ID != result.Record.ID {
		t.Errorf("expected the enrolled identity %s, got %s", result.Record.ID, again.Record.ID)
	}
}

func TestCheck_OrthogonalQueryIsUnmatched(t *testing.T) {
	s := mock.NewStore()
	s.Seed(identity.Record{ID: "a1", Embedding: []float32{1, 0, 0}, Allowed: true})

	ctrl := newTestController(s, StaticDecision(true))

	result, err := ctrl.Check(context.Background(), []float32{0, 1, 0})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.NewIdentity {
		t.Error("orthogonal embedding must enroll as a new identity")
	}
}

func TestCheck_AppendFailureNotCommitted(t *testing.T) {
	s := mock.NewStore()
	s.AppendError = errors.New("disk full")

	ctrl := newTestController(s, StaticDecision(true))

	_, err := ctrl.Check(context.Background(), []float32{1, 1, 1})
	if err == nil {
		t.Fatal("expected an error when persistence fails")
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("failed enrollment must not commit a record, got %d", n)
	}
}

func TestCheck_LoadFailureAborts(t *testing.T) {
	s := mock.NewStore()
	s.LoadError = errors.New("permission denied")

	ctrl := newTestController(s, StaticDecision(true))

	if _, err := ctrl.Check(context.Background(), []float32{1, 0, 0}); err == nil {
		t.Fatal("expected an error when the store cannot be read")
	}
}

func TestCheck_InvalidQueryRejected(t *testing.T) {
	s := mock.NewStore()
	ctrl := newTestController(s, StaticDecision(true))

	_, err := ctrl.Check(context.Background(), []float32{0, 0, 0})
	if !identity.IsInvalidInput(err) {
		t.Errorf("expected invalid input error, got %v", err)
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("invalid query must not enroll, got %d records", n)
	}
}

func TestMatch_NoSideEffects(t *testing.T) {
	s := mock.NewStore()
	ctrl := newTestController(s, nil)

	match, err := ctrl.Match(context.Background(), []float32{1, 1, 1})
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match on empty store, got %v", match)
	}
	if n, _ := s.Count(context.Background()); n != 0 {
		t.Errorf("match must not persist anything, got %d records", n)
	}
}

// recordingRecorder captures emitted decisions.
type recordingRecorder struct {
	events []bool // NewIdentity flags in emission order
}

func (r *recordingRecorder) Record(ctx context.Context, rec identity.Record, newIdentity bool) error {
	r.events = append(r.events, newIdentity)
	return nil
}

func TestCheck_RecordsDecisions(t *testing.T) {
	s := mock.NewStore()
	rec := &recordingRecorder{}
	ctrl := newTestController(s, StaticDecision(true)).WithRecorder(rec)
	ctx := context.Background()

	if _, err := ctrl.Check(ctx, []float32{1, 0, 0}); err != nil {
		t.Fatalf("check: %v", err)
	}
	if _, err := ctrl.Check(ctx, []float32{1, 0, 0}); err != nil {
		t.Fatalf("check: %v", err)
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(rec.events))
	}
	if !rec.events[0] || rec.events[1] {
		t.Errorf("expected enrollment then match, got %v", rec.events)
	}
}
