package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/resolver"
	"github.com/Harshitk-cp/relspace/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	svcT0  = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	alice  = domain.PersonRef(uuid.MustParse("0190a0e4-1111-7000-8000-000000000001"))
	bob    = domain.PersonRef(uuid.MustParse("0190a0e4-1111-7000-8000-000000000002"))
	carol  = domain.PersonRef(uuid.MustParse("0190a0e4-1111-7000-8000-000000000003"))
	acme   = domain.OrganizationRef(uuid.MustParse("0190a0e4-2222-7000-8000-000000000001"))
	globex = domain.OrganizationRef(uuid.MustParse("0190a0e4-2222-7000-8000-000000000002"))
)

// mockProjection implements domain.EdgeProjection for testing.
type mockProjection struct {
	mu      sync.Mutex
	points  map[domain.RelationshipID]domain.QualityPoint
	err     error
	similar []domain.SimilarEdge

	lastRadius float64
	lastLimit  int
}

func newMockProjection() *mockProjection {
	return &mockProjection{points: make(map[domain.RelationshipID]domain.QualityPoint)}
}

func (m *mockProjection) Upsert(ctx context.Context, edge domain.EdgeConcept, point domain.QualityPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.points[edge.ID] = point
	return nil
}

func (m *mockProjection) FindSimilar(ctx context.Context, point domain.QualityPoint, maxDistance float64, limit int) ([]domain.SimilarEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRadius, m.lastLimit = maxDistance, limit
	return m.similar, m.err
}

// conflictingStore reports a concurrent writer on every append after the
// first allowed ones.
type conflictingStore struct {
	*store.MemoryEventStore
	allow int
}

func (c *conflictingStore) Append(ctx context.Context, id domain.RelationshipID, expected int, events []domain.StoredEvent) (int64, error) {
	if c.allow <= 0 {
		return 0, store.ErrConflict
	}
	c.allow--
	return c.MemoryEventStore.Append(ctx, id, expected, events)
}

func newEdgeService(t *testing.T, es domain.EventStore) (*EdgeService, *SpaceService) {
	t.Helper()
	clock := domain.FixedClock(svcT0)
	space := NewSpaceService("test", clock, zap.NewNop())
	svc := NewEdgeService(es, space, zap.NewNop())
	svc.SetClock(clock)
	return svc, space
}

func createEmployment(t *testing.T, svc *EdgeService) domain.EdgeConcept {
	t.Helper()
	res, err := svc.Create(context.Background(), domain.CreateEdge{
		Identity:  domain.NewMessageIdentity(),
		Source:    alice,
		Target:    acme,
		Category:  domain.CategoryEmployment,
		Name:      "Alice @ Acme",
		CreatedBy: "hr",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res.Edge
}

func TestEdgeService_Lifecycle(t *testing.T) {
	es := store.NewMemoryEventStore()
	svc, space := newEdgeService(t, es)
	ctx := context.Background()

	edge := createEmployment(t, svc)
	if edge.State != domain.EdgeStateProposed || edge.Version != 0 {
		t.Fatalf("created edge state=%s version=%d", edge.State, edge.Version)
	}

	res, err := svc.Activate(ctx, domain.ActivateEdge{EdgeID: edge.ID, ActivatedBy: "hr"})
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if len(res.Events) != 1 || res.Events[0] != "EdgeActivated" {
		t.Errorf("events = %v", res.Events)
	}
	if res.Edge.State != domain.EdgeStateActive || res.Edge.Version != 1 {
		t.Errorf("activated edge state=%s version=%d", res.Edge.State, res.Edge.Version)
	}

	if _, err := svc.Suspend(ctx, domain.SuspendEdge{EdgeID: edge.ID, SuspendedBy: "hr"}); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if _, err := svc.Resume(ctx, domain.ResumeEdge{EdgeID: edge.ID, ResumedBy: "hr"}); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	res, err = svc.Terminate(ctx, domain.TerminateEdge{EdgeID: edge.ID, Reason: "end-of-contract", TerminatedBy: "hr"})
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if res.Edge.State != domain.EdgeStateTerminated || res.Edge.Version != 4 {
		t.Errorf("terminated edge state=%s version=%d", res.Edge.State, res.Edge.Version)
	}

	history, err := svc.History(ctx, edge.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history length = %d, expected 5", len(history))
	}
	for i, se := range history {
		if se.Sequence != i {
			t.Errorf("event %d has sequence %d", i, se.Sequence)
		}
	}

	got, err := svc.Get(ctx, edge.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != domain.EdgeStateTerminated || got.Version != 4 {
		t.Errorf("replayed edge state=%s version=%d", got.State, got.Version)
	}

	cached, ok := space.Edge(edge.ID)
	if !ok || cached.Version != 4 {
		t.Errorf("space copy = %+v (found=%v)", cached.Version, ok)
	}
}

func TestEdgeService_CreateUsesProfiles(t *testing.T) {
	svc, _ := newEdgeService(t, store.NewMemoryEventStore())
	svc.SetProfiles(domain.ProfileSet{
		domain.CategoryEmployment: {Strength: 0.95, Trust: 0.4, Formality: domain.FormalityLegal, Reciprocity: 0.2},
	})

	edge := createEmployment(t, svc)
	if edge.Quality.Strength != 0.95 || edge.Quality.Formality != domain.FormalityLegal {
		t.Errorf("quality = %+v", edge.Quality)
	}
	if !edge.Quality.Duration.StartsAt.Equal(svcT0) {
		t.Errorf("duration starts at %v", edge.Quality.Duration.StartsAt)
	}
}

func TestEdgeService_DuplicateEvidenceIsNoop(t *testing.T) {
	es := store.NewMemoryEventStore()
	svc, _ := newEdgeService(t, es)
	ctx := context.Background()
	edge := createEmployment(t, svc)

	add := domain.AddEdgeEvidence{EdgeID: edge.ID, EvidenceCID: "bafycontract", EvidenceType: "contract"}
	first, err := svc.AddEvidence(ctx, add)
	if err != nil {
		t.Fatalf("AddEvidence: %v", err)
	}
	second, err := svc.AddEvidence(ctx, add)
	if err != nil {
		t.Fatalf("AddEvidence again: %v", err)
	}

	if len(second.Events) != 0 {
		t.Errorf("duplicate evidence produced %v", second.Events)
	}
	if second.Edge.Version != first.Edge.Version {
		t.Errorf("version moved from %d to %d", first.Edge.Version, second.Edge.Version)
	}
	history, _ := svc.History(ctx, edge.ID)
	if len(history) != 2 {
		t.Errorf("history length = %d", len(history))
	}
}

func TestEdgeService_Errors(t *testing.T) {
	es := store.NewMemoryEventStore()
	svc, _ := newEdgeService(t, es)
	ctx := context.Background()
	edge := createEmployment(t, svc)

	tests := []struct {
		name     string
		cmd      domain.Command
		expected error
	}{
		{"unknown edge", domain.ActivateEdge{EdgeID: domain.NewRelationshipID()}, ErrRelationshipNotFound},
		{"illegal transition", domain.ResumeEdge{EdgeID: edge.ID}, domain.ErrInvalidStateTransition},
		{"terminate while proposed", domain.TerminateEdge{EdgeID: edge.ID, Reason: "dup"}, domain.ErrInvalidStateTransition},
		{"evidence without cid", domain.AddEdgeEvidence{EdgeID: edge.ID}, domain.ErrInvalidRelationship},
		{"self loop", domain.CreateEdge{Source: alice, Target: alice, Category: domain.CategoryEmployment, Name: "x"}, domain.ErrInvalidRelationship},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Handle(ctx, tt.cmd)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}

	history, _ := svc.History(ctx, edge.ID)
	if len(history) != 1 {
		t.Errorf("failed commands must not append, history length = %d", len(history))
	}
}

func TestEdgeService_HyperEdgeIDIsNotAnEdge(t *testing.T) {
	es := store.NewMemoryEventStore()
	svc, space := newEdgeService(t, es)
	hsvc := NewHyperEdgeService(es, space, zap.NewNop())

	res, err := hsvc.Create(context.Background(), domain.CreateHyperEdge{Name: "Board", Category: domain.CategoryMembership})
	if err != nil {
		t.Fatalf("Create hyperedge: %v", err)
	}
	if _, err := svc.Get(context.Background(), res.HyperEdge.ID); !errors.Is(err, ErrRelationshipNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestEdgeService_ResolverRejectsUnknownEntity(t *testing.T) {
	es := store.NewMemoryEventStore()
	svc, _ := newEdgeService(t, es)
	r := resolver.NewMockResolver()
	r.MarkMissing(acme)
	svc.SetResolver(r)

	_, err := svc.Create(context.Background(), domain.CreateEdge{
		Source: alice, Target: acme, Category: domain.CategoryEmployment, Name: "Alice @ Acme",
	})
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected entity not found, got %v", err)
	}

	ids, _ := es.ListAggregates(context.Background(), domain.AggregateEdge)
	if len(ids) != 0 {
		t.Errorf("nothing should be stored, got %d edges", len(ids))
	}
	if len(r.Calls) != 2 {
		t.Errorf("resolver calls = %d", len(r.Calls))
	}
}

func TestEdgeService_VersionConflict(t *testing.T) {
	es := &conflictingStore{MemoryEventStore: store.NewMemoryEventStore(), allow: 1}
	svc, _ := newEdgeService(t, es)
	edge := createEmployment(t, svc)

	_, err := svc.Activate(context.Background(), domain.ActivateEdge{EdgeID: edge.ID})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	got, err := svc.Get(context.Background(), edge.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != domain.EdgeStateProposed {
		t.Errorf("state = %s", got.State)
	}
}

func TestEdgeService_DuplicateCreateConflicts(t *testing.T) {
	svc, _ := newEdgeService(t, store.NewMemoryEventStore())
	edge := createEmployment(t, svc)

	_, err := svc.Create(context.Background(), domain.CreateEdge{
		EdgeID: edge.ID, Source: bob, Target: acme, Category: domain.CategoryEmployment, Name: "Bob @ Acme",
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("expected version conflict, got %v", err)
	}
}

func TestEdgeService_Projection(t *testing.T) {
	svc, _ := newEdgeService(t, store.NewMemoryEventStore())
	proj := newMockProjection()
	svc.SetProjection(proj)
	ctx := context.Background()

	edge := createEmployment(t, svc)
	point, ok := proj.points[edge.ID]
	if !ok {
		t.Fatal("create should upsert the projection")
	}
	if point != edge.QualityPointAt(svcT0) {
		t.Errorf("projected point = %+v", point)
	}

	q := domain.NewRelationshipQuality(0.2, 0.3, domain.FormalityInformal, domain.OngoingFrom(svcT0), 0.4)
	if _, err := svc.UpdateQuality(ctx, domain.UpdateEdgeQuality{EdgeID: edge.ID, Quality: q, Reason: "review"}); err != nil {
		t.Fatalf("UpdateQuality: %v", err)
	}
	if proj.points[edge.ID].Strength != 0.2 {
		t.Errorf("projection not refreshed: %+v", proj.points[edge.ID])
	}

	proj.err = errors.New("connection reset")
	if _, err := svc.Activate(ctx, domain.ActivateEdge{EdgeID: edge.ID}); err != nil {
		t.Errorf("projection failure must not fail the command: %v", err)
	}
	if _, err := svc.FindSimilar(ctx, domain.CenterPoint(), 1, 5); err == nil {
		t.Error("projection query error should surface")
	}
}

func TestEdgeService_FindSimilarRechecksProjection(t *testing.T) {
	es := store.NewMemoryEventStore()
	clock := domain.FixedClock(svcT0)
	space := NewSpaceService("test", clock, zap.NewNop())
	svc := NewEdgeService(es, space, zap.NewNop())
	svc.SetClock(clock)
	proj := newMockProjection()
	svc.SetProjection(proj)
	edge := createEmployment(t, svc)

	// 200 days on, the stored point still has duration 0 while the live
	// one has moved along the duration axis
	later := svcT0.Add(200 * 24 * time.Hour)
	svc.SetClock(domain.FixedClock(later))
	stored := edge.QualityPointAt(svcT0)
	live := edge.QualityPointAt(later)
	proj.similar = []domain.SimilarEdge{
		{EdgeID: edge.ID, Category: edge.Category, Name: edge.Name, State: edge.State, Distance: 0},
		{EdgeID: domain.NewRelationshipID(), Name: "gone", Distance: 0.01},
	}

	found, err := svc.FindSimilar(context.Background(), stored, 0.1, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("stale stored distance must not match: %+v", found)
	}
	if proj.lastRadius <= 0.1 || proj.lastLimit != 0 {
		t.Errorf("projection queried with radius=%v limit=%d", proj.lastRadius, proj.lastLimit)
	}

	found, err = svc.FindSimilar(context.Background(), live, 0.1, 0)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(found) != 1 || found[0].EdgeID != edge.ID || found[0].Distance != 0 {
		t.Errorf("found = %+v", found)
	}
	if want := space.FindSimilar(live, 0.1, 0); len(want) != len(found) {
		t.Errorf("projection and space disagree: %+v vs %+v", found, want)
	}
}

func TestEdgeService_FindSimilarFallsBackToSpace(t *testing.T) {
	svc, _ := newEdgeService(t, store.NewMemoryEventStore())
	edge := createEmployment(t, svc)

	found, err := svc.FindSimilar(context.Background(), edge.QualityPointAt(svcT0), 0.1, 10)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(found) != 1 || found[0].EdgeID != edge.ID || found[0].Distance != 0 {
		t.Errorf("found = %+v", found)
	}
}

func TestEdgeService_KnowledgeAndProperties(t *testing.T) {
	svc, _ := newEdgeService(t, store.NewMemoryEventStore())
	ctx := context.Background()
	edge := createEmployment(t, svc)

	res, err := svc.ProgressKnowledge(ctx, domain.ProgressEdgeKnowledge{
		EdgeID: edge.ID, ToLevel: domain.KnowledgeKnown, Confidence: 0.9, Reason: "verified",
	})
	if err != nil {
		t.Fatalf("ProgressKnowledge: %v", err)
	}
	if res.Edge.KnowledgeLevel != domain.KnowledgeKnown {
		t.Errorf("knowledge = %s", res.Edge.KnowledgeLevel)
	}

	res, err = svc.UpdateProperty(ctx, domain.UpdateEdgeProperty{EdgeID: edge.ID, Key: "title", Value: "Engineer"})
	if err != nil {
		t.Fatalf("UpdateProperty: %v", err)
	}
	if res.Edge.Properties["title"] != "Engineer" {
		t.Errorf("properties = %v", res.Edge.Properties)
	}

	got, err := svc.Get(ctx, edge.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Properties["title"] != "Engineer" || got.KnowledgeLevel != domain.KnowledgeKnown {
		t.Errorf("replayed edge lost updates: %+v", got)
	}

	if _, err := svc.Reject(ctx, domain.RejectEdge{EdgeID: edge.ID, RejectedBy: "hr"}); err != nil {
		t.Fatalf("Reject: %v", err)
	}
}
