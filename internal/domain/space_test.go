package domain

import (
	"testing"
	"time"
)

func newTestSpace(t *testing.T, now time.Time) (*RelationshipSpace, EdgeConcept, EdgeConcept) {
	t.Helper()
	s := NewRelationshipSpace("people", NewTopologicalSpaceID(), FixedClock(now))

	employment, _ := createEdge(t, CategoryEmployment, t0)
	employment, _, _ = handle(t, employment, ActivateEdge{EdgeID: employment.ID}, t0)
	friendship, _ := createEdge(t, CategoryFriendship, t0)

	s.AddEdge(employment)
	s.AddEdge(friendship)
	return s, employment, friendship
}

func TestRelationshipSpace_Queries(t *testing.T) {
	now := t0.Add(24 * time.Hour)
	s, employment, friendship := newTestSpace(t, now)

	if s.RelationshipCount() != 2 || s.Version() != 2 {
		t.Errorf("count=%d version=%d", s.RelationshipCount(), s.Version())
	}

	active := s.ActiveEdges()
	if len(active) != 1 || active[0].ID != employment.ID {
		t.Errorf("ActiveEdges = %v", active)
	}

	near := s.FindSimilarEdges(employment.QualityPointAt(now), 0.1)
	if len(near) != 1 || near[0].ID != employment.ID {
		t.Errorf("FindSimilarEdges = %v", near)
	}
	if all := s.FindSimilarEdges(CenterPoint(), MaxQualityDistance); len(all) != 2 {
		t.Errorf("max distance should match everything, got %d", len(all))
	}

	between := s.EdgesBetween(OrganizationRef(acmeID), PersonRef(aliceID))
	if len(between) != 1 || between[0].ID != friendship.ID {
		t.Errorf("reverse lookup should only match the symmetric edge, got %v", between)
	}
	if got := s.EdgesInvolving(PersonRef(aliceID)); len(got) != 2 {
		t.Errorf("EdgesInvolving = %d", len(got))
	}
}

func TestRelationshipSpace_Weighted(t *testing.T) {
	now := t0
	s, employment, _ := newTestSpace(t, now)

	target := employment.QualityPointAt(now)
	target.Trust = 0.9

	if got := s.FindSimilarEdgesWeighted(target, 0.35, DefaultWeights()); len(got) != 1 {
		t.Errorf("default weights: %d matches", len(got))
	}
	if got := s.FindSimilarEdgesWeighted(target, 0.35, TrustFocusedWeights()); len(got) != 0 {
		t.Errorf("trust focused weights should push the edge away, got %d", len(got))
	}
}

func TestRelationshipSpace_TessellationInvalidation(t *testing.T) {
	s, _, _ := newTestSpace(t, t0)

	stale := &VoronoiTessellation{SpaceID: s.ID, SpaceVersion: s.Version() - 1}
	if s.SetTessellation(stale) {
		t.Error("stale tessellation should be rejected")
	}

	fresh := &VoronoiTessellation{SpaceID: s.ID, SpaceVersion: s.Version()}
	if !s.SetTessellation(fresh) || s.Tessellation() != fresh {
		t.Fatal("fresh tessellation should be cached")
	}
	if !s.Stats().Tessellated {
		t.Error("stats should report the cached tessellation")
	}

	h, _ := createHyperEdge(t, ParticipantSpec{Entity: PersonRef(aliceID)}, ParticipantSpec{Entity: PersonRef(bobID)})
	s.AddHyperEdge(h)
	if s.Tessellation() != nil {
		t.Error("adding a relationship must drop the tessellation")
	}
	if got := len(s.Sites()); got != 3 {
		t.Errorf("Sites = %d", got)
	}
}

func TestVoronoiTessellation_CellFor(t *testing.T) {
	var empty *VoronoiTessellation
	if _, ok := empty.CellFor(Point3{}); ok {
		t.Error("nil tessellation has no cells")
	}

	tess := &VoronoiTessellation{Cells: []VoronoiCell{
		{Label: "casual", Generator: Point3{X: 0.2, Y: 0.2, Z: 0}},
		{Label: "formal", Generator: Point3{X: 0.8, Y: 0.8, Z: 1}},
	}}
	if c, _ := tess.CellFor(Point3{X: 0.7, Y: 0.6, Z: 0.75}); c.Label != "formal" {
		t.Errorf("CellFor = %s", c.Label)
	}
}
