package domain

import (
	"sort"
	"time"
)

// RelationshipSpace indexes edges and hyperedges and answers similarity
// queries over them. It is not safe for concurrent use; callers serialize
// writers.
type RelationshipSpace struct {
	ID         ConceptualSpaceID
	Name       string
	TopologyID TopologicalSpaceID

	edges        map[RelationshipID]EdgeConcept
	hyperedges   map[RelationshipID]HyperEdgeConcept
	tessellation *VoronoiTessellation
	version      uint64
	createdAt    time.Time
	updatedAt    time.Time
	clock        Clock
}

func NewRelationshipSpace(name string, topology TopologicalSpaceID, clock Clock) *RelationshipSpace {
	now := clock.Now()
	return &RelationshipSpace{
		ID:         NewConceptualSpaceID(),
		Name:       name,
		TopologyID: topology,
		edges:      make(map[RelationshipID]EdgeConcept),
		hyperedges: make(map[RelationshipID]HyperEdgeConcept),
		createdAt:  now,
		updatedAt:  now,
		clock:      clock,
	}
}

// AddEdge inserts or replaces an edge. Any write drops the cached
// tessellation.
func (s *RelationshipSpace) AddEdge(e EdgeConcept) {
	s.edges[e.ID] = e
	s.touch()
}

func (s *RelationshipSpace) AddHyperEdge(h HyperEdgeConcept) {
	s.hyperedges[h.ID] = h
	s.touch()
}

func (s *RelationshipSpace) touch() {
	s.version++
	s.updatedAt = s.clock.Now()
	s.tessellation = nil
}

func (s *RelationshipSpace) Edge(id RelationshipID) (EdgeConcept, bool) {
	e, ok := s.edges[id]
	return e, ok
}

func (s *RelationshipSpace) HyperEdge(id RelationshipID) (HyperEdgeConcept, bool) {
	h, ok := s.hyperedges[id]
	return h, ok
}

func (s *RelationshipSpace) RelationshipCount() int {
	return len(s.edges) + len(s.hyperedges)
}

func (s *RelationshipSpace) Version() uint64 { return s.version }

func (s *RelationshipSpace) CreatedAt() time.Time { return s.createdAt }
func (s *RelationshipSpace) UpdatedAt() time.Time { return s.updatedAt }

// Edges returns every edge ordered by id.
func (s *RelationshipSpace) Edges() []EdgeConcept {
	return s.filterEdges(func(EdgeConcept) bool { return true })
}

func (s *RelationshipSpace) HyperEdges() []HyperEdgeConcept {
	return s.filterHyperEdges(func(HyperEdgeConcept) bool { return true })
}

// FindSimilarEdges returns edges within maxDistance of point in the full
// five-dimensional space.
func (s *RelationshipSpace) FindSimilarEdges(point QualityPoint, maxDistance float64) []EdgeConcept {
	return s.FindSimilarEdgesWeighted(point, maxDistance, DefaultWeights())
}

func (s *RelationshipSpace) FindSimilarEdgesWeighted(point QualityPoint, maxDistance float64, w QualityWeights) []EdgeConcept {
	now := s.clock.Now()
	return s.filterEdges(func(e EdgeConcept) bool {
		return e.QualityPointAt(now).WeightedDistance(point, w) <= maxDistance
	})
}

func (s *RelationshipSpace) ActiveEdges() []EdgeConcept {
	now := s.clock.Now()
	return s.filterEdges(func(e EdgeConcept) bool { return e.IsActiveAt(now) })
}

func (s *RelationshipSpace) ActiveHyperEdges() []HyperEdgeConcept {
	now := s.clock.Now()
	return s.filterHyperEdges(func(h HyperEdgeConcept) bool { return h.IsActiveAt(now) })
}

// EdgesBetween returns edges from a to b. Edges in symmetric categories
// match in either direction.
func (s *RelationshipSpace) EdgesBetween(a, b EntityRef) []EdgeConcept {
	return s.filterEdges(func(e EdgeConcept) bool { return e.Connects(a, b) })
}

func (s *RelationshipSpace) EdgesInvolving(ref EntityRef) []EdgeConcept {
	return s.filterEdges(func(e EdgeConcept) bool { return e.Involves(ref) })
}

func (s *RelationshipSpace) HyperEdgesInvolving(ref EntityRef) []HyperEdgeConcept {
	return s.filterHyperEdges(func(h HyperEdgeConcept) bool { return h.Participants.Contains(ref) })
}

// Tessellation returns the cached tessellation, or nil if the space changed
// since it was computed.
func (s *RelationshipSpace) Tessellation() *VoronoiTessellation {
	return s.tessellation
}

// SetTessellation caches t unless it was computed against an older version
// of the space.
func (s *RelationshipSpace) SetTessellation(t *VoronoiTessellation) bool {
	if t == nil || t.SpaceVersion != s.version {
		return false
	}
	s.tessellation = t
	return true
}

// Sites lists every concept in the space as tessellator input.
func (s *RelationshipSpace) Sites() []Site {
	sites := make([]Site, 0, s.RelationshipCount())
	for _, e := range s.Edges() {
		sites = append(sites, Site{ID: e.ID, Kind: AggregateEdge, Category: e.Category, Position: e.Position})
	}
	for _, h := range s.HyperEdges() {
		sites = append(sites, Site{ID: h.ID, Kind: AggregateHyperEdge, Category: h.Category, Position: h.Position})
	}
	return sites
}

type SpaceStats struct {
	ID               ConceptualSpaceID  `json:"id"`
	Name             string             `json:"name"`
	TopologyID       TopologicalSpaceID `json:"topology_id"`
	Version          uint64             `json:"version"`
	Edges            int                `json:"edges"`
	HyperEdges       int                `json:"hyperedges"`
	ActiveEdges      int                `json:"active_edges"`
	ActiveHyperEdges int                `json:"active_hyperedges"`
	Tessellated      bool               `json:"tessellated"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func (s *RelationshipSpace) Stats() SpaceStats {
	return SpaceStats{
		ID:               s.ID,
		Name:             s.Name,
		TopologyID:       s.TopologyID,
		Version:          s.version,
		Edges:            len(s.edges),
		HyperEdges:       len(s.hyperedges),
		ActiveEdges:      len(s.ActiveEdges()),
		ActiveHyperEdges: len(s.ActiveHyperEdges()),
		Tessellated:      s.tessellation != nil,
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

func (s *RelationshipSpace) filterEdges(keep func(EdgeConcept) bool) []EdgeConcept {
	out := make([]EdgeConcept, 0)
	for _, e := range s.edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *RelationshipSpace) filterHyperEdges(keep func(HyperEdgeConcept) bool) []HyperEdgeConcept {
	out := make([]HyperEdgeConcept, 0)
	for _, h := range s.hyperedges {
		if keep(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
