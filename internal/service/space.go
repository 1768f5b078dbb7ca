package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"go.uber.org/zap"
)

// SpaceService owns the in-memory RelationshipSpace that backs similarity
// and topology queries. The event store stays the source of truth; the
// space is rebuilt from it at startup and kept current by the command
// services.
type SpaceService struct {
	mu     sync.RWMutex
	space  *domain.RelationshipSpace
	clock  domain.Clock
	logger *zap.Logger
}

func NewSpaceService(name string, clock domain.Clock, logger *zap.Logger) *SpaceService {
	return &SpaceService{
		space:  domain.NewRelationshipSpace(name, domain.NewTopologicalSpaceID(), clock),
		clock:  clock,
		logger: logger,
	}
}

// Rebuild replays every stored edge and hyperedge into the space.
func (s *SpaceService) Rebuild(ctx context.Context, es domain.EventStore) error {
	edgeIDs, err := es.ListAggregates(ctx, domain.AggregateEdge)
	if err != nil {
		return fmt.Errorf("list edges: %w", err)
	}
	hyperIDs, err := es.ListAggregates(ctx, domain.AggregateHyperEdge)
	if err != nil {
		return fmt.Errorf("list hyperedges: %w", err)
	}

	edges := make([]domain.EdgeConcept, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		stored, err := readStream(ctx, es, id, domain.AggregateEdge)
		if err != nil {
			return err
		}
		edge, err := replayEdge(stored)
		if err != nil {
			return err
		}
		edges = append(edges, edge)
	}

	hyperedges := make([]domain.HyperEdgeConcept, 0, len(hyperIDs))
	for _, id := range hyperIDs {
		stored, err := readStream(ctx, es, id, domain.AggregateHyperEdge)
		if err != nil {
			return err
		}
		h, err := replayHyperEdge(stored)
		if err != nil {
			return err
		}
		hyperedges = append(hyperedges, h)
	}

	s.mu.Lock()
	for _, e := range edges {
		s.space.AddEdge(e)
	}
	for _, h := range hyperedges {
		s.space.AddHyperEdge(h)
	}
	s.recordSizeLocked()
	s.mu.Unlock()

	s.logger.Info("relationship space rebuilt",
		zap.String("space", s.space.Name),
		zap.Int("edges", len(edges)),
		zap.Int("hyperedges", len(hyperedges)))
	return nil
}

// PutEdge stores e unless the space already holds a newer version of it.
// It reports whether e was stored.
func (s *SpaceService) PutEdge(e domain.EdgeConcept) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.space.Edge(e.ID); ok && cur.Version > e.Version {
		s.logger.Debug("skipping stale edge",
			zap.String("edge_id", e.ID.String()),
			zap.Uint64("version", e.Version),
			zap.Uint64("current_version", cur.Version))
		return false
	}
	s.space.AddEdge(e)
	s.recordSizeLocked()
	return true
}

// PutHyperEdge stores h unless the space already holds a newer version of it.
func (s *SpaceService) PutHyperEdge(h domain.HyperEdgeConcept) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.space.HyperEdge(h.ID); ok && cur.Version > h.Version {
		s.logger.Debug("skipping stale hyperedge",
			zap.String("hyperedge_id", h.ID.String()),
			zap.Uint64("version", h.Version),
			zap.Uint64("current_version", cur.Version))
		return false
	}
	s.space.AddHyperEdge(h)
	s.recordSizeLocked()
	return true
}

func (s *SpaceService) recordSizeLocked() {
	st := s.space.Stats()
	spaceRelationships.WithLabelValues(string(domain.AggregateEdge)).Set(float64(st.Edges))
	spaceRelationships.WithLabelValues(string(domain.AggregateHyperEdge)).Set(float64(st.HyperEdges))
}

func (s *SpaceService) Edge(id domain.RelationshipID) (domain.EdgeConcept, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.Edge(id)
}

func (s *SpaceService) HyperEdge(id domain.RelationshipID) (domain.HyperEdgeConcept, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.HyperEdge(id)
}

// FindSimilar returns edges within maxDistance of point, nearest first.
// A limit of zero or less returns every match.
func (s *SpaceService) FindSimilar(point domain.QualityPoint, maxDistance float64, limit int) []domain.SimilarEdge {
	return s.FindSimilarWeighted(point, maxDistance, domain.DefaultWeights(), limit)
}

func (s *SpaceService) FindSimilarWeighted(point domain.QualityPoint, maxDistance float64, w domain.QualityWeights, limit int) []domain.SimilarEdge {
	s.mu.RLock()
	edges := s.space.FindSimilarEdgesWeighted(point, maxDistance, w)
	s.mu.RUnlock()

	now := s.clock.Now()
	out := make([]domain.SimilarEdge, 0, len(edges))
	for _, e := range edges {
		out = append(out, domain.SimilarEdge{
			EdgeID:   e.ID,
			Category: e.Category,
			Name:     e.Name,
			State:    e.State,
			Distance: e.QualityPointAt(now).WeightedDistance(point, w),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *SpaceService) ActiveEdges() []domain.EdgeConcept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.ActiveEdges()
}

func (s *SpaceService) ActiveHyperEdges() []domain.HyperEdgeConcept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.ActiveHyperEdges()
}

func (s *SpaceService) EdgesBetween(a, b domain.EntityRef) []domain.EdgeConcept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.EdgesBetween(a, b)
}

func (s *SpaceService) EdgesInvolving(ref domain.EntityRef) []domain.EdgeConcept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.EdgesInvolving(ref)
}

func (s *SpaceService) HyperEdgesInvolving(ref domain.EntityRef) []domain.HyperEdgeConcept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.HyperEdgesInvolving(ref)
}

func (s *SpaceService) Stats() domain.SpaceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.Stats()
}

// Tessellation returns the cached tessellation, or nil when the space has
// changed since it was last computed.
func (s *SpaceService) Tessellation() *domain.VoronoiTessellation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.Tessellation()
}

// snapshot returns the tessellator input together with the space version
// it was taken at.
func (s *SpaceService) snapshot() (domain.ConceptualSpaceID, uint64, []domain.Site) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.space.ID, s.space.Version(), s.space.Sites()
}

func (s *SpaceService) setTessellation(t *domain.VoronoiTessellation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.space.SetTessellation(t)
}
