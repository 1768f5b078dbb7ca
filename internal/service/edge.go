package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"go.uber.org/zap"
)

// EdgeResult is the outcome of an edge command. Events is empty when the
// command changed nothing.
type EdgeResult struct {
	Edge   domain.EdgeConcept `json:"edge"`
	Events []string           `json:"events"`
	Offset int64              `json:"offset,omitempty"`
}

// EdgeService handles edge commands: read the stream, fold it, decide,
// append with the expected version, then publish the new state to the
// space and the projection.
type EdgeService struct {
	events     domain.EventStore
	space      *SpaceService
	projection domain.EdgeProjection
	resolver   domain.EntityResolver
	profiles   domain.ProfileSet
	clock      domain.Clock
	logger     *zap.Logger
}

func NewEdgeService(es domain.EventStore, space *SpaceService, logger *zap.Logger) *EdgeService {
	return &EdgeService{
		events: es,
		space:  space,
		clock:  domain.SystemClock,
		logger: logger,
	}
}

func (s *EdgeService) SetProjection(p domain.EdgeProjection) {
	s.projection = p
}

func (s *EdgeService) SetResolver(r domain.EntityResolver) {
	s.resolver = r
}

func (s *EdgeService) SetProfiles(p domain.ProfileSet) {
	s.profiles = p
}

func (s *EdgeService) SetClock(c domain.Clock) {
	s.clock = c
}

// Handle dispatches any edge command.
func (s *EdgeService) Handle(ctx context.Context, cmd domain.Command) (*EdgeResult, error) {
	start := time.Now()
	var (
		res *EdgeResult
		err error
	)
	if c, ok := cmd.(domain.CreateEdge); ok {
		res, err = s.create(ctx, c)
	} else {
		res, err = s.execute(ctx, cmd)
	}
	observeCommand(cmd.CommandKind(), start, res != nil && len(res.Events) > 0, err)
	if err != nil {
		s.logger.Debug("edge command failed",
			zap.String("command", cmd.CommandKind()),
			zap.String("relationship_id", cmd.TargetID().String()),
			zap.Error(err))
	}
	return res, err
}

func (s *EdgeService) Create(ctx context.Context, cmd domain.CreateEdge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) Activate(ctx context.Context, cmd domain.ActivateEdge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) Suspend(ctx context.Context, cmd domain.SuspendEdge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) Resume(ctx context.Context, cmd domain.ResumeEdge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) Terminate(ctx context.Context, cmd domain.TerminateEdge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) Reject(ctx context.Context, cmd domain.RejectEdge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) UpdateQuality(ctx context.Context, cmd domain.UpdateEdgeQuality) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) AddEvidence(ctx context.Context, cmd domain.AddEdgeEvidence) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) ProgressKnowledge(ctx context.Context, cmd domain.ProgressEdgeKnowledge) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) UpdateProperty(ctx context.Context, cmd domain.UpdateEdgeProperty) (*EdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *EdgeService) create(ctx context.Context, cmd domain.CreateEdge) (*EdgeResult, error) {
	now := s.clock.Now()
	if cmd.Quality == nil {
		q := s.profiles.For(cmd.Category).Quality(now)
		cmd.Quality = &q
	}

	created, err := domain.DecideCreateEdge(cmd, now)
	if err != nil {
		return nil, err
	}
	if err := resolveAll(ctx, s.resolver, cmd.Source, cmd.Target); err != nil {
		return nil, err
	}

	var edge domain.EdgeConcept
	if edge, err = edge.Apply(created, now); err != nil {
		return nil, err
	}

	offset, err := appendEvents(ctx, s.events, edge.ID, 0, []domain.Event{created})
	if err != nil {
		return nil, err
	}

	s.logger.Info("edge created",
		zap.String("relationship_id", edge.ID.String()),
		zap.String("category", string(edge.Category)),
		zap.String("source", edge.Source.String()),
		zap.String("target", edge.Target.String()))

	s.publish(ctx, edge)
	return &EdgeResult{Edge: edge, Events: []string{created.EventType()}, Offset: offset}, nil
}

func (s *EdgeService) execute(ctx context.Context, cmd domain.Command) (*EdgeResult, error) {
	stored, err := readStream(ctx, s.events, cmd.TargetID(), domain.AggregateEdge)
	if err != nil {
		return nil, err
	}
	edge, err := replayEdge(stored)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	decided, err := edge.Decide(cmd, now)
	if err != nil {
		return nil, err
	}
	if len(decided) == 0 {
		return &EdgeResult{Edge: edge, Events: []string{}}, nil
	}

	next := edge
	events := make([]domain.Event, 0, len(decided))
	names := make([]string, 0, len(decided))
	for _, ev := range decided {
		if next, err = next.Apply(ev, now); err != nil {
			return nil, err
		}
		events = append(events, ev)
		names = append(names, ev.EventType())
	}

	offset, err := appendEvents(ctx, s.events, edge.ID, len(stored), events)
	if err != nil {
		return nil, err
	}

	s.logger.Info("edge updated",
		zap.String("relationship_id", next.ID.String()),
		zap.String("command", cmd.CommandKind()),
		zap.Strings("events", names),
		zap.Uint64("version", next.Version),
		zap.String("state", string(next.State)))

	s.publish(ctx, next)
	return &EdgeResult{Edge: next, Events: names, Offset: offset}, nil
}

// publish pushes the committed edge into the read models. Projection
// failures are logged, not returned: the events are already durable.
func (s *EdgeService) publish(ctx context.Context, edge domain.EdgeConcept) {
	if s.space != nil {
		s.space.PutEdge(edge)
	}
	if s.projection == nil {
		return
	}
	if err := s.projection.Upsert(ctx, edge, edge.QualityPointAt(s.clock.Now())); err != nil {
		s.logger.Warn("edge projection upsert failed",
			zap.String("relationship_id", edge.ID.String()),
			zap.Error(err))
	}
}

// Get rebuilds an edge from its stored history.
func (s *EdgeService) Get(ctx context.Context, id domain.RelationshipID) (*domain.EdgeConcept, error) {
	stored, err := readStream(ctx, s.events, id, domain.AggregateEdge)
	if err != nil {
		return nil, err
	}
	edge, err := replayEdge(stored)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

func (s *EdgeService) History(ctx context.Context, id domain.RelationshipID) ([]domain.StoredEvent, error) {
	return readStream(ctx, s.events, id, domain.AggregateEdge)
}

// projectionSlack widens the projection query. A stored point differs from
// the live one only on the duration axis, so by at most 1.
const projectionSlack = 1.0

// FindSimilar returns edges within maxDistance of point, nearest first. A
// limit of zero or less returns every match. When a projection is configured
// it narrows the candidates and each one is measured again at the current
// time, since a stored duration coordinate falls behind for ongoing edges.
func (s *EdgeService) FindSimilar(ctx context.Context, point domain.QualityPoint, maxDistance float64, limit int) ([]domain.SimilarEdge, error) {
	if s.projection == nil {
		return s.space.FindSimilar(point, maxDistance, limit), nil
	}

	candidates, err := s.projection.FindSimilar(ctx, point, maxDistance+projectionSlack, 0)
	if err != nil {
		return nil, fmt.Errorf("find similar edges: %w", err)
	}

	now := s.clock.Now()
	out := make([]domain.SimilarEdge, 0, len(candidates))
	for _, c := range candidates {
		if s.space != nil {
			edge, ok := s.space.Edge(c.EdgeID)
			if !ok {
				continue
			}
			c = domain.SimilarEdge{
				EdgeID:   edge.ID,
				Category: edge.Category,
				Name:     edge.Name,
				State:    edge.State,
				Distance: edge.QualityPointAt(now).Distance(point),
			}
		}
		if c.Distance <= maxDistance {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
