package service

import (
	"context"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"go.uber.org/zap"
)

type HyperEdgeResult struct {
	HyperEdge domain.HyperEdgeConcept `json:"hyperedge"`
	Events    []string                `json:"events"`
	Offset    int64                   `json:"offset,omitempty"`
}

// HyperEdgeService handles hyperedge commands the same way EdgeService
// handles edge commands. Participants are resolved on creation and when
// added.
type HyperEdgeService struct {
	events   domain.EventStore
	space    *SpaceService
	resolver domain.EntityResolver
	profiles domain.ProfileSet
	clock    domain.Clock
	logger   *zap.Logger
}

func NewHyperEdgeService(es domain.EventStore, space *SpaceService, logger *zap.Logger) *HyperEdgeService {
	return &HyperEdgeService{
		events: es,
		space:  space,
		clock:  domain.SystemClock,
		logger: logger,
	}
}

func (s *HyperEdgeService) SetResolver(r domain.EntityResolver) {
	s.resolver = r
}

func (s *HyperEdgeService) SetProfiles(p domain.ProfileSet) {
	s.profiles = p
}

func (s *HyperEdgeService) SetClock(c domain.Clock) {
	s.clock = c
}

func (s *HyperEdgeService) Handle(ctx context.Context, cmd domain.Command) (*HyperEdgeResult, error) {
	start := time.Now()
	var (
		res *HyperEdgeResult
		err error
	)
	if c, ok := cmd.(domain.CreateHyperEdge); ok {
		res, err = s.create(ctx, c)
	} else {
		res, err = s.execute(ctx, cmd)
	}
	observeCommand(cmd.CommandKind(), start, res != nil && len(res.Events) > 0, err)
	if err != nil {
		s.logger.Debug("hyperedge command failed",
			zap.String("command", cmd.CommandKind()),
			zap.String("relationship_id", cmd.TargetID().String()),
			zap.Error(err))
	}
	return res, err
}

func (s *HyperEdgeService) Create(ctx context.Context, cmd domain.CreateHyperEdge) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) Activate(ctx context.Context, cmd domain.ActivateHyperEdge) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) AddParticipant(ctx context.Context, cmd domain.AddParticipant) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) RemoveParticipant(ctx context.Context, cmd domain.RemoveParticipant) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) ChangeParticipantRole(ctx context.Context, cmd domain.ChangeParticipantRole) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) BeginRestructuring(ctx context.Context, cmd domain.BeginRestructuring) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) Terminate(ctx context.Context, cmd domain.TerminateHyperEdge) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) UpdateQuality(ctx context.Context, cmd domain.UpdateHyperEdgeQuality) (*HyperEdgeResult, error) {
	return s.Handle(ctx, cmd)
}

func (s *HyperEdgeService) create(ctx context.Context, cmd domain.CreateHyperEdge) (*HyperEdgeResult, error) {
	now := s.clock.Now()
	if cmd.Quality == nil {
		q := s.profiles.For(cmd.Category).Quality(now)
		cmd.Quality = &q
	}

	created, err := domain.DecideCreateHyperEdge(cmd, now)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.EntityRef, 0, len(cmd.Participants))
	for _, p := range cmd.Participants {
		refs = append(refs, p.Entity)
	}
	if err := resolveAll(ctx, s.resolver, refs...); err != nil {
		return nil, err
	}

	var h domain.HyperEdgeConcept
	if h, err = h.Apply(created, now); err != nil {
		return nil, err
	}

	offset, err := appendEvents(ctx, s.events, h.ID, 0, []domain.Event{created})
	if err != nil {
		return nil, err
	}

	s.logger.Info("hyperedge created",
		zap.String("relationship_id", h.ID.String()),
		zap.String("category", string(h.Category)),
		zap.Int("participants", h.ParticipantCount()))

	s.publish(h)
	return &HyperEdgeResult{HyperEdge: h, Events: []string{created.EventType()}, Offset: offset}, nil
}

func (s *HyperEdgeService) execute(ctx context.Context, cmd domain.Command) (*HyperEdgeResult, error) {
	stored, err := readStream(ctx, s.events, cmd.TargetID(), domain.AggregateHyperEdge)
	if err != nil {
		return nil, err
	}
	h, err := replayHyperEdge(stored)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	decided, err := h.Decide(cmd, now)
	if err != nil {
		return nil, err
	}
	if len(decided) == 0 {
		return &HyperEdgeResult{HyperEdge: h, Events: []string{}}, nil
	}
	if add, ok := cmd.(domain.AddParticipant); ok {
		if err := resolveAll(ctx, s.resolver, add.Participant); err != nil {
			return nil, err
		}
	}

	next := h
	events := make([]domain.Event, 0, len(decided))
	names := make([]string, 0, len(decided))
	for _, ev := range decided {
		if next, err = next.Apply(ev, now); err != nil {
			return nil, err
		}
		events = append(events, ev)
		names = append(names, ev.EventType())
	}

	offset, err := appendEvents(ctx, s.events, h.ID, len(stored), events)
	if err != nil {
		return nil, err
	}

	s.logger.Info("hyperedge updated",
		zap.String("relationship_id", next.ID.String()),
		zap.String("command", cmd.CommandKind()),
		zap.Strings("events", names),
		zap.Uint64("version", next.Version),
		zap.String("state", string(next.State)),
		zap.Int("participants", next.ParticipantCount()))

	s.publish(next)
	return &HyperEdgeResult{HyperEdge: next, Events: names, Offset: offset}, nil
}

func (s *HyperEdgeService) publish(h domain.HyperEdgeConcept) {
	if s.space != nil {
		s.space.PutHyperEdge(h)
	}
}

func (s *HyperEdgeService) Get(ctx context.Context, id domain.RelationshipID) (*domain.HyperEdgeConcept, error) {
	stored, err := readStream(ctx, s.events, id, domain.AggregateHyperEdge)
	if err != nil {
		return nil, err
	}
	h, err := replayHyperEdge(stored)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *HyperEdgeService) History(ctx context.Context, id domain.RelationshipID) ([]domain.StoredEvent, error) {
	return readStream(ctx, s.events, id, domain.AggregateHyperEdge)
}
