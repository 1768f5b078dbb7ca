package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MinParticipants is the smallest membership an active hyperedge may have.
const MinParticipants = 2

type HyperEdgeState string

const (
	HyperEdgeStateForming       HyperEdgeState = "forming"
	HyperEdgeStateActive        HyperEdgeState = "active"
	HyperEdgeStateRestructuring HyperEdgeState = "restructuring"
	HyperEdgeStateDissolved     HyperEdgeState = "dissolved"
)

var hyperEdgeTransitions = map[HyperEdgeState][]HyperEdgeState{
	HyperEdgeStateForming:       {HyperEdgeStateActive, HyperEdgeStateDissolved},
	HyperEdgeStateActive:        {HyperEdgeStateRestructuring, HyperEdgeStateDissolved},
	HyperEdgeStateRestructuring: {HyperEdgeStateActive, HyperEdgeStateDissolved},
}

func (s HyperEdgeState) CanTransitionTo(to HyperEdgeState) bool {
	return slices.Contains(hyperEdgeTransitions[s], to)
}

func (s HyperEdgeState) ValidTransitions() []HyperEdgeState {
	return slices.Clone(hyperEdgeTransitions[s])
}

func (s HyperEdgeState) IsTerminal() bool {
	return s == HyperEdgeStateDissolved
}

// HyperEdgeConcept is an N-ary relationship. Membership lives in an
// IncidenceMatrix instead of source and target.
type HyperEdgeConcept struct {
	ID          RelationshipID       `json:"id"`
	ConceptID   ConceptID            `json:"concept_id"`
	Category    RelationshipCategory `json:"category"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`

	Participants IncidenceMatrix `json:"participants"`

	Quality  RelationshipQuality `json:"quality"`
	Position Point3              `json:"position"`

	KnowledgeLevel KnowledgeLevel `json:"knowledge_level"`
	Confidence     float64        `json:"confidence"`
	EvidenceCIDs   []string       `json:"evidence_cids"`

	State    HyperEdgeState `json:"state"`
	Validity ValidityPeriod `json:"validity"`

	Properties map[string]any `json:"properties"`
	Version    uint64         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (h HyperEdgeConcept) ParticipantCount() int {
	return h.Participants.Count()
}

func (h HyperEdgeConcept) IsActiveAt(now time.Time) bool {
	return h.State == HyperEdgeStateActive && h.Validity.IsActiveAt(now)
}

func (h HyperEdgeConcept) QualityPointAt(now time.Time) QualityPoint {
	return h.Quality.PointAt(now)
}

func (h HyperEdgeConcept) clone() HyperEdgeConcept {
	out := h
	out.Participants = h.Participants.Clone()
	out.Quality = h.Quality.clone()
	out.Validity = h.Validity.clone()
	out.EvidenceCIDs = slices.Clone(h.EvidenceCIDs)
	out.Properties = make(map[string]any, len(h.Properties))
	for k, v := range h.Properties {
		out.Properties[k] = v
	}
	if h.Description != nil {
		d := *h.Description
		out.Description = &d
	}
	return out
}

func insufficientParticipants(have int) error {
	return fmt.Errorf("%w: have %d", ErrInsufficientParticipants, have)
}

func hyperEdgeFromCreated(ev HyperEdgeCreated) (HyperEdgeConcept, error) {
	if ev.HyperEdgeID.IsZero() {
		return HyperEdgeConcept{}, invalidRelationship("HyperEdgeCreated is missing hyperedge_id")
	}
	if ev.CreatedAt.IsZero() {
		return HyperEdgeConcept{}, invalidRelationship("HyperEdgeCreated is missing created_at")
	}
	if strings.TrimSpace(ev.Name) == "" {
		return HyperEdgeConcept{}, invalidRelationship("hyperedge name is required")
	}
	if !ValidCategory(string(ev.Category)) {
		return HyperEdgeConcept{}, invalidRelationship("unknown category %q", ev.Category)
	}
	for _, p := range ev.InitialParticipants.Participants() {
		if err := p.EntityRef.Validate(); err != nil {
			return HyperEdgeConcept{}, err
		}
	}

	quality := DefaultQualityFor(ev.Category, ev.CreatedAt)
	if ev.Quality != nil {
		if err := ev.Quality.Validate(); err != nil {
			return HyperEdgeConcept{}, err
		}
		quality = ev.Quality.clone()
	}
	var desc *string
	if ev.Description != nil {
		d := *ev.Description
		desc = &d
	}

	return HyperEdgeConcept{
		ID:             ev.HyperEdgeID,
		ConceptID:      ev.ConceptID,
		Category:       ev.Category,
		Name:           ev.Name,
		Description:    desc,
		Participants:   ev.InitialParticipants.Clone(),
		Quality:        quality,
		Position:       quality.Position(),
		KnowledgeLevel: KnowledgeUnknown,
		EvidenceCIDs:   []string{},
		State:          HyperEdgeStateForming,
		Validity:       OngoingFrom(ev.CreatedAt),
		Properties:     map[string]any{},
		Version:        0,
		CreatedAt:      ev.CreatedAt,
		UpdatedAt:      ev.CreatedAt,
	}, nil
}

// Apply folds one event into the hyperedge. On error the receiver is
// returned unchanged.
func (h HyperEdgeConcept) Apply(ev HyperEdgeEvent, now time.Time) (HyperEdgeConcept, error) {
	if created, ok := ev.(HyperEdgeCreated); ok {
		if !h.ID.IsZero() {
			return h, invalidRelationship("hyperedge %s already created", h.ID)
		}
		return hyperEdgeFromCreated(created)
	}
	if h.ID.IsZero() {
		return h, invalidRelationship("%s applied before HyperEdgeCreated", ev.EventType())
	}
	if ev.AggregateID() != h.ID {
		return h, invalidRelationship("%s for %s applied to hyperedge %s", ev.EventType(), ev.AggregateID(), h.ID)
	}

	next := h.clone()
	switch v := ev.(type) {
	case HyperEdgeActivated:
		if err := next.transition(HyperEdgeStateActive); err != nil {
			return h, err
		}
		if next.Participants.Count() < MinParticipants {
			return h, insufficientParticipants(next.Participants.Count())
		}

	case ParticipantAdded:
		if h.State.IsTerminal() {
			return h, invalidRelationship("cannot add participants to %s hyperedge", h.State)
		}
		if err := v.Participant.Validate(); err != nil {
			return h, err
		}
		next.Participants.Add(v.Participant, v.Role, v.Weight, v.AddedAt)

	case ParticipantRemoved:
		if h.State.IsTerminal() {
			return h, invalidRelationship("cannot remove participants from %s hyperedge", h.State)
		}
		if !h.Participants.Contains(v.Participant) {
			return h, invalidRelationship("%s is not a participant", v.Participant)
		}
		if h.Participants.Count() <= MinParticipants {
			return h, insufficientParticipants(h.Participants.Count())
		}
		next.Participants.Remove(v.Participant)

	case ParticipantRoleChanged:
		if h.State.IsTerminal() {
			return h, invalidRelationship("cannot change roles in %s hyperedge", h.State)
		}
		if !next.Participants.ChangeRole(v.Participant, v.NewRole, v.ChangedAt) {
			return h, invalidRelationship("%s is not a participant", v.Participant)
		}

	case RestructuringStarted:
		if err := next.transition(HyperEdgeStateRestructuring); err != nil {
			return h, err
		}

	case HyperEdgeTerminated:
		if err := next.transition(HyperEdgeStateDissolved); err != nil {
			return h, err
		}
		if v.TerminatedAt.IsZero() {
			return h, invalidRelationship("HyperEdgeTerminated is missing terminated_at")
		}
		next.Validity = next.Validity.End(v.TerminatedAt, v.Reason)

	case HyperEdgeQualityUpdated:
		if h.State.IsTerminal() {
			return h, invalidRelationship("cannot update quality of %s hyperedge", h.State)
		}
		if err := v.NewQuality.Validate(); err != nil {
			return h, err
		}
		next.Quality = v.NewQuality.clone()
		next.Position = next.Quality.Position()

	default:
		return h, invalidRelationship("unsupported hyperedge event %s", ev.EventType())
	}

	next.Version = h.Version + 1
	next.UpdatedAt = notBefore(now, next.CreatedAt)
	return next, nil
}

func (h *HyperEdgeConcept) transition(to HyperEdgeState) error {
	if !h.State.CanTransitionTo(to) {
		return &TransitionError{From: string(h.State), To: string(to)}
	}
	h.State = to
	return nil
}

// HyperEdgeFromEvents rebuilds a hyperedge from its ordered history.
func HyperEdgeFromEvents(events []HyperEdgeEvent, clock Clock) (HyperEdgeConcept, error) {
	if len(events) == 0 {
		return HyperEdgeConcept{}, invalidRelationship("no events provided")
	}
	created, ok := events[0].(HyperEdgeCreated)
	if !ok {
		return HyperEdgeConcept{}, invalidRelationship("first event must be HyperEdgeCreated, got %s", events[0].EventType())
	}
	h, err := hyperEdgeFromCreated(created)
	if err != nil {
		return HyperEdgeConcept{}, err
	}
	for _, ev := range events[1:] {
		h, err = h.Apply(ev, clock.Now())
		if err != nil {
			return HyperEdgeConcept{}, err
		}
	}
	return h, nil
}

func DecideCreateHyperEdge(cmd CreateHyperEdge, now time.Time) (HyperEdgeCreated, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return HyperEdgeCreated{}, invalidRelationship("hyperedge name is required")
	}
	if !ValidCategory(string(cmd.Category)) {
		return HyperEdgeCreated{}, invalidRelationship("unknown category %q", cmd.Category)
	}

	participants := NewIncidenceMatrix()
	for _, p := range cmd.Participants {
		if err := p.Entity.Validate(); err != nil {
			return HyperEdgeCreated{}, err
		}
		role, err := participantRole(p.Role)
		if err != nil {
			return HyperEdgeCreated{}, err
		}
		participants.Add(p.Entity, role, p.Weight, now)
	}

	id := cmd.HyperEdgeID
	if id.IsZero() {
		id = NewRelationshipID()
	}
	quality := DefaultQualityFor(cmd.Category, now)
	if cmd.Quality != nil {
		if err := cmd.Quality.Validate(); err != nil {
			return HyperEdgeCreated{}, err
		}
		quality = cmd.Quality.clone()
	}

	return HyperEdgeCreated{
		EventMeta:           newEventMeta(cmd.Identity),
		HyperEdgeID:         id,
		ConceptID:           NewConceptID(),
		Name:                cmd.Name,
		Category:            cmd.Category,
		Description:         cmd.Description,
		Quality:             &quality,
		InitialParticipants: participants,
		CreatedBy:           cmd.CreatedBy,
		CreatedAt:           now,
	}, nil
}

// participantRole defaults an empty role to member.
func participantRole(r ParticipantRole) (ParticipantRole, error) {
	if r == "" {
		return RoleMember, nil
	}
	if !ValidParticipantRole(string(r)) {
		return "", invalidRelationship("unknown participant role %q", r)
	}
	return r, nil
}

// Decide validates cmd against the current hyperedge and returns the events
// it produces. An empty result with no error means the command was a no-op.
func (h HyperEdgeConcept) Decide(cmd Command, now time.Time) ([]HyperEdgeEvent, error) {
	if _, ok := cmd.(CreateHyperEdge); ok {
		return nil, invalidRelationship("hyperedge %s already created", h.ID)
	}
	if cmd.TargetID() != h.ID {
		return nil, invalidRelationship("%s for %s sent to hyperedge %s", cmd.CommandKind(), cmd.TargetID(), h.ID)
	}

	switch c := cmd.(type) {
	case ActivateHyperEdge:
		if err := h.checkTransition(HyperEdgeStateActive); err != nil {
			return nil, err
		}
		if h.Participants.Count() < MinParticipants {
			return nil, insufficientParticipants(h.Participants.Count())
		}
		return oneH(HyperEdgeActivated{EventMeta: newEventMeta(c.Identity), HyperEdgeID: h.ID, ActivatedBy: c.ActivatedBy, ActivatedAt: now})

	case AddParticipant:
		if h.State.IsTerminal() {
			return nil, invalidRelationship("cannot add participants to %s hyperedge", h.State)
		}
		if err := c.Participant.Validate(); err != nil {
			return nil, err
		}
		role, err := participantRole(c.Role)
		if err != nil {
			return nil, err
		}
		if h.Participants.Contains(c.Participant) {
			return nil, nil
		}
		return oneH(ParticipantAdded{
			EventMeta:   newEventMeta(c.Identity),
			HyperEdgeID: h.ID,
			Participant: c.Participant,
			Role:        role,
			Weight:      clampUnit(c.Weight),
			AddedBy:     c.AddedBy,
			AddedAt:     now,
		})

	case RemoveParticipant:
		if h.State.IsTerminal() {
			return nil, invalidRelationship("cannot remove participants from %s hyperedge", h.State)
		}
		if !h.Participants.Contains(c.Participant) {
			return nil, invalidRelationship("%s is not a participant", c.Participant)
		}
		if h.Participants.Count() <= MinParticipants {
			return nil, insufficientParticipants(h.Participants.Count())
		}
		return oneH(ParticipantRemoved{
			EventMeta:   newEventMeta(c.Identity),
			HyperEdgeID: h.ID,
			Participant: c.Participant,
			Reason:      c.Reason,
			RemovedBy:   c.RemovedBy,
			RemovedAt:   now,
		})

	case ChangeParticipantRole:
		if h.State.IsTerminal() {
			return nil, invalidRelationship("cannot change roles in %s hyperedge", h.State)
		}
		entry, ok := h.Participants.Get(c.Participant)
		if !ok {
			return nil, invalidRelationship("%s is not a participant", c.Participant)
		}
		role, err := participantRole(c.NewRole)
		if err != nil {
			return nil, err
		}
		if entry.Role == role {
			return nil, nil
		}
		return oneH(ParticipantRoleChanged{
			EventMeta:   newEventMeta(c.Identity),
			HyperEdgeID: h.ID,
			Participant: c.Participant,
			OldRole:     entry.Role,
			NewRole:     role,
			ChangedBy:   c.ChangedBy,
			ChangedAt:   now,
		})

	case BeginRestructuring:
		if err := h.checkTransition(HyperEdgeStateRestructuring); err != nil {
			return nil, err
		}
		return oneH(RestructuringStarted{EventMeta: newEventMeta(c.Identity), HyperEdgeID: h.ID, Reason: c.Reason, StartedBy: c.StartedBy, StartedAt: now})

	case TerminateHyperEdge:
		if err := h.checkTransition(HyperEdgeStateDissolved); err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.Reason) == "" {
			return nil, invalidRelationship("termination reason is required")
		}
		return oneH(HyperEdgeTerminated{EventMeta: newEventMeta(c.Identity), HyperEdgeID: h.ID, Reason: c.Reason, TerminatedBy: c.TerminatedBy, TerminatedAt: now})

	case UpdateHyperEdgeQuality:
		if h.State.IsTerminal() {
			return nil, invalidRelationship("cannot update quality of %s hyperedge", h.State)
		}
		if err := c.Quality.Validate(); err != nil {
			return nil, err
		}
		return oneH(HyperEdgeQualityUpdated{
			EventMeta:   newEventMeta(c.Identity),
			HyperEdgeID: h.ID,
			OldQuality:  h.Quality.clone(),
			NewQuality:  c.Quality.clone(),
			Reason:      c.Reason,
			UpdatedAt:   now,
		})
	}

	return nil, invalidRelationship("unsupported hyperedge command %s", cmd.CommandKind())
}

func (h HyperEdgeConcept) checkTransition(to HyperEdgeState) error {
	if !h.State.CanTransitionTo(to) {
		return &TransitionError{From: string(h.State), To: string(to)}
	}
	return nil
}

func oneH(ev HyperEdgeEvent) ([]HyperEdgeEvent, error) {
	return []HyperEdgeEvent{ev}, nil
}
