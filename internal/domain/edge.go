package domain

import (
	"slices"
	"strings"
	"time"
)

type EdgeState string

const (
	EdgeStateProposed   EdgeState = "proposed"
	EdgeStateActive     EdgeState = "active"
	EdgeStateSuspended  EdgeState = "suspended"
	EdgeStateTerminated EdgeState = "terminated"
	EdgeStateRejected   EdgeState = "rejected"
)

var edgeTransitions = map[EdgeState][]EdgeState{
	EdgeStateProposed:  {EdgeStateActive, EdgeStateRejected},
	EdgeStateActive:    {EdgeStateSuspended, EdgeStateTerminated},
	EdgeStateSuspended: {EdgeStateActive, EdgeStateTerminated},
}

func (s EdgeState) CanTransitionTo(to EdgeState) bool {
	return slices.Contains(edgeTransitions[s], to)
}

func (s EdgeState) ValidTransitions() []EdgeState {
	return slices.Clone(edgeTransitions[s])
}

func (s EdgeState) IsTerminal() bool {
	return s == EdgeStateTerminated || s == EdgeStateRejected
}

// EdgeConcept is a binary relationship positioned in the quality space.
// It is a value: Apply returns a new EdgeConcept and never mutates the
// receiver.
type EdgeConcept struct {
	ID          RelationshipID       `json:"id"`
	ConceptID   ConceptID            `json:"concept_id"`
	Source      EntityRef            `json:"source"`
	Target      EntityRef            `json:"target"`
	Category    RelationshipCategory `json:"category"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`

	Quality  RelationshipQuality `json:"quality"`
	Position Point3              `json:"position"`

	KnowledgeLevel KnowledgeLevel `json:"knowledge_level"`
	Confidence     float64        `json:"confidence"`
	EvidenceCIDs   []string       `json:"evidence_cids"`

	State    EdgeState      `json:"state"`
	Validity ValidityPeriod `json:"validity"`

	Properties map[string]any `json:"properties"`
	Version    uint64         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (e EdgeConcept) QualityPointAt(now time.Time) QualityPoint {
	return e.Quality.PointAt(now)
}

func (e EdgeConcept) IsActiveAt(now time.Time) bool {
	return e.State == EdgeStateActive && e.Validity.IsActiveAt(now)
}

func (e EdgeConcept) IsSymmetric() bool {
	return e.Category.IsSymmetric()
}

func (e EdgeConcept) SimilarityAt(other EdgeConcept, now time.Time) float64 {
	return Similarity(e.QualityPointAt(now), other.QualityPointAt(now))
}

// Connects reports whether the edge runs from a to b. Symmetric categories
// also match b to a.
func (e EdgeConcept) Connects(a, b EntityRef) bool {
	if sameEntity(e.Source, a) && sameEntity(e.Target, b) {
		return true
	}
	return e.IsSymmetric() && sameEntity(e.Source, b) && sameEntity(e.Target, a)
}

// Involves reports whether ref is either endpoint.
func (e EdgeConcept) Involves(ref EntityRef) bool {
	return sameEntity(e.Source, ref) || sameEntity(e.Target, ref)
}

func sameEntity(a, b EntityRef) bool {
	return a.Type == b.Type && a.ID == b.ID
}

func (e EdgeConcept) clone() EdgeConcept {
	out := e
	out.Quality = e.Quality.clone()
	out.Validity = e.Validity.clone()
	out.EvidenceCIDs = slices.Clone(e.EvidenceCIDs)
	out.Properties = make(map[string]any, len(e.Properties))
	for k, v := range e.Properties {
		out.Properties[k] = v
	}
	if e.Description != nil {
		d := *e.Description
		out.Description = &d
	}
	return out
}

func edgeFromCreated(ev EdgeCreated) (EdgeConcept, error) {
	if ev.EdgeID.IsZero() {
		return EdgeConcept{}, invalidRelationship("EdgeCreated is missing edge_id")
	}
	if ev.CreatedAt.IsZero() {
		return EdgeConcept{}, invalidRelationship("EdgeCreated is missing created_at")
	}
	if err := validateEndpoints(ev.Source, ev.Target, ev.Category); err != nil {
		return EdgeConcept{}, err
	}
	if strings.TrimSpace(ev.Name) == "" {
		return EdgeConcept{}, invalidRelationship("edge name is required")
	}

	quality := DefaultQualityFor(ev.Category, ev.CreatedAt)
	if ev.Quality != nil {
		if err := ev.Quality.Validate(); err != nil {
			return EdgeConcept{}, err
		}
		quality = ev.Quality.clone()
	}
	var desc *string
	if ev.Description != nil {
		d := *ev.Description
		desc = &d
	}

	return EdgeConcept{
		ID:             ev.EdgeID,
		ConceptID:      ev.ConceptID,
		Source:         ev.Source,
		Target:         ev.Target,
		Category:       ev.Category,
		Name:           ev.Name,
		Description:    desc,
		Quality:        quality,
		Position:       quality.Position(),
		KnowledgeLevel: KnowledgeUnknown,
		EvidenceCIDs:   []string{},
		State:          EdgeStateProposed,
		Validity:       OngoingFrom(ev.CreatedAt),
		Properties:     map[string]any{},
		Version:        0,
		CreatedAt:      ev.CreatedAt,
		UpdatedAt:      ev.CreatedAt,
	}, nil
}

func validateEndpoints(source, target EntityRef, category RelationshipCategory) error {
	if err := source.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	if !ValidCategory(string(category)) {
		return invalidRelationship("unknown category %q", category)
	}
	if sameEntity(source, target) && !category.AllowsReflexive() {
		return invalidRelationship("source and target are the same entity %s", source)
	}
	return nil
}

// Apply folds one event into the edge. The creating event sets version 0
// and every later state change adds one. Re-adding known evidence is a
// no-op. On error the receiver is returned unchanged.
func (e EdgeConcept) Apply(ev EdgeEvent, now time.Time) (EdgeConcept, error) {
	if created, ok := ev.(EdgeCreated); ok {
		if !e.ID.IsZero() {
			return e, invalidRelationship("edge %s already created", e.ID)
		}
		return edgeFromCreated(created)
	}
	if e.ID.IsZero() {
		return e, invalidRelationship("%s applied before EdgeCreated", ev.EventType())
	}
	if ev.AggregateID() != e.ID {
		return e, invalidRelationship("%s for %s applied to edge %s", ev.EventType(), ev.AggregateID(), e.ID)
	}

	next := e.clone()
	switch v := ev.(type) {
	case EdgeActivated:
		if err := next.transition(EdgeStateActive); err != nil {
			return e, err
		}

	case EdgeSuspended:
		if err := next.transition(EdgeStateSuspended); err != nil {
			return e, err
		}
		if v.Reason != nil {
			next.Properties["suspension_reason"] = *v.Reason
		}

	case EdgeTerminated:
		if err := next.transition(EdgeStateTerminated); err != nil {
			return e, err
		}
		if v.TerminatedAt.IsZero() {
			return e, invalidRelationship("EdgeTerminated is missing terminated_at")
		}
		next.Validity = next.Validity.End(v.TerminatedAt, v.Reason)

	case EdgeRejected:
		if err := next.transition(EdgeStateRejected); err != nil {
			return e, err
		}
		if v.Reason != nil {
			next.Properties["rejection_reason"] = *v.Reason
		}

	case EdgeQualityUpdated:
		if e.State.IsTerminal() {
			return e, invalidRelationship("cannot update quality of %s edge", e.State)
		}
		if err := v.NewQuality.Validate(); err != nil {
			return e, err
		}
		next.Quality = v.NewQuality.clone()
		next.Position = next.Quality.Position()

	case EdgeEvidenceAdded:
		if v.EvidenceCID == "" {
			return e, invalidRelationship("EdgeEvidenceAdded is missing evidence_cid")
		}
		if slices.Contains(e.EvidenceCIDs, v.EvidenceCID) {
			return e, nil
		}
		next.EvidenceCIDs = append(next.EvidenceCIDs, v.EvidenceCID)
		next.Confidence = evidenceConfidence(len(next.EvidenceCIDs))

	case EdgeKnowledgeProgressed:
		if !ValidKnowledgeLevel(string(v.ToLevel)) {
			return e, invalidRelationship("unknown knowledge level %q", v.ToLevel)
		}
		next.KnowledgeLevel = v.ToLevel
		next.Confidence = clampUnit(v.NewConfidence)

	case EdgePropertyUpdated:
		if e.State.IsTerminal() {
			return e, invalidRelationship("cannot update properties of %s edge", e.State)
		}
		if v.Key == "" {
			return e, invalidRelationship("EdgePropertyUpdated is missing key")
		}
		next.Properties[v.Key] = v.Value

	default:
		return e, invalidRelationship("unsupported edge event %s", ev.EventType())
	}

	next.Version = e.Version + 1
	next.UpdatedAt = notBefore(now, next.CreatedAt)
	return next, nil
}

func (e *EdgeConcept) transition(to EdgeState) error {
	if !e.State.CanTransitionTo(to) {
		return &TransitionError{From: string(e.State), To: string(to)}
	}
	e.State = to
	return nil
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

// EdgeFromEvents rebuilds an edge from its ordered history. The first event
// must be EdgeCreated. clock stamps UpdatedAt for each later event.
func EdgeFromEvents(events []EdgeEvent, clock Clock) (EdgeConcept, error) {
	if len(events) == 0 {
		return EdgeConcept{}, invalidRelationship("no events provided")
	}
	created, ok := events[0].(EdgeCreated)
	if !ok {
		return EdgeConcept{}, invalidRelationship("first event must be EdgeCreated, got %s", events[0].EventType())
	}
	edge, err := edgeFromCreated(created)
	if err != nil {
		return EdgeConcept{}, err
	}
	for _, ev := range events[1:] {
		edge, err = edge.Apply(ev, clock.Now())
		if err != nil {
			return EdgeConcept{}, err
		}
	}
	return edge, nil
}

// DecideCreateEdge validates a CreateEdge and produces its EdgeCreated.
func DecideCreateEdge(cmd CreateEdge, now time.Time) (EdgeCreated, error) {
	if err := validateEndpoints(cmd.Source, cmd.Target, cmd.Category); err != nil {
		return EdgeCreated{}, err
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return EdgeCreated{}, invalidRelationship("edge name is required")
	}

	id := cmd.EdgeID
	if id.IsZero() {
		id = NewRelationshipID()
	}
	quality := DefaultQualityFor(cmd.Category, now)
	if cmd.Quality != nil {
		if err := cmd.Quality.Validate(); err != nil {
			return EdgeCreated{}, err
		}
		quality = cmd.Quality.clone()
	}

	return EdgeCreated{
		EventMeta:   newEventMeta(cmd.Identity),
		EdgeID:      id,
		ConceptID:   NewConceptID(),
		Source:      cmd.Source,
		Target:      cmd.Target,
		Category:    cmd.Category,
		Name:        cmd.Name,
		Description: cmd.Description,
		Quality:     &quality,
		CreatedBy:   cmd.CreatedBy,
		CreatedAt:   now,
	}, nil
}

// Decide validates cmd against the current edge and returns the events it
// produces. An empty result with no error means the command was a no-op.
func (e EdgeConcept) Decide(cmd Command, now time.Time) ([]EdgeEvent, error) {
	if _, ok := cmd.(CreateEdge); ok {
		return nil, invalidRelationship("edge %s already created", e.ID)
	}
	if cmd.TargetID() != e.ID {
		return nil, invalidRelationship("%s for %s sent to edge %s", cmd.CommandKind(), cmd.TargetID(), e.ID)
	}

	switch c := cmd.(type) {
	case ActivateEdge:
		if err := e.checkTransition(EdgeStateActive); err != nil {
			return nil, err
		}
		return one(EdgeActivated{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, ActivatedBy: c.ActivatedBy, ActivatedAt: now})

	case ResumeEdge:
		if e.State != EdgeStateSuspended {
			return nil, &TransitionError{From: string(e.State), To: string(EdgeStateActive)}
		}
		return one(EdgeActivated{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, ActivatedBy: c.ResumedBy, ActivatedAt: now})

	case SuspendEdge:
		if err := e.checkTransition(EdgeStateSuspended); err != nil {
			return nil, err
		}
		return one(EdgeSuspended{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, Reason: c.Reason, SuspendedBy: c.SuspendedBy, SuspendedAt: now})

	case TerminateEdge:
		if err := e.checkTransition(EdgeStateTerminated); err != nil {
			return nil, err
		}
		if strings.TrimSpace(c.Reason) == "" {
			return nil, invalidRelationship("termination reason is required")
		}
		return one(EdgeTerminated{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, Reason: c.Reason, TerminatedBy: c.TerminatedBy, TerminatedAt: now})

	case RejectEdge:
		if err := e.checkTransition(EdgeStateRejected); err != nil {
			return nil, err
		}
		return one(EdgeRejected{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, Reason: c.Reason, RejectedBy: c.RejectedBy, RejectedAt: now})

	case UpdateEdgeQuality:
		if e.State.IsTerminal() {
			return nil, invalidRelationship("cannot update quality of %s edge", e.State)
		}
		if err := c.Quality.Validate(); err != nil {
			return nil, err
		}
		return one(EdgeQualityUpdated{
			EventMeta:  newEventMeta(c.Identity),
			EdgeID:     e.ID,
			OldQuality: e.Quality.clone(),
			NewQuality: c.Quality.clone(),
			Reason:     c.Reason,
			UpdatedAt:  now,
		})

	case AddEdgeEvidence:
		if c.EvidenceCID == "" {
			return nil, invalidRelationship("evidence cid is required")
		}
		if slices.Contains(e.EvidenceCIDs, c.EvidenceCID) {
			return nil, nil
		}
		return one(EdgeEvidenceAdded{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, EvidenceCID: c.EvidenceCID, EvidenceType: c.EvidenceType, AddedAt: now})

	case ProgressEdgeKnowledge:
		if !ValidKnowledgeLevel(string(c.ToLevel)) {
			return nil, invalidRelationship("unknown knowledge level %q", c.ToLevel)
		}
		return one(EdgeKnowledgeProgressed{
			EventMeta:     newEventMeta(c.Identity),
			EdgeID:        e.ID,
			FromLevel:     e.KnowledgeLevel,
			ToLevel:       c.ToLevel,
			NewConfidence: clampUnit(c.Confidence),
			Reason:        c.Reason,
			ProgressedAt:  now,
		})

	case UpdateEdgeProperty:
		if e.State.IsTerminal() {
			return nil, invalidRelationship("cannot update properties of %s edge", e.State)
		}
		if c.Key == "" {
			return nil, invalidRelationship("property key is required")
		}
		return one(EdgePropertyUpdated{EventMeta: newEventMeta(c.Identity), EdgeID: e.ID, Key: c.Key, Value: c.Value, UpdatedAt: now})
	}

	return nil, invalidRelationship("unsupported edge command %s", cmd.CommandKind())
}

func (e EdgeConcept) checkTransition(to EdgeState) error {
	if !e.State.CanTransitionTo(to) {
		return &TransitionError{From: string(e.State), To: string(to)}
	}
	return nil
}

func one(ev EdgeEvent) ([]EdgeEvent, error) {
	return []EdgeEvent{ev}, nil
}
