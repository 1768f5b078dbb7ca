package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageIdentity correlates a command with the events it caused. The core
// copies it through without interpreting it.
type MessageIdentity struct {
	MessageID     uuid.UUID `json:"message_id"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
}

// NewMessageIdentity starts a new conversation: the message is its own
// correlation and cause.
func NewMessageIdentity() MessageIdentity {
	id := newV7()
	return MessageIdentity{MessageID: id, CorrelationID: id, CausationID: id}
}

// Caused derives the identity of a message produced in response to m.
func (m MessageIdentity) Caused() MessageIdentity {
	if m.MessageID == uuid.Nil {
		return NewMessageIdentity()
	}
	corr := m.CorrelationID
	if corr == uuid.Nil {
		corr = m.MessageID
	}
	return MessageIdentity{MessageID: newV7(), CorrelationID: corr, CausationID: m.MessageID}
}

type EventMeta struct {
	EventID  uuid.UUID       `json:"event_id"`
	Identity MessageIdentity `json:"identity"`
}

func newEventMeta(cause MessageIdentity) EventMeta {
	return EventMeta{EventID: newV7(), Identity: cause.Caused()}
}

func (m EventMeta) Metadata() EventMeta { return m }

type Event interface {
	EventType() string
	Metadata() EventMeta
	AggregateID() RelationshipID
	OccurredAt() time.Time
}

type EdgeEvent interface {
	Event
	edgeEvent()
}

type HyperEdgeEvent interface {
	Event
	hyperEdgeEvent()
}

// Edge events

type EdgeCreated struct {
	EventMeta
	EdgeID      RelationshipID       `json:"edge_id"`
	ConceptID   ConceptID            `json:"concept_id"`
	Source      EntityRef            `json:"source"`
	Target      EntityRef            `json:"target"`
	Category    RelationshipCategory `json:"category"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Quality     *RelationshipQuality `json:"quality,omitempty"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
}

type EdgeActivated struct {
	EventMeta
	EdgeID      RelationshipID `json:"edge_id"`
	ActivatedBy string         `json:"activated_by"`
	ActivatedAt time.Time      `json:"activated_at"`
}

type EdgeSuspended struct {
	EventMeta
	EdgeID      RelationshipID `json:"edge_id"`
	Reason      *string        `json:"reason,omitempty"`
	SuspendedBy string         `json:"suspended_by"`
	SuspendedAt time.Time      `json:"suspended_at"`
}

type EdgeTerminated struct {
	EventMeta
	EdgeID       RelationshipID `json:"edge_id"`
	Reason       string         `json:"reason"`
	TerminatedBy string         `json:"terminated_by"`
	TerminatedAt time.Time      `json:"terminated_at"`
}

type EdgeRejected struct {
	EventMeta
	EdgeID     RelationshipID `json:"edge_id"`
	Reason     *string        `json:"reason,omitempty"`
	RejectedBy string         `json:"rejected_by"`
	RejectedAt time.Time      `json:"rejected_at"`
}

type EdgeQualityUpdated struct {
	EventMeta
	EdgeID     RelationshipID      `json:"edge_id"`
	OldQuality RelationshipQuality `json:"old_quality"`
	NewQuality RelationshipQuality `json:"new_quality"`
	Reason     string              `json:"reason"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type EdgeEvidenceAdded struct {
	EventMeta
	EdgeID       RelationshipID `json:"edge_id"`
	EvidenceCID  string         `json:"evidence_cid"`
	EvidenceType string         `json:"evidence_type"`
	AddedAt      time.Time      `json:"added_at"`
}

type EdgeKnowledgeProgressed struct {
	EventMeta
	EdgeID        RelationshipID `json:"edge_id"`
	FromLevel     KnowledgeLevel `json:"from_level"`
	ToLevel       KnowledgeLevel `json:"to_level"`
	NewConfidence float64        `json:"new_confidence"`
	Reason        string         `json:"reason"`
	ProgressedAt  time.Time      `json:"progressed_at"`
}

type EdgePropertyUpdated struct {
	EventMeta
	EdgeID    RelationshipID `json:"edge_id"`
	Key       string         `json:"key"`
	Value     any            `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (EdgeCreated) EventType() string             { return "EdgeCreated" }
func (EdgeActivated) EventType() string           { return "EdgeActivated" }
func (EdgeSuspended) EventType() string           { return "EdgeSuspended" }
func (EdgeTerminated) EventType() string          { return "EdgeTerminated" }
func (EdgeRejected) EventType() string            { return "EdgeRejected" }
func (EdgeQualityUpdated) EventType() string      { return "EdgeQualityUpdated" }
func (EdgeEvidenceAdded) EventType() string       { return "EdgeEvidenceAdded" }
func (EdgeKnowledgeProgressed) EventType() string { return "EdgeKnowledgeProgressed" }
func (EdgePropertyUpdated) EventType() string     { return "EdgePropertyUpdated" }

func (e EdgeCreated) AggregateID() RelationshipID             { return e.EdgeID }
func (e EdgeActivated) AggregateID() RelationshipID           { return e.EdgeID }
func (e EdgeSuspended) AggregateID() RelationshipID           { return e.EdgeID }
func (e EdgeTerminated) AggregateID() RelationshipID          { return e.EdgeID }
func (e EdgeRejected) AggregateID() RelationshipID            { return e.EdgeID }
func (e EdgeQualityUpdated) AggregateID() RelationshipID      { return e.EdgeID }
func (e EdgeEvidenceAdded) AggregateID() RelationshipID       { return e.EdgeID }
func (e EdgeKnowledgeProgressed) AggregateID() RelationshipID { return e.EdgeID }
func (e EdgePropertyUpdated) AggregateID() RelationshipID     { return e.EdgeID }

func (e EdgeCreated) OccurredAt() time.Time             { return e.CreatedAt }
func (e EdgeActivated) OccurredAt() time.Time           { return e.ActivatedAt }
func (e EdgeSuspended) OccurredAt() time.Time           { return e.SuspendedAt }
func (e EdgeTerminated) OccurredAt() time.Time          { return e.TerminatedAt }
func (e EdgeRejected) OccurredAt() time.Time            { return e.RejectedAt }
func (e EdgeQualityUpdated) OccurredAt() time.Time      { return e.UpdatedAt }
func (e EdgeEvidenceAdded) OccurredAt() time.Time       { return e.AddedAt }
func (e EdgeKnowledgeProgressed) OccurredAt() time.Time { return e.ProgressedAt }
func (e EdgePropertyUpdated) OccurredAt() time.Time     { return e.UpdatedAt }

func (EdgeCreated) edgeEvent()             {}
func (EdgeActivated) edgeEvent()           {}
func (EdgeSuspended) edgeEvent()           {}
func (EdgeTerminated) edgeEvent()          {}
func (EdgeRejected) edgeEvent()            {}
func (EdgeQualityUpdated) edgeEvent()      {}
func (EdgeEvidenceAdded) edgeEvent()       {}
func (EdgeKnowledgeProgressed) edgeEvent() {}
func (EdgePropertyUpdated) edgeEvent()     {}

// HyperEdge events

type HyperEdgeCreated struct {
	EventMeta
	HyperEdgeID         RelationshipID       `json:"hyperedge_id"`
	ConceptID           ConceptID            `json:"concept_id"`
	Name                string               `json:"name"`
	Category            RelationshipCategory `json:"category"`
	Description         *string              `json:"description,omitempty"`
	Quality             *RelationshipQuality `json:"quality,omitempty"`
	InitialParticipants IncidenceMatrix      `json:"initial_participants"`
	CreatedBy           string               `json:"created_by"`
	CreatedAt           time.Time            `json:"created_at"`
}

type HyperEdgeActivated struct {
	EventMeta
	HyperEdgeID RelationshipID `json:"hyperedge_id"`
	ActivatedBy string         `json:"activated_by"`
	ActivatedAt time.Time      `json:"activated_at"`
}

type ParticipantAdded struct {
	EventMeta
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	Participant EntityRef       `json:"participant"`
	Role        ParticipantRole `json:"role"`
	Weight      float64         `json:"weight"`
	AddedBy     string          `json:"added_by"`
	AddedAt     time.Time       `json:"added_at"`
}

type ParticipantRemoved struct {
	EventMeta
	HyperEdgeID RelationshipID `json:"hyperedge_id"`
	Participant EntityRef      `json:"participant"`
	Reason      string         `json:"reason"`
	RemovedBy   string         `json:"removed_by"`
	RemovedAt   time.Time      `json:"removed_at"`
}

type ParticipantRoleChanged struct {
	EventMeta
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	Participant EntityRef       `json:"participant"`
	OldRole     ParticipantRole `json:"old_role"`
	NewRole     ParticipantRole `json:"new_role"`
	ChangedBy   string          `json:"changed_by"`
	ChangedAt   time.Time       `json:"changed_at"`
}

// RestructuringStarted records an active hyperedge entering Restructuring
// while its membership is reworked.
type RestructuringStarted struct {
	EventMeta
	HyperEdgeID RelationshipID `json:"hyperedge_id"`
	Reason      string         `json:"reason"`
	StartedBy   string         `json:"started_by"`
	StartedAt   time.Time      `json:"started_at"`
}

type HyperEdgeTerminated struct {
	EventMeta
	HyperEdgeID  RelationshipID `json:"hyperedge_id"`
	Reason       string         `json:"reason"`
	TerminatedBy string         `json:"terminated_by"`
	TerminatedAt time.Time      `json:"terminated_at"`
}

type HyperEdgeQualityUpdated struct {
	EventMeta
	HyperEdgeID RelationshipID      `json:"hyperedge_id"`
	OldQuality  RelationshipQuality `json:"old_quality"`
	NewQuality  RelationshipQuality `json:"new_quality"`
	Reason      string              `json:"reason"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (HyperEdgeCreated) EventType() string        { return "HyperEdgeCreated" }
func (HyperEdgeActivated) EventType() string      { return "HyperEdgeActivated" }
func (ParticipantAdded) EventType() string        { return "ParticipantAdded" }
func (ParticipantRemoved) EventType() string      { return "ParticipantRemoved" }
func (ParticipantRoleChanged) EventType() string  { return "ParticipantRoleChanged" }
func (RestructuringStarted) EventType() string    { return "RestructuringStarted" }
func (HyperEdgeTerminated) EventType() string     { return "HyperEdgeTerminated" }
func (HyperEdgeQualityUpdated) EventType() string { return "HyperEdgeQualityUpdated" }

func (e HyperEdgeCreated) AggregateID() RelationshipID        { return e.HyperEdgeID }
func (e HyperEdgeActivated) AggregateID() RelationshipID      { return e.HyperEdgeID }
func (e ParticipantAdded) AggregateID() RelationshipID        { return e.HyperEdgeID }
func (e ParticipantRemoved) AggregateID() RelationshipID      { return e.HyperEdgeID }
func (e ParticipantRoleChanged) AggregateID() RelationshipID  { return e.HyperEdgeID }
func (e RestructuringStarted) AggregateID() RelationshipID    { return e.HyperEdgeID }
func (e HyperEdgeTerminated) AggregateID() RelationshipID     { return e.HyperEdgeID }
func (e HyperEdgeQualityUpdated) AggregateID() RelationshipID { return e.HyperEdgeID }

func (e HyperEdgeCreated) OccurredAt() time.Time        { return e.CreatedAt }
func (e HyperEdgeActivated) OccurredAt() time.Time      { return e.ActivatedAt }
func (e ParticipantAdded) OccurredAt() time.Time        { return e.AddedAt }
func (e ParticipantRemoved) OccurredAt() time.Time      { return e.RemovedAt }
func (e ParticipantRoleChanged) OccurredAt() time.Time  { return e.ChangedAt }
func (e RestructuringStarted) OccurredAt() time.Time    { return e.StartedAt }
func (e HyperEdgeTerminated) OccurredAt() time.Time     { return e.TerminatedAt }
func (e HyperEdgeQualityUpdated) OccurredAt() time.Time { return e.UpdatedAt }

func (HyperEdgeCreated) hyperEdgeEvent()        {}
func (HyperEdgeActivated) hyperEdgeEvent()      {}
func (ParticipantAdded) hyperEdgeEvent()        {}
func (ParticipantRemoved) hyperEdgeEvent()      {}
func (ParticipantRoleChanged) hyperEdgeEvent()  {}
func (RestructuringStarted) hyperEdgeEvent()    {}
func (HyperEdgeTerminated) hyperEdgeEvent()     {}
func (HyperEdgeQualityUpdated) hyperEdgeEvent() {}
