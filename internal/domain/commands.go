package domain

// Command kinds double as the trailing token of command subjects.
const (
	CommandCreateEdge            = "create_edge"
	CommandActivateEdge          = "activate_edge"
	CommandSuspendEdge           = "suspend_edge"
	CommandResumeEdge            = "resume_edge"
	CommandTerminateEdge         = "terminate_edge"
	CommandRejectEdge            = "reject_edge"
	CommandUpdateEdgeQuality     = "update_edge_quality"
	CommandAddEdgeEvidence       = "add_edge_evidence"
	CommandProgressEdgeKnowledge = "progress_edge_knowledge"
	CommandUpdateEdgeProperty    = "update_edge_property"

	CommandCreateHyperEdge        = "create_hyperedge"
	CommandActivateHyperEdge      = "activate_hyperedge"
	CommandAddParticipant         = "add_participant"
	CommandRemoveParticipant      = "remove_participant"
	CommandChangeParticipantRole  = "change_participant_role"
	CommandRestructureHyperEdge   = "restructure_hyperedge"
	CommandTerminateHyperEdge     = "terminate_hyperedge"
	CommandUpdateHyperEdgeQuality = "update_hyperedge_quality"
)

type Command interface {
	CommandKind() string
	TargetID() RelationshipID
}

// CreateEdge proposes a binary relationship. EdgeID may be left zero to
// have one minted. A nil Quality falls back to the category profile.
type CreateEdge struct {
	Identity    MessageIdentity      `json:"identity"`
	EdgeID      RelationshipID       `json:"edge_id"`
	Source      EntityRef            `json:"source"`
	Target      EntityRef            `json:"target"`
	Category    RelationshipCategory `json:"category"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Quality     *RelationshipQuality `json:"quality,omitempty"`
	CreatedBy   string               `json:"created_by"`
}

type ActivateEdge struct {
	Identity    MessageIdentity `json:"identity"`
	EdgeID      RelationshipID  `json:"edge_id"`
	ActivatedBy string          `json:"activated_by"`
}

type SuspendEdge struct {
	Identity    MessageIdentity `json:"identity"`
	EdgeID      RelationshipID  `json:"edge_id"`
	Reason      *string         `json:"reason,omitempty"`
	SuspendedBy string          `json:"suspended_by"`
}

type ResumeEdge struct {
	Identity  MessageIdentity `json:"identity"`
	EdgeID    RelationshipID  `json:"edge_id"`
	ResumedBy string          `json:"resumed_by"`
}

type TerminateEdge struct {
	Identity     MessageIdentity `json:"identity"`
	EdgeID       RelationshipID  `json:"edge_id"`
	Reason       string          `json:"reason"`
	TerminatedBy string          `json:"terminated_by"`
}

type RejectEdge struct {
	Identity   MessageIdentity `json:"identity"`
	EdgeID     RelationshipID  `json:"edge_id"`
	Reason     *string         `json:"reason,omitempty"`
	RejectedBy string          `json:"rejected_by"`
}

type UpdateEdgeQuality struct {
	Identity MessageIdentity     `json:"identity"`
	EdgeID   RelationshipID      `json:"edge_id"`
	Quality  RelationshipQuality `json:"quality"`
	Reason   string              `json:"reason"`
}

type AddEdgeEvidence struct {
	Identity     MessageIdentity `json:"identity"`
	EdgeID       RelationshipID  `json:"edge_id"`
	EvidenceCID  string          `json:"evidence_cid"`
	EvidenceType string          `json:"evidence_type"`
}

type ProgressEdgeKnowledge struct {
	Identity   MessageIdentity `json:"identity"`
	EdgeID     RelationshipID  `json:"edge_id"`
	ToLevel    KnowledgeLevel  `json:"to_level"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
}

type UpdateEdgeProperty struct {
	Identity MessageIdentity `json:"identity"`
	EdgeID   RelationshipID  `json:"edge_id"`
	Key      string          `json:"key"`
	Value    any             `json:"value"`
}

func (CreateEdge) CommandKind() string            { return CommandCreateEdge }
func (ActivateEdge) CommandKind() string          { return CommandActivateEdge }
func (SuspendEdge) CommandKind() string           { return CommandSuspendEdge }
func (ResumeEdge) CommandKind() string            { return CommandResumeEdge }
func (TerminateEdge) CommandKind() string         { return CommandTerminateEdge }
func (RejectEdge) CommandKind() string            { return CommandRejectEdge }
func (UpdateEdgeQuality) CommandKind() string     { return CommandUpdateEdgeQuality }
func (AddEdgeEvidence) CommandKind() string       { return CommandAddEdgeEvidence }
func (ProgressEdgeKnowledge) CommandKind() string { return CommandProgressEdgeKnowledge }
func (UpdateEdgeProperty) CommandKind() string    { return CommandUpdateEdgeProperty }

func (c CreateEdge) TargetID() RelationshipID            { return c.EdgeID }
func (c ActivateEdge) TargetID() RelationshipID          { return c.EdgeID }
func (c SuspendEdge) TargetID() RelationshipID           { return c.EdgeID }
func (c ResumeEdge) TargetID() RelationshipID            { return c.EdgeID }
func (c TerminateEdge) TargetID() RelationshipID         { return c.EdgeID }
func (c RejectEdge) TargetID() RelationshipID            { return c.EdgeID }
func (c UpdateEdgeQuality) TargetID() RelationshipID     { return c.EdgeID }
func (c AddEdgeEvidence) TargetID() RelationshipID       { return c.EdgeID }
func (c ProgressEdgeKnowledge) TargetID() RelationshipID { return c.EdgeID }
func (c UpdateEdgeProperty) TargetID() RelationshipID    { return c.EdgeID }

// ParticipantSpec seeds a hyperedge participant at creation.
type ParticipantSpec struct {
	Entity EntityRef       `json:"entity"`
	Role   ParticipantRole `json:"role"`
	Weight float64         `json:"weight"`
}

type CreateHyperEdge struct {
	Identity     MessageIdentity      `json:"identity"`
	HyperEdgeID  RelationshipID       `json:"hyperedge_id"`
	Name         string               `json:"name"`
	Category     RelationshipCategory `json:"category"`
	Description  *string              `json:"description,omitempty"`
	Quality      *RelationshipQuality `json:"quality,omitempty"`
	Participants []ParticipantSpec    `json:"participants,omitempty"`
	CreatedBy    string               `json:"created_by"`
}

type ActivateHyperEdge struct {
	Identity    MessageIdentity `json:"identity"`
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	ActivatedBy string          `json:"activated_by"`
}

type AddParticipant struct {
	Identity    MessageIdentity `json:"identity"`
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	Participant EntityRef       `json:"participant"`
	Role        ParticipantRole `json:"role"`
	Weight      float64         `json:"weight"`
	AddedBy     string          `json:"added_by"`
}

type RemoveParticipant struct {
	Identity    MessageIdentity `json:"identity"`
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	Participant EntityRef       `json:"participant"`
	Reason      string          `json:"reason"`
	RemovedBy   string          `json:"removed_by"`
}

type ChangeParticipantRole struct {
	Identity    MessageIdentity `json:"identity"`
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	Participant EntityRef       `json:"participant"`
	NewRole     ParticipantRole `json:"new_role"`
	ChangedBy   string          `json:"changed_by"`
}

type BeginRestructuring struct {
	Identity    MessageIdentity `json:"identity"`
	HyperEdgeID RelationshipID  `json:"hyperedge_id"`
	Reason      string          `json:"reason"`
	StartedBy   string          `json:"started_by"`
}

type TerminateHyperEdge struct {
	Identity     MessageIdentity `json:"identity"`
	HyperEdgeID  RelationshipID  `json:"hyperedge_id"`
	Reason       string          `json:"reason"`
	TerminatedBy string          `json:"terminated_by"`
}

type UpdateHyperEdgeQuality struct {
	Identity    MessageIdentity     `json:"identity"`
	HyperEdgeID RelationshipID      `json:"hyperedge_id"`
	Quality     RelationshipQuality `json:"quality"`
	Reason      string              `json:"reason"`
}

func (CreateHyperEdge) CommandKind() string        { return CommandCreateHyperEdge }
func (ActivateHyperEdge) CommandKind() string      { return CommandActivateHyperEdge }
func (AddParticipant) CommandKind() string         { return CommandAddParticipant }
func (RemoveParticipant) CommandKind() string      { return CommandRemoveParticipant }
func (ChangeParticipantRole) CommandKind() string  { return CommandChangeParticipantRole }
func (BeginRestructuring) CommandKind() string     { return CommandRestructureHyperEdge }
func (TerminateHyperEdge) CommandKind() string     { return CommandTerminateHyperEdge }
func (UpdateHyperEdgeQuality) CommandKind() string { return CommandUpdateHyperEdgeQuality }

func (c CreateHyperEdge) TargetID() RelationshipID        { return c.HyperEdgeID }
func (c ActivateHyperEdge) TargetID() RelationshipID      { return c.HyperEdgeID }
func (c AddParticipant) TargetID() RelationshipID         { return c.HyperEdgeID }
func (c RemoveParticipant) TargetID() RelationshipID      { return c.HyperEdgeID }
func (c ChangeParticipantRole) TargetID() RelationshipID  { return c.HyperEdgeID }
func (c BeginRestructuring) TargetID() RelationshipID     { return c.HyperEdgeID }
func (c TerminateHyperEdge) TargetID() RelationshipID     { return c.HyperEdgeID }
func (c UpdateHyperEdgeQuality) TargetID() RelationshipID { return c.HyperEdgeID }

// TypedCreateEdge builds a CreateEdge whose endpoint kinds are checked at
// compile time and returns an id typed to match.
type TypedCreateEdge[S, T EntityKind] struct {
	ID  TypedRelationshipID[S, T]
	cmd CreateEdge
}

func NewTypedCreateEdge[S, T EntityKind](source TypedEntityRef[S], target TypedEntityRef[T], category RelationshipCategory, name, createdBy string) TypedCreateEdge[S, T] {
	id := NewTypedRelationshipID[S, T]()
	return TypedCreateEdge[S, T]{
		ID: id,
		cmd: CreateEdge{
			Identity:  NewMessageIdentity(),
			EdgeID:    id.Erase(),
			Source:    source.Ref(),
			Target:    target.Ref(),
			Category:  category,
			Name:      name,
			CreatedBy: createdBy,
		},
	}
}

func (b TypedCreateEdge[S, T]) WithQuality(q RelationshipQuality) TypedCreateEdge[S, T] {
	b.cmd.Quality = &q
	return b
}

func (b TypedCreateEdge[S, T]) WithDescription(d string) TypedCreateEdge[S, T] {
	b.cmd.Description = &d
	return b
}

func (b TypedCreateEdge[S, T]) Command() CreateEdge {
	return b.cmd
}
