package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityType is the kind of thing an EntityRef points at. Custom types are
// encoded as "custom:<name>".
type EntityType string

const (
	EntityTypePerson       EntityType = "person"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeLocation     EntityType = "location"
	EntityTypeAgent        EntityType = "agent"
	EntityTypePolicy       EntityType = "policy"
	EntityTypeConcept      EntityType = "concept"
	EntityTypeRelationship EntityType = "relationship"
)

const customPrefix = "custom:"

func CustomEntityType(name string) EntityType {
	return EntityType(customPrefix + name)
}

func ValidEntityType(t string) bool {
	switch EntityType(t) {
	case EntityTypePerson, EntityTypeOrganization, EntityTypeLocation, EntityTypeAgent,
		EntityTypePolicy, EntityTypeConcept, EntityTypeRelationship:
		return true
	}
	return strings.HasPrefix(t, customPrefix) && len(t) > len(customPrefix)
}

func (t EntityType) IsCustom() bool {
	return strings.HasPrefix(string(t), customPrefix)
}

// CustomName returns the name of a custom entity type, or "" for built-ins.
func (t EntityType) CustomName() string {
	if !t.IsCustom() {
		return ""
	}
	return strings.TrimPrefix(string(t), customPrefix)
}

// SubjectPrefix is the leading token used when routing entity lookups.
func (t EntityType) SubjectPrefix() string {
	if t.IsCustom() {
		return "custom"
	}
	return string(t)
}

// EntityRef is a content-addressed reference to an entity owned by another
// domain. A ref with a CID or a version is pinned to that snapshot.
type EntityRef struct {
	Type    EntityType `json:"entity_type"`
	ID      uuid.UUID  `json:"entity_id"`
	CID     *string    `json:"cid,omitempty"`
	Version *uint64    `json:"version,omitempty"`
}

func NewEntityRef(t EntityType, id uuid.UUID) EntityRef {
	return EntityRef{Type: t, ID: id}
}

func PersonRef(id uuid.UUID) EntityRef       { return NewEntityRef(EntityTypePerson, id) }
func OrganizationRef(id uuid.UUID) EntityRef { return NewEntityRef(EntityTypeOrganization, id) }
func LocationRef(id uuid.UUID) EntityRef     { return NewEntityRef(EntityTypeLocation, id) }
func AgentRef(id uuid.UUID) EntityRef        { return NewEntityRef(EntityTypeAgent, id) }
func PolicyRef(id uuid.UUID) EntityRef       { return NewEntityRef(EntityTypePolicy, id) }
func ConceptRef(id uuid.UUID) EntityRef      { return NewEntityRef(EntityTypeConcept, id) }
func RelationshipRef(id uuid.UUID) EntityRef { return NewEntityRef(EntityTypeRelationship, id) }

func (r EntityRef) WithCID(cid string) EntityRef {
	r.CID = &cid
	return r
}

func (r EntityRef) WithVersion(v uint64) EntityRef {
	r.Version = &v
	return r
}

func (r EntityRef) IsPinned() bool {
	return r.CID != nil || r.Version != nil
}

// Subject is where the owning domain answers lookups for this entity.
func (r EntityRef) Subject() string {
	return fmt.Sprintf("%s.query.get.%s", r.Type.SubjectPrefix(), r.ID)
}

// String renders "type:id", suffixed with "@<cid prefix>" or "@v<n>" when
// pinned. This form is the participant key inside an IncidenceMatrix.
func (r EntityRef) String() string {
	s := r.Type.SubjectPrefix() + ":" + r.ID.String()
	switch {
	case r.CID != nil:
		cid := *r.CID
		if len(cid) > 8 {
			cid = cid[:8]
		}
		s += "@" + cid
	case r.Version != nil:
		s += fmt.Sprintf("@v%d", *r.Version)
	}
	return s
}

// ParseEntityRef reads the unpinned "type:id" form, e.g.
// "person:0190a0e4-..." or "custom:vendor:0190a0e4-...".
func ParseEntityRef(s string) (EntityRef, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return EntityRef{}, invalidRelationship("entity ref %q is not type:id", s)
	}
	id, err := uuid.Parse(s[i+1:])
	if err != nil {
		return EntityRef{}, invalidRelationship("entity ref %q: %v", s, err)
	}
	ref := NewEntityRef(EntityType(s[:i]), id)
	if err := ref.Validate(); err != nil {
		return EntityRef{}, err
	}
	return ref, nil
}

func (r EntityRef) Equal(o EntityRef) bool {
	if r.Type != o.Type || r.ID != o.ID {
		return false
	}
	if (r.CID == nil) != (o.CID == nil) || (r.CID != nil && *r.CID != *o.CID) {
		return false
	}
	if (r.Version == nil) != (o.Version == nil) || (r.Version != nil && *r.Version != *o.Version) {
		return false
	}
	return true
}

func (r EntityRef) Validate() error {
	if !ValidEntityType(string(r.Type)) {
		return invalidRelationship("unknown entity type %q", r.Type)
	}
	if r.ID == uuid.Nil {
		return invalidRelationship("entity id is required")
	}
	return nil
}
