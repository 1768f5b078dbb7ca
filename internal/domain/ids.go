package domain

import (
	"github.com/google/uuid"
)

func newV7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// RelationshipID identifies an edge or hyperedge. IDs are UUIDv7 so they
// sort by creation time across nodes.
type RelationshipID uuid.UUID

func NewRelationshipID() RelationshipID { return RelationshipID(newV7()) }

func ParseRelationshipID(s string) (RelationshipID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RelationshipID{}, err
	}
	return RelationshipID(id), nil
}

func (id RelationshipID) UUID() uuid.UUID { return uuid.UUID(id) }
func (id RelationshipID) String() string  { return uuid.UUID(id).String() }
func (id RelationshipID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }

func (id RelationshipID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *RelationshipID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

type ConceptID uuid.UUID

func NewConceptID() ConceptID { return ConceptID(newV7()) }

func (id ConceptID) UUID() uuid.UUID { return uuid.UUID(id) }
func (id ConceptID) String() string  { return uuid.UUID(id).String() }

func (id ConceptID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ConceptID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

type ConceptualSpaceID uuid.UUID

func NewConceptualSpaceID() ConceptualSpaceID { return ConceptualSpaceID(newV7()) }

func (id ConceptualSpaceID) String() string { return uuid.UUID(id).String() }

func (id ConceptualSpaceID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ConceptualSpaceID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

type TopologicalSpaceID uuid.UUID

func NewTopologicalSpaceID() TopologicalSpaceID { return TopologicalSpaceID(newV7()) }

func (id TopologicalSpaceID) String() string { return uuid.UUID(id).String() }

func (id TopologicalSpaceID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *TopologicalSpaceID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// EntityKind is a compile-time marker for the entity type at one end of a
// binary relationship. Kinds are zero-sized and never serialized.
type EntityKind interface {
	EntityType() EntityType
}

type (
	PersonKind       struct{}
	OrganizationKind struct{}
	LocationKind     struct{}
	AgentKind        struct{}
	PolicyKind       struct{}
	ConceptKind      struct{}
	RelationshipKind struct{}
)

func (PersonKind) EntityType() EntityType       { return EntityTypePerson }
func (OrganizationKind) EntityType() EntityType { return EntityTypeOrganization }
func (LocationKind) EntityType() EntityType     { return EntityTypeLocation }
func (AgentKind) EntityType() EntityType        { return EntityTypeAgent }
func (PolicyKind) EntityType() EntityType       { return EntityTypePolicy }
func (ConceptKind) EntityType() EntityType      { return EntityTypeConcept }
func (RelationshipKind) EntityType() EntityType { return EntityTypeRelationship }

// TypedRelationshipID carries source and target kinds in its type so a
// Person->Organization id cannot be used where an Agent->Policy id is
// expected. It serializes exactly like RelationshipID.
type TypedRelationshipID[S, T EntityKind] struct {
	id RelationshipID
}

func NewTypedRelationshipID[S, T EntityKind]() TypedRelationshipID[S, T] {
	return TypedRelationshipID[S, T]{id: NewRelationshipID()}
}

func TypedRelationshipIDFrom[S, T EntityKind](id RelationshipID) TypedRelationshipID[S, T] {
	return TypedRelationshipID[S, T]{id: id}
}

func (t TypedRelationshipID[S, T]) Erase() RelationshipID { return t.id }
func (t TypedRelationshipID[S, T]) String() string        { return t.id.String() }

func (t TypedRelationshipID[S, T]) MarshalText() ([]byte, error) { return t.id.MarshalText() }

func (t *TypedRelationshipID[S, T]) UnmarshalText(b []byte) error {
	return t.id.UnmarshalText(b)
}

// TypedEntityRef is an EntityRef whose entity type is fixed by K.
type TypedEntityRef[K EntityKind] struct {
	ref EntityRef
}

func RefOf[K EntityKind](id uuid.UUID) TypedEntityRef[K] {
	var k K
	return TypedEntityRef[K]{ref: NewEntityRef(k.EntityType(), id)}
}

func (r TypedEntityRef[K]) WithCID(cid string) TypedEntityRef[K] {
	return TypedEntityRef[K]{ref: r.ref.WithCID(cid)}
}

func (r TypedEntityRef[K]) WithVersion(v uint64) TypedEntityRef[K] {
	return TypedEntityRef[K]{ref: r.ref.WithVersion(v)}
}

func (r TypedEntityRef[K]) Ref() EntityRef { return r.ref }
