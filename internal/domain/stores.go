package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StoredEvent is an event as persisted in an aggregate stream.
type StoredEvent struct {
	AggregateID   RelationshipID  `json:"aggregate_id"`
	AggregateKind AggregateKind   `json:"aggregate_kind"`
	Sequence      int             `json:"sequence"`
	Offset        int64           `json:"offset"`
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	Subject       string          `json:"subject"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// NewStoredEvent encodes e for appending. Sequence, Offset and RecordedAt
// are assigned by the store.
func NewStoredEvent(e Event) (StoredEvent, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return StoredEvent{}, err
	}
	return StoredEvent{
		AggregateID:   e.AggregateID(),
		AggregateKind: KindOf(e),
		EventID:       e.Metadata().EventID,
		EventType:     e.EventType(),
		Subject:       EventSubjectFor(e),
		Payload:       payload,
		OccurredAt:    e.OccurredAt(),
	}, nil
}

func (s StoredEvent) Decode() (Event, error) {
	return DecodeEvent(s.EventType, s.Payload)
}

// EventStore is an append-only log of aggregate streams.
type EventStore interface {
	// Append adds events to the stream of aggregateID. expectedVersion is
	// the number of events the caller saw in the stream; if the stream has
	// moved on the append fails with a conflict. Returns the offset of the
	// last appended event.
	Append(ctx context.Context, aggregateID RelationshipID, expectedVersion int, events []StoredEvent) (int64, error)
	Read(ctx context.Context, aggregateID RelationshipID) ([]StoredEvent, error)
	ListAggregates(ctx context.Context, kind AggregateKind) ([]RelationshipID, error)
}

type SimilarEdge struct {
	EdgeID   RelationshipID       `json:"edge_id"`
	Category RelationshipCategory `json:"category"`
	Name     string               `json:"name"`
	State    EdgeState            `json:"state"`
	Distance float64              `json:"distance"`
}

// EdgeProjection is a queryable read model of edge quality points.
type EdgeProjection interface {
	Upsert(ctx context.Context, edge EdgeConcept, point QualityPoint) error
	FindSimilar(ctx context.Context, point QualityPoint, maxDistance float64, limit int) ([]SimilarEdge, error)
}

// EntityResolver checks that an EntityRef exists in its owning domain.
type EntityResolver interface {
	Resolve(ctx context.Context, ref EntityRef) error
}
