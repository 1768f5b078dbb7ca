package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/store"
)

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrVersionConflict      = errors.New("relationship was modified concurrently")
)

// readStream loads the stored events of id and checks they belong to an
// aggregate of the given kind.
func readStream(ctx context.Context, es domain.EventStore, id domain.RelationshipID, kind domain.AggregateKind) ([]domain.StoredEvent, error) {
	stored, err := es.Read(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
	}
	if stored[0].AggregateKind != kind {
		return nil, fmt.Errorf("%w: %s is a %s", ErrRelationshipNotFound, id, stored[0].AggregateKind)
	}
	return stored, nil
}

// replayEdge rebuilds an edge, stamping each step with the time the event
// occurred.
func replayEdge(stored []domain.StoredEvent) (domain.EdgeConcept, error) {
	var edge domain.EdgeConcept
	for _, se := range stored {
		ev, err := se.Decode()
		if err != nil {
			return domain.EdgeConcept{}, fmt.Errorf("decode %s #%d: %w", se.AggregateID, se.Sequence, err)
		}
		ee, ok := ev.(domain.EdgeEvent)
		if !ok {
			return domain.EdgeConcept{}, fmt.Errorf("%s #%d: %s is not an edge event", se.AggregateID, se.Sequence, se.EventType)
		}
		if edge, err = edge.Apply(ee, ee.OccurredAt()); err != nil {
			return domain.EdgeConcept{}, fmt.Errorf("replay %s #%d: %w", se.AggregateID, se.Sequence, err)
		}
	}
	return edge, nil
}

func replayHyperEdge(stored []domain.StoredEvent) (domain.HyperEdgeConcept, error) {
	var h domain.HyperEdgeConcept
	for _, se := range stored {
		ev, err := se.Decode()
		if err != nil {
			return domain.HyperEdgeConcept{}, fmt.Errorf("decode %s #%d: %w", se.AggregateID, se.Sequence, err)
		}
		he, ok := ev.(domain.HyperEdgeEvent)
		if !ok {
			return domain.HyperEdgeConcept{}, fmt.Errorf("%s #%d: %s is not a hyperedge event", se.AggregateID, se.Sequence, se.EventType)
		}
		if h, err = h.Apply(he, he.OccurredAt()); err != nil {
			return domain.HyperEdgeConcept{}, fmt.Errorf("replay %s #%d: %w", se.AggregateID, se.Sequence, err)
		}
	}
	return h, nil
}

// appendEvents encodes events and appends them to the stream of id.
// expected is the stream length the events were decided against.
func appendEvents(ctx context.Context, es domain.EventStore, id domain.RelationshipID, expected int, events []domain.Event) (int64, error) {
	stored := make([]domain.StoredEvent, 0, len(events))
	for _, ev := range events {
		se, err := domain.NewStoredEvent(ev)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", ev.EventType(), err)
		}
		stored = append(stored, se)
	}

	offset, err := es.Append(ctx, id, expected, stored)
	if errors.Is(err, store.ErrConflict) {
		return 0, fmt.Errorf("%w: %s at version %d", ErrVersionConflict, id, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", id, err)
	}
	for _, ev := range events {
		eventsAppended.WithLabelValues(ev.EventType()).Inc()
	}
	return offset, nil
}

// resolveAll checks refs against the resolver. A nil resolver accepts
// everything.
func resolveAll(ctx context.Context, r domain.EntityResolver, refs ...domain.EntityRef) error {
	if r == nil {
		return nil
	}
	for _, ref := range refs {
		if err := r.Resolve(ctx, ref); err != nil {
			return err
		}
	}
	return nil
}
