package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
)

// MemoryEventStore keeps streams in process. It is used when no database is
// configured and as a fixture in tests.
type MemoryEventStore struct {
	mu      sync.RWMutex
	streams map[domain.RelationshipID][]domain.StoredEvent
	eventID map[string]struct{}
	offset  int64
	now     func() time.Time
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		streams: make(map[domain.RelationshipID][]domain.StoredEvent),
		eventID: make(map[string]struct{}),
		now:     time.Now,
	}
}

func (s *MemoryEventStore) Append(ctx context.Context, aggregateID domain.RelationshipID, expectedVersion int, events []domain.StoredEvent) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	if len(stream) != expectedVersion {
		return 0, fmt.Errorf("%w: stream %s at %d, expected %d", ErrConflict, aggregateID, len(stream), expectedVersion)
	}
	for _, e := range events {
		if e.AggregateID != aggregateID {
			return 0, fmt.Errorf("event %s belongs to %s, not %s", e.EventType, e.AggregateID, aggregateID)
		}
		if _, dup := s.eventID[e.EventID.String()]; dup {
			return 0, fmt.Errorf("%w: duplicate event id %s", ErrConflict, e.EventID)
		}
	}

	recorded := s.now().UTC()
	for i, e := range events {
		s.offset++
		e.Sequence = expectedVersion + i
		e.Offset = s.offset
		e.RecordedAt = recorded
		stream = append(stream, e)
		s.eventID[e.EventID.String()] = struct{}{}
	}
	s.streams[aggregateID] = stream
	return s.offset, nil
}

func (s *MemoryEventStore) Read(ctx context.Context, aggregateID domain.RelationshipID) ([]domain.StoredEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, ok := s.streams[aggregateID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]domain.StoredEvent, len(stream))
	copy(out, stream)
	return out, nil
}

func (s *MemoryEventStore) ListAggregates(ctx context.Context, kind domain.AggregateKind) ([]domain.RelationshipID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id     domain.RelationshipID
		offset int64
	}
	var found []entry
	for id, stream := range s.streams {
		if len(stream) > 0 && stream[0].AggregateKind == kind {
			found = append(found, entry{id, stream[0].Offset})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	ids := make([]domain.RelationshipID, len(found))
	for i, e := range found {
		ids[i] = e.id
	}
	return ids, nil
}
