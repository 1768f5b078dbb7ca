package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresEventSchema = `
CREATE TABLE IF NOT EXISTS relationship_events (
	global_offset  BIGSERIAL   PRIMARY KEY,
	aggregate_id   UUID        NOT NULL,
	aggregate_kind TEXT        NOT NULL,
	sequence       INTEGER     NOT NULL,
	event_id       UUID        NOT NULL UNIQUE,
	event_type     TEXT        NOT NULL,
	subject        TEXT        NOT NULL,
	payload        JSONB       NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (aggregate_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_relationship_events_roots
	ON relationship_events (aggregate_kind, global_offset) WHERE sequence = 0;
`

type PostgresEventStore struct {
	db *pgxpool.Pool
}

func NewPostgresEventStore(db *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

// Migrate creates the event table if it does not exist.
func (s *PostgresEventStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, postgresEventSchema)
	return err
}

func (s *PostgresEventStore) Append(ctx context.Context, aggregateID domain.RelationshipID, expectedVersion int, events []domain.StoredEvent) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM relationship_events WHERE aggregate_id = $1`,
		aggregateID.UUID(),
	).Scan(&current)
	if err != nil {
		return 0, err
	}
	if current != expectedVersion {
		return 0, fmt.Errorf("%w: stream %s at %d, expected %d", ErrConflict, aggregateID, current, expectedVersion)
	}

	var last int64
	for i, e := range events {
		if e.AggregateID != aggregateID {
			return 0, fmt.Errorf("event %s belongs to %s, not %s", e.EventType, e.AggregateID, aggregateID)
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO relationship_events
			 (aggregate_id, aggregate_kind, sequence, event_id, event_type, subject, payload, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING global_offset`,
			aggregateID.UUID(), string(e.AggregateKind), expectedVersion+i, e.EventID,
			e.EventType, e.Subject, e.Payload, e.OccurredAt,
		).Scan(&last)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return 0, ErrConflict
			}
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return last, nil
}

func (s *PostgresEventStore) Read(ctx context.Context, aggregateID domain.RelationshipID) ([]domain.StoredEvent, error) {
	rows, err := s.db.Query(ctx,
		`SELECT global_offset, aggregate_id, aggregate_kind, sequence, event_id, event_type, subject, payload, occurred_at, recorded_at
		 FROM relationship_events
		 WHERE aggregate_id = $1
		 ORDER BY sequence`,
		aggregateID.UUID(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.StoredEvent
	for rows.Next() {
		var (
			e       domain.StoredEvent
			aggID   uuid.UUID
			kind    string
			payload []byte
		)
		if err := rows.Scan(&e.Offset, &aggID, &kind, &e.Sequence, &e.EventID, &e.EventType,
			&e.Subject, &payload, &e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.AggregateID = domain.RelationshipID(aggID)
		e.AggregateKind = domain.AggregateKind(kind)
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}

func (s *PostgresEventStore) ListAggregates(ctx context.Context, kind domain.AggregateKind) ([]domain.RelationshipID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT aggregate_id FROM relationship_events
		 WHERE aggregate_kind = $1 AND sequence = 0
		 ORDER BY global_offset`,
		string(kind),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RelationshipID, error) {
		var id uuid.UUID
		err := row.Scan(&id)
		return domain.RelationshipID(id), err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
