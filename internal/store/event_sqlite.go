package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS relationship_events (
	global_offset  INTEGER PRIMARY KEY AUTOINCREMENT,
	aggregate_id   TEXT    NOT NULL,
	aggregate_kind TEXT    NOT NULL,
	sequence       INTEGER NOT NULL,
	event_id       TEXT    NOT NULL UNIQUE,
	event_type     TEXT    NOT NULL,
	subject        TEXT    NOT NULL,
	payload        TEXT    NOT NULL,
	occurred_at    TEXT    NOT NULL,
	recorded_at    TEXT    NOT NULL,
	UNIQUE (aggregate_id, sequence)
);
CREATE INDEX IF NOT EXISTS idx_relationship_events_kind
	ON relationship_events (aggregate_kind, sequence);
`

// SQLiteEventStore is an embedded, single-file event store.
type SQLiteEventStore struct {
	db *sql.DB
}

// NewSQLiteEventStore opens dsn (a file path or ":memory:") and creates the
// schema if needed.
func NewSQLiteEventStore(dsn string) (*SQLiteEventStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// One writer at a time; this also keeps a ":memory:" database alive on
	// a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &SQLiteEventStore{db: db}, nil
}

func (s *SQLiteEventStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteEventStore) Append(ctx context.Context, aggregateID domain.RelationshipID, expectedVersion int, events []domain.StoredEvent) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relationship_events WHERE aggregate_id = ?`,
		aggregateID.String(),
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("sqlite: read stream length: %w", err)
	}
	if current != expectedVersion {
		return 0, fmt.Errorf("%w: stream %s at %d, expected %d", ErrConflict, aggregateID, current, expectedVersion)
	}

	recorded := time.Now().UTC().Format(time.RFC3339Nano)
	var last int64
	for i, e := range events {
		if e.AggregateID != aggregateID {
			return 0, fmt.Errorf("event %s belongs to %s, not %s", e.EventType, e.AggregateID, aggregateID)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO relationship_events
			 (aggregate_id, aggregate_kind, sequence, event_id, event_type, subject, payload, occurred_at, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			aggregateID.String(), string(e.AggregateKind), expectedVersion+i, e.EventID.String(),
			e.EventType, e.Subject, string(e.Payload), e.OccurredAt.UTC().Format(time.RFC3339Nano), recorded,
		)
		if err != nil {
			if isSQLiteConstraint(err) {
				return 0, fmt.Errorf("%w: %v", ErrConflict, err)
			}
			return 0, fmt.Errorf("sqlite: insert %s: %w", e.EventType, err)
		}
		if last, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("sqlite: last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return last, nil
}

func (s *SQLiteEventStore) Read(ctx context.Context, aggregateID domain.RelationshipID) ([]domain.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT global_offset, aggregate_id, aggregate_kind, sequence, event_id, event_type, subject, payload, occurred_at, recorded_at
		 FROM relationship_events
		 WHERE aggregate_id = ?
		 ORDER BY sequence`,
		aggregateID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: read stream: %w", err)
	}
	defer rows.Close()

	var events []domain.StoredEvent
	for rows.Next() {
		e, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
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

func (s *SQLiteEventStore) ListAggregates(ctx context.Context, kind domain.AggregateKind) ([]domain.RelationshipID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT aggregate_id FROM relationship_events
		 WHERE aggregate_kind = ? AND sequence = 0
		 ORDER BY global_offset`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list aggregates: %w", err)
	}
	defer rows.Close()

	var ids []domain.RelationshipID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := domain.ParseRelationshipID(raw)
		if err != nil {
			return nil, fmt.Errorf("sqlite: bad aggregate id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSQLiteEvent(rows *sql.Rows) (domain.StoredEvent, error) {
	var (
		e                      domain.StoredEvent
		aggregateID, eventID   string
		kind, payload          string
		occurredAt, recordedAt string
	)
	if err := rows.Scan(&e.Offset, &aggregateID, &kind, &e.Sequence, &eventID, &e.EventType, &e.Subject, &payload, &occurredAt, &recordedAt); err != nil {
		return e, err
	}

	id, err := domain.ParseRelationshipID(aggregateID)
	if err != nil {
		return e, fmt.Errorf("sqlite: bad aggregate id %q: %w", aggregateID, err)
	}
	if e.EventID, err = uuid.Parse(eventID); err != nil {
		return e, fmt.Errorf("sqlite: bad event id %q: %w", eventID, err)
	}
	if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
		return e, fmt.Errorf("sqlite: bad occurred_at %q: %w", occurredAt, err)
	}
	if e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
		return e, fmt.Errorf("sqlite: bad recorded_at %q: %w", recordedAt, err)
	}
	e.AggregateID = id
	e.AggregateKind = domain.AggregateKind(kind)
	e.Payload = json.RawMessage(payload)
	return e, nil
}

func isSQLiteConstraint(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		// SQLITE_CONSTRAINT and its extended codes share the low byte 19.
		return coded.Code()&0xff == 19
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
