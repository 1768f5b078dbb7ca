package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

const edgeProjectionSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS edge_quality (
	edge_id    UUID        PRIMARY KEY,
	category   TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	state      TEXT        NOT NULL,
	version    BIGINT      NOT NULL,
	point      vector(5)   NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EdgeProjectionStore keeps each edge's quality point in a pgvector column
// so similarity can be answered by the database.
type EdgeProjectionStore struct {
	db *pgxpool.Pool
}

func NewEdgeProjectionStore(db *pgxpool.Pool) *EdgeProjectionStore {
	return &EdgeProjectionStore{db: db}
}

func (s *EdgeProjectionStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, edgeProjectionSchema)
	return err
}

func toVector(p domain.QualityPoint) pgvector.Vector {
	a := p.Array()
	v := make([]float32, len(a))
	for i, x := range a {
		v[i] = float32(x)
	}
	return pgvector.NewVector(v)
}

// Upsert writes the edge's point. Older versions never overwrite newer ones.
func (s *EdgeProjectionStore) Upsert(ctx context.Context, edge domain.EdgeConcept, point domain.QualityPoint) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO edge_quality (edge_id, category, name, state, version, point, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (edge_id) DO UPDATE
		 SET category = EXCLUDED.category, name = EXCLUDED.name, state = EXCLUDED.state,
		     version = EXCLUDED.version, point = EXCLUDED.point, updated_at = EXCLUDED.updated_at
		 WHERE edge_quality.version <= EXCLUDED.version`,
		edge.ID.UUID(), string(edge.Category), edge.Name, string(edge.State), int64(edge.Version),
		toVector(point), edge.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert edge quality %s: %w", edge.ID, err)
	}
	return nil
}

// FindSimilar returns edges whose stored point is within maxDistance of
// point, nearest first. A limit of zero or less returns every match.
func (s *EdgeProjectionStore) FindSimilar(ctx context.Context, point domain.QualityPoint, maxDistance float64, limit int) ([]domain.SimilarEdge, error) {
	// LIMIT NULL is no limit
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	vec := toVector(point)

	rows, err := s.db.Query(ctx,
		`SELECT edge_id, category, name, state, point <-> $1 AS distance
		 FROM edge_quality
		 WHERE point <-> $1 <= $2
		 ORDER BY point <-> $1, edge_id
		 LIMIT $3`,
		vec, maxDistance, lim,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SimilarEdge
	for rows.Next() {
		var (
			e        domain.SimilarEdge
			id       uuid.UUID
			category string
			state    string
		)
		if err := rows.Scan(&id, &category, &e.Name, &state, &e.Distance); err != nil {
			return nil, err
		}
		e.EdgeID = domain.RelationshipID(id)
		e.Category = domain.RelationshipCategory(category)
		e.State = domain.EdgeState(state)
		out = append(out, e)
	}
	return out, rows.Err()
}
