// Package audit records every resolved ConfigResult to Postgres for
// traceability: which commit a given application/profile/label
// combination resolved to, and when. It is a supplemental enrichment —
// the HTTP contract and the Git/cache/refresher pipeline all work
// without it — gated entirely by whether a Store is wired in.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cburgosro9303/vortex-config/internal/source"
)

// Record is one row of resolution history.
type Record struct {
	ID          int64
	Application string
	Profiles    string
	Label       string
	Version     string
	ResolvedAt  time.Time
}

// Store persists resolution history to Postgres via pgx's pool, the
// driver the rest of the domain stack's SQL-backed adapters use.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the resolution_history table if it does not already
// exist. Called once at startup; idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS resolution_history (
			id           BIGSERIAL PRIMARY KEY,
			application  TEXT NOT NULL,
			profiles     TEXT NOT NULL,
			label        TEXT NOT NULL,
			version      TEXT NOT NULL,
			resolved_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	return err
}

// Record inserts one resolution event. Profiles is stored comma-joined;
// callers that need structured filtering query by application/label
// instead.
func (s *Store) Record(ctx context.Context, profiles string, result source.ConfigResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO resolution_history (application, profiles, label, version) VALUES ($1, $2, $3, $4)`,
		result.Name, profiles, result.Label, result.Version,
	)

	return err
}

// History returns the most recent resolutions for application, newest
// first, bounded by limit.
func (s *Store) History(ctx context.Context, application string, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, application, profiles, label, version, resolved_at
		 FROM resolution_history
		 WHERE application = $1
		 ORDER BY resolved_at DESC
		 LIMIT $2`,
		application, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Application, &r.Profiles, &r.Label, &r.Version, &r.ResolvedAt); err != nil {
			return nil, err
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
