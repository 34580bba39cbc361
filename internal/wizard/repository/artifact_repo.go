package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const pgUndefinedTable = "42P01"

var ErrHistoryTableMissing = errors.New("artifact history table is missing; run EnsureSchema")

const artifactSchema = `
	CREATE TABLE IF NOT EXISTS ocm_artifacts (
		id          UUID PRIMARY KEY,
		session_id  TEXT        NOT NULL,
		artifact    TEXT        NOT NULL,
		content     TEXT        NOT NULL,
		provider    TEXT        NOT NULL,
		model       TEXT        NOT NULL,
		refinement  BOOLEAN     NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS ocm_artifacts_session_idx ON ocm_artifacts (session_id, created_at);
`

// ArtifactRepository stores generated artifacts in PostgreSQL.
type ArtifactRepository struct {
	db *sql.DB
}

func NewArtifactRepository(db *sql.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

func (r *ArtifactRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, artifactSchema); err != nil {
		return fmt.Errorf("failed to create artifact schema: %w", err)
	}
	return nil
}

func (r *ArtifactRepository) Save(ctx context.Context, rec *domain.ArtifactRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO ocm_artifacts (id, session_id, artifact, content, provider, model, refinement)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.SessionID, rec.Artifact, rec.Content, string(rec.Provider), rec.Model, rec.Refinement,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", mapPgError(err))
	}
	return nil
}

func (r *ArtifactRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ArtifactRecord, error) {
	query := `
		SELECT id, session_id, artifact, content, provider, model, refinement, created_at
		FROM ocm_artifacts
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", mapPgError(err))
	}
	defer rows.Close()

	records := []domain.ArtifactRecord{}
	for rows.Next() {
		var rec domain.ArtifactRecord
		var provider string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Artifact, &rec.Content,
			&provider, &rec.Model, &rec.Refinement, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		rec.Provider = domain.Provider(provider)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifacts: %w", err)
	}
	return records, nil
}

// PurgeOlderThan deletes history rows created before cutoff.
func (r *ArtifactRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ocm_artifacts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge artifacts: %w", mapPgError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged artifacts: %w", err)
	}
	return n, nil
}

func (r *ArtifactRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: %s", ErrHistoryTableMissing, pgErr.Message)
	}
	return err
}

// NoopArtifactRepository is used when no database is configured.
type NoopArtifactRepository struct{}

func (NoopArtifactRepository) Save(context.Context, *domain.ArtifactRecord) error { return nil }

func (NoopArtifactRepository) ListBySession(context.Context, string) ([]domain.ArtifactRecord, error) {
	return []domain.ArtifactRecord{}, nil
}

func (NoopArtifactRepository) PurgeOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}
