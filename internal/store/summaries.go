package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidscribe/backend/internal/models"
)

// SummaryStore persists AI summaries keyed by video ID.
type SummaryStore struct {
	pool *pgxpool.Pool
}

func NewSummaryStore(pool *pgxpool.Pool) *SummaryStore {
	return &SummaryStore{pool: pool}
}

// Upsert writes the whole summary, replacing any earlier row for the video.
func (s *SummaryStore) Upsert(ctx context.Context, sm *models.Summary) error {
	query := `
		INSERT INTO summaries (video_id, summary_text, key_points, model_used, schema_version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id) DO UPDATE SET
			summary_text = EXCLUDED.summary_text,
			key_points = EXCLUDED.key_points,
			model_used = EXCLUDED.model_used,
			schema_version = EXCLUDED.schema_version`

	_, err := s.pool.Exec(ctx, query,
		sm.VideoID, sm.SummaryText, sm.KeyPoints, sm.ModelUsed,
		schemaVersionOrDefault(sm.SchemaVersion))
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

// Get returns the summary or ErrNotFound.
func (s *SummaryStore) Get(ctx context.Context, videoID string) (*models.Summary, error) {
	query := `SELECT video_id, summary_text, key_points, model_used, schema_version, created_at
		FROM summaries WHERE video_id = $1`

	var sm models.Summary
	err := s.pool.QueryRow(ctx, query, videoID).Scan(
		&sm.VideoID, &sm.SummaryText, &sm.KeyPoints, &sm.ModelUsed,
		&sm.SchemaVersion, &sm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return &sm, nil
}

// Exists reports whether a summary row is already stored for the video.
func (s *SummaryStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM summaries WHERE video_id = $1)`, videoID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("summary exists: %w", err)
	}
	return exists, nil
}
