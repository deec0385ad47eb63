package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidscribe/backend/internal/models"
)

// TranscriptStore persists extracted transcripts keyed by video ID.
type TranscriptStore struct {
	pool *pgxpool.Pool
}

func NewTranscriptStore(pool *pgxpool.Pool) *TranscriptStore {
	return &TranscriptStore{pool: pool}
}

// Upsert writes the whole transcript, replacing any earlier row for the
// video. Concurrent duplicate extractions converge on the last write.
func (s *TranscriptStore) Upsert(ctx context.Context, t *models.Transcript) error {
	segments, err := json.Marshal(t.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	query := `
		INSERT INTO transcripts (video_id, segments, language, schema_version)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (video_id) DO UPDATE SET
			segments = EXCLUDED.segments,
			language = EXCLUDED.language,
			schema_version = EXCLUDED.schema_version`

	_, err = s.pool.Exec(ctx, query,
		t.VideoID, segments, t.Language, schemaVersionOrDefault(t.SchemaVersion))
	if err != nil {
		return fmt.Errorf("upsert transcript: %w", err)
	}
	return nil
}

// Get returns the transcript or ErrNotFound.
func (s *TranscriptStore) Get(ctx context.Context, videoID string) (*models.Transcript, error) {
	query := `SELECT video_id, segments, language, schema_version, created_at
		FROM transcripts WHERE video_id = $1`

	var t models.Transcript
	var segments []byte
	err := s.pool.QueryRow(ctx, query, videoID).Scan(
		&t.VideoID, &segments, &t.Language, &t.SchemaVersion, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	if err := json.Unmarshal(segments, &t.Segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	return &t, nil
}

// Exists reports whether a transcript row is already stored for the video.
func (s *TranscriptStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transcripts WHERE video_id = $1)`, videoID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("transcript exists: %w", err)
	}
	return exists, nil
}
