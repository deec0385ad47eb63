package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidscribe/backend/internal/models"
)

// VideoStore persists videos discovered by the channel monitor.
type VideoStore struct {
	pool *pgxpool.Pool
}

func NewVideoStore(pool *pgxpool.Pool) *VideoStore {
	return &VideoStore{pool: pool}
}

// Upsert inserts the video or refreshes its metadata if it already exists.
// The processed flag is preserved on conflict so a re-discovered video does
// not re-enter the pipeline.
func (s *VideoStore) Upsert(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (video_id, title, channel_id, channel_title, published_at,
			description, thumbnail_url, processed, schema_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (video_id) DO UPDATE SET
			title = EXCLUDED.title,
			channel_title = EXCLUDED.channel_title,
			description = EXCLUDED.description,
			thumbnail_url = EXCLUDED.thumbnail_url,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		v.VideoID, v.Title, v.ChannelID, v.ChannelTitle, v.PublishedAt,
		v.Description, v.ThumbnailURL, v.Processed, schemaVersionOrDefault(v.SchemaVersion))
	if err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}
	return nil
}

// Get returns the video or ErrNotFound.
func (s *VideoStore) Get(ctx context.Context, videoID string) (*models.Video, error) {
	query := `
		SELECT video_id, title, channel_id, channel_title, published_at, description,
			thumbnail_url, processed, processed_at, schema_version, created_at, updated_at
		FROM videos WHERE video_id = $1`

	var v models.Video
	err := s.pool.QueryRow(ctx, query, videoID).Scan(
		&v.VideoID, &v.Title, &v.ChannelID, &v.ChannelTitle, &v.PublishedAt,
		&v.Description, &v.ThumbnailURL, &v.Processed, &v.ProcessedAt,
		&v.SchemaVersion, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return &v, nil
}

// List returns the most recently published videos, newest first.
func (s *VideoStore) List(ctx context.Context, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT video_id, title, channel_id, channel_title, published_at, description,
			thumbnail_url, processed, processed_at, schema_version, created_at, updated_at
		FROM videos ORDER BY published_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(
			&v.VideoID, &v.Title, &v.ChannelID, &v.ChannelTitle, &v.PublishedAt,
			&v.Description, &v.ThumbnailURL, &v.Processed, &v.ProcessedAt,
			&v.SchemaVersion, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// MarkProcessed flags the video as having completed the pipeline.
func (s *VideoStore) MarkProcessed(ctx context.Context, videoID string, at time.Time) error {
	query := `UPDATE videos SET processed = TRUE, processed_at = $2, updated_at = NOW()
		WHERE video_id = $1`
	tag, err := s.pool.Exec(ctx, query, videoID, at)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func schemaVersionOrDefault(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}
