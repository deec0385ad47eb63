package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidscribe/backend/internal/models"
)

// PostStore persists drafted posts and their review lifecycle.
type PostStore struct {
	pool *pgxpool.Pool
}

func NewPostStore(pool *pgxpool.Pool) *PostStore {
	return &PostStore{pool: pool}
}

// Upsert writes the whole post row. Review fields are carried so a
// re-drafted post does not lose reviewer state set in the meantime.
func (s *PostStore) Upsert(ctx context.Context, p *models.Post) error {
	if !p.Status.Valid() {
		return fmt.Errorf("invalid post status: %s", p.Status)
	}
	query := `
		INSERT INTO posts (video_id, title, content, status, video_title, video_url,
			reviewed_at, reviewed_by, published_at, published_url, schema_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (video_id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			status = EXCLUDED.status,
			video_title = EXCLUDED.video_title,
			video_url = EXCLUDED.video_url,
			reviewed_at = EXCLUDED.reviewed_at,
			reviewed_by = EXCLUDED.reviewed_by,
			published_at = EXCLUDED.published_at,
			published_url = EXCLUDED.published_url,
			schema_version = EXCLUDED.schema_version,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		p.VideoID, p.Title, p.Content, p.Status, p.VideoTitle, p.VideoURL,
		p.ReviewedAt, nullIfEmpty(p.ReviewedBy), p.PublishedAt, nullIfEmpty(p.PublishedURL),
		schemaVersionOrDefault(p.SchemaVersion))
	if err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}
	return nil
}

// Get returns the post or ErrNotFound.
func (s *PostStore) Get(ctx context.Context, videoID string) (*models.Post, error) {
	query := `
		SELECT video_id, title, content, status, video_title, video_url, reviewed_at,
			reviewed_by, published_at, published_url, schema_version, created_at, updated_at
		FROM posts WHERE video_id = $1`

	var p models.Post
	var reviewedBy, publishedURL *string
	err := s.pool.QueryRow(ctx, query, videoID).Scan(
		&p.VideoID, &p.Title, &p.Content, &p.Status, &p.VideoTitle, &p.VideoURL,
		&p.ReviewedAt, &reviewedBy, &p.PublishedAt, &publishedURL,
		&p.SchemaVersion, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	if reviewedBy != nil {
		p.ReviewedBy = *reviewedBy
	}
	if publishedURL != nil {
		p.PublishedURL = *publishedURL
	}
	return &p, nil
}

// List returns posts newest first, optionally filtered by status.
func (s *PostStore) List(ctx context.Context, status models.PostStatus, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT video_id, title, content, status, video_title, video_url, reviewed_at,
			reviewed_by, published_at, published_url, schema_version, created_at, updated_at
		FROM posts`
	args := []interface{}{}
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("invalid post status: %s", status)
		}
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, status, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var reviewedBy, publishedURL *string
		if err := rows.Scan(
			&p.VideoID, &p.Title, &p.Content, &p.Status, &p.VideoTitle, &p.VideoURL,
			&p.ReviewedAt, &reviewedBy, &p.PublishedAt, &publishedURL,
			&p.SchemaVersion, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if reviewedBy != nil {
			p.ReviewedBy = *reviewedBy
		}
		if publishedURL != nil {
			p.PublishedURL = *publishedURL
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Exists reports whether a post row is already stored for the video.
func (s *PostStore) Exists(ctx context.Context, videoID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE video_id = $1)`, videoID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post exists: %w", err)
	}
	return exists, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
