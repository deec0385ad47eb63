package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidscribe/backend/internal/store"
)

// Reviewer is an account that can review and publish drafts.
type Reviewer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository persists reviewer accounts.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a reviewer and returns the stored row.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName, role string) (*Reviewer, error) {
	query := `
		INSERT INTO reviewers (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, full_name, role, created_at, updated_at`

	var rv Reviewer
	err := r.pool.QueryRow(ctx, query, email, passwordHash, fullName, role).Scan(
		&rv.ID, &rv.Email, &rv.PasswordHash, &rv.FullName, &rv.Role,
		&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create reviewer: %w", err)
	}
	return &rv, nil
}

// GetByEmail returns the reviewer or store.ErrNotFound.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Reviewer, error) {
	query := `SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM reviewers WHERE email = $1`

	var rv Reviewer
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&rv.ID, &rv.Email, &rv.PasswordHash, &rv.FullName, &rv.Role,
		&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get reviewer: %w", err)
	}
	return &rv, nil
}
