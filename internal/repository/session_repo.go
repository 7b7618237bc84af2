package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"complianceai/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository persists the server-side half of session tokens.
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepo{pool: pool}
}

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (session_token, user_id, expires) VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.pool.QueryRow(ctx, q, s.SessionToken, s.UserID, s.Expires).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("creating session for user %s: %w", s.UserID, err)
	}
	return nil
}

// Get returns nil when no row exists for token.
func (r *sessionRepo) Get(ctx context.Context, token string) (*model.Session, error) {
	const q = `SELECT session_token, user_id, expires, created_at FROM sessions WHERE session_token = $1`
	var s model.Session
	err := r.pool.QueryRow(ctx, q, token).Scan(&s.SessionToken, &s.UserID, &s.Expires, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching session: %w", err)
	}
	return &s, nil
}

// Delete is a no-op when the row is already gone.
func (r *sessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE session_token = $1`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purging expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
